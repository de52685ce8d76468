package cli

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/georgepadayatti/pdfburn/pdf/generic"
	"github.com/georgepadayatti/pdfburn/pdf/layout"
	"github.com/georgepadayatti/pdfburn/pdf/writer"
)

func blankCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "blank",
		Usage:     "write an empty multi-page PDF",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "pages", Aliases: []string{"n"}, Value: 1, Usage: "number of pages"},
			&cli.StringFlag{Name: "size", Value: "a4", Usage: "named page size (a3, a4, a5, letter, legal)"},
			&cli.BoolFlag{Name: "landscape", Usage: "swap width and height of a named size"},
			&cli.Float64Flag{Name: "width", Usage: "page width, overrides --size"},
			&cli.Float64Flag{Name: "height", Usage: "page height, overrides --size"},
			&cli.StringFlag{Name: "unit", Value: "pt", Usage: "unit of --width and --height (pt, in, mm, cm)"},
			&cli.TimestampFlag{Name: "created", Layout: time.RFC3339, Usage: "record this creation date (RFC 3339)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output PDF path or URL", Required: true},
		},
		Action: r.blank,
	}
}

// BlankPDF returns a document of n empty pages of the given size. A zero
// created time leaves the creation date out, keeping the output
// reproducible.
func BlankPDF(n int, size layout.PageSize, created time.Time) ([]byte, error) {
	if n < 1 {
		return nil, fmt.Errorf("page count must be positive, got %d", n)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %vx%v", size.Width, size.Height)
	}
	w := writer.NewPdfFileWriter("1.7")
	if !created.IsZero() {
		w.SetCreationDate(created)
	}
	box := &generic.Rectangle{URX: size.Width, URY: size.Height}
	for i := 0; i < n; i++ {
		w.AddPage(box, nil)
	}
	return w.Bytes()
}

func (r *runner) blank(c *cli.Context) error {
	size, ok := layout.LookupPageSize(c.String("size"))
	if !ok {
		return fmt.Errorf("unknown page size %q", c.String("size"))
	}
	if c.Bool("landscape") {
		size = size.Landscape()
	}
	if c.IsSet("width") || c.IsSet("height") {
		unit, err := layout.ParseUnit(c.String("unit"))
		if err != nil {
			return err
		}
		size = layout.PageSize{
			Width:  layout.ToPoints(c.Float64("width"), unit),
			Height: layout.ToPoints(c.Float64("height"), unit),
		}
	}

	var created time.Time
	if ts := c.Timestamp("created"); ts != nil {
		created = *ts
	}
	data, err := BlankPDF(c.Int("pages"), size, created)
	if err != nil {
		return err
	}
	if err := r.storage.Write(c.Context, c.String("out"), data); err != nil {
		return err
	}
	r.logger.Info("blank document written", "pages", c.Int("pages"), "width", size.Width, "height", size.Height, "out", c.String("out"))
	return nil
}
