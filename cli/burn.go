package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/georgepadayatti/pdfburn/burn"
	"github.com/georgepadayatti/pdfburn/field"
)

// BurnSummary is printed after a successful burn.
type BurnSummary struct {
	Output        string            `json:"output"`
	HashAlgorithm string            `json:"hash_algorithm"`
	OriginalHash  string            `json:"original_hash"`
	FinalHash     string            `json:"final_hash"`
	Fields        int               `json:"fields"`
	Drawn         int               `json:"drawn"`
	Skipped       int               `json:"skipped"`
	Diagnostics   []burn.Diagnostic `json:"diagnostics"`
}

func burnCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "burn",
		Usage:     "fill a field list into a PDF",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "input PDF path or URL", Required: true},
			&cli.StringFlag{Name: "fields", Aliases: []string{"f"}, Usage: "JSON or YAML field list path or URL", Required: true},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output PDF path or URL", Required: true},
			&cli.StringFlag{Name: "receipt", Usage: "write a JSON receipt to this path or URL"},
			&cli.BoolFlag{Name: "strict", Usage: "exit non-zero when any field could not be drawn"},
		},
		Action: r.burn,
	}
}

func (r *runner) burn(c *cli.Context) error {
	ctx := c.Context
	data, err := r.storage.Read(ctx, c.String("in"))
	if err != nil {
		return err
	}
	rawFields, err := r.storage.Read(ctx, c.String("fields"))
	if err != nil {
		return err
	}
	placements, err := field.ParsePlacements(rawFields)
	if err != nil {
		return fmt.Errorf("failed to parse fields: %w", err)
	}

	pipeline, err := burn.NewPipelineFromConfig(r.cfg, r.logger)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx, data, placements)
	if err != nil {
		return err
	}

	if err := r.storage.Write(ctx, c.String("out"), res.Output); err != nil {
		return err
	}
	if path := c.String("receipt"); path != "" {
		receipt, err := json.MarshalIndent(res.Receipt(time.Now()), "", "  ")
		if err != nil {
			return err
		}
		if err := r.storage.Write(ctx, path, receipt); err != nil {
			return err
		}
	}

	summary := BurnSummary{
		Output:        c.String("out"),
		HashAlgorithm: string(res.Final.Algorithm),
		OriginalHash:  res.Original.Hex(),
		FinalHash:     res.Final.Hex(),
		Fields:        res.Fields(),
		Drawn:         res.Drawn,
		Skipped:       res.Skipped,
		Diagnostics:   res.Diagnostics,
	}
	if summary.Diagnostics == nil {
		summary.Diagnostics = []burn.Diagnostic{}
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}

	if c.Bool("strict") && len(res.Diagnostics) > 0 {
		return cli.Exit(fmt.Sprintf("%d field(s) could not be drawn", len(res.Diagnostics)), 3)
	}
	return nil
}
