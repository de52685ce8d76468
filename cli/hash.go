package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/georgepadayatti/pdfburn/burn"
	"github.com/georgepadayatti/pdfburn/integrity"
)

func hashCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "print the fingerprint of a file",
		ArgsUsage: "<path-or-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Usage: "sha256, sha3-256 or blake2b-256 (default from config)"},
		},
		Action: r.hash,
	}
}

func (r *runner) hasher(name string) (*integrity.Hasher, error) {
	if name == "" {
		name = r.cfg.Hash.Algorithm
	}
	alg, err := integrity.ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}
	return integrity.NewHasher(alg)
}

func (r *runner) hash(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	hasher, err := r.hasher(c.String("algorithm"))
	if err != nil {
		return err
	}
	location := c.Args().First()
	data, err := r.storage.Read(c.Context, location)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s  %s\n", hasher.Sum(data), location)
	return nil
}

func verifyCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check a file against a recorded fingerprint",
		ArgsUsage: "<path-or-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "expect", Aliases: []string{"e"}, Usage: "expected digest, hex or algorithm:hex"},
			&cli.StringFlag{Name: "receipt", Usage: "receipt written by burn --receipt"},
			&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Usage: "algorithm of a bare hex digest (default from config)"},
		},
		Action: r.verify,
	}
}

func (r *runner) verify(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	want, err := r.expected(c)
	if err != nil {
		return err
	}
	hasher, err := integrity.NewHasher(want.Algorithm)
	if err != nil {
		return err
	}
	location := c.Args().First()
	data, err := r.storage.Read(c.Context, location)
	if err != nil {
		return err
	}

	got := hasher.Sum(data)
	if !got.Equal(want) {
		fmt.Fprintf(c.App.Writer, "%s: MISMATCH\n  expected %s\n  actual   %s\n", location, want, got)
		return cli.Exit("fingerprint mismatch", 1)
	}
	fmt.Fprintf(c.App.Writer, "%s: OK (%s)\n", location, got)
	return nil
}

// expected resolves the fingerprint to check against from --expect or
// --receipt.
func (r *runner) expected(c *cli.Context) (integrity.Fingerprint, error) {
	expect, receiptPath := c.String("expect"), c.String("receipt")
	switch {
	case expect != "" && receiptPath != "":
		return integrity.Fingerprint{}, errors.New("use either --expect or --receipt")
	case expect != "":
		name := c.String("algorithm")
		if name == "" {
			name = r.cfg.Hash.Algorithm
		}
		alg, err := integrity.ParseAlgorithm(name)
		if err != nil {
			return integrity.Fingerprint{}, err
		}
		return integrity.ParseFingerprint(expect, alg)
	case receiptPath != "":
		raw, err := r.storage.Read(c.Context, receiptPath)
		if err != nil {
			return integrity.Fingerprint{}, err
		}
		var receipt burn.Receipt
		if err := json.Unmarshal(raw, &receipt); err != nil {
			return integrity.Fingerprint{}, fmt.Errorf("failed to parse receipt: %w", err)
		}
		return integrity.ParseFingerprint(receipt.FinalHash, receipt.HashAlgorithm)
	}
	return integrity.Fingerprint{}, errors.New("one of --expect or --receipt is required")
}
