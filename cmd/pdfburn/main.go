// Command pdfburn fills text, dates, images and marks into PDF pages.
//
// Usage:
//
//	pdfburn [--config pdfburn.yaml] <command> [options] <args>
//
// Commands:
//
//	burn     Fill a JSON or YAML field list into a PDF
//	hash     Print the fingerprint of a file
//	verify   Check a file against a recorded fingerprint
//	inspect  Print page count and page sizes
//	blank    Write an empty multi-page PDF
//	version  Show version information
//
// Examples:
//
//	# Fill a form and keep a receipt
//	pdfburn burn --in form.pdf --fields fields.json --out signed.pdf --receipt receipt.json
//
//	# Check the result later
//	pdfburn verify --receipt receipt.json signed.pdf
package main

import (
	"os"

	"github.com/georgepadayatti/pdfburn/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/pdfburn
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	os.Exit(cli.Run(os.Args))
}
