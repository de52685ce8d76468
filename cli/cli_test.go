package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/georgepadayatti/pdfburn/burn"
	"github.com/georgepadayatti/pdfburn/field"
	"github.com/georgepadayatti/pdfburn/integrity"
	"github.com/georgepadayatti/pdfburn/pdf/layout"
)

// runApp runs the CLI with captured output and returns stdout, stderr and
// the exit code.
func runApp(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"pdfburn"}, args...))
	return stdout.String(), stderr.String(), ExitCode(err)
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, code := runApp(t, args...)
	if code != 0 {
		t.Fatalf("pdfburn %s exited %d\nstdout: %s\nstderr: %s", strings.Join(args, " "), code, stdout, stderr)
	}
	return stdout
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBlankAndInspect(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "blank.pdf")
	mustRun(t, "blank", "--pages", "3", "--size", "letter", "--out", out)

	var got Inspection
	if err := json.Unmarshal([]byte(mustRun(t, "inspect", out)), &got); err != nil {
		t.Fatalf("Failed to parse inspect output: %v", err)
	}
	if got.Pages != 3 || len(got.PageSizes) != 3 {
		t.Fatalf("Inspection = %+v", got)
	}
	for _, p := range got.PageSizes {
		if p.Width != 612 || p.Height != 792 || p.Text != nil {
			t.Errorf("Page %d = %+v", p.Page, p)
		}
	}
}

func TestBlankCustomSize(t *testing.T) {
	out := filepath.Join(t.TempDir(), "custom.pdf")
	mustRun(t, "blank", "--width", "2", "--height", "3", "--unit", "in", "--out", out)

	var got Inspection
	if err := json.Unmarshal([]byte(mustRun(t, "inspect", "--text", out)), &got); err != nil {
		t.Fatalf("Failed to parse inspect output: %v", err)
	}
	if got.Pages != 1 || got.PageSizes[0].Width != 144 || got.PageSizes[0].Height != 216 {
		t.Errorf("Inspection = %+v", got)
	}
}

func TestBlankCreationDate(t *testing.T) {
	plain, err := BlankPDF(1, layout.A5, time.Time{})
	if err != nil {
		t.Fatalf("BlankPDF: %v", err)
	}
	if bytes.Contains(plain, []byte("/CreationDate")) {
		t.Error("A zero time should not record a creation date")
	}
	again, _ := BlankPDF(1, layout.A5, time.Time{})
	if !bytes.Equal(plain, again) {
		t.Error("BlankPDF is not reproducible")
	}

	dated, err := BlankPDF(1, layout.A5, time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BlankPDF: %v", err)
	}
	if !bytes.Contains(dated, []byte("/CreationDate (D:20240305103000+00'00')")) {
		t.Error("Creation date not recorded")
	}

	out := filepath.Join(t.TempDir(), "dated.pdf")
	mustRun(t, "blank", "--created", "2024-03-05T10:30:00Z", "--out", out)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("/CreationDate (D:20240305103000")) {
		t.Error("--created was not recorded")
	}
}

func TestBlankPDFErrors(t *testing.T) {
	if _, err := BlankPDF(0, layout.A4, time.Time{}); err == nil {
		t.Error("Expected an error for zero pages")
	}
	if _, err := BlankPDF(1, layout.PageSize{Width: 100}, time.Time{}); err == nil {
		t.Error("Expected an error for a zero height")
	}
	if _, _, code := runApp(t, "blank", "--size", "b7", "--out", filepath.Join(t.TempDir(), "x.pdf")); code != 1 {
		t.Errorf("Unknown size exited %d, want 1", code)
	}
}

func TestBurnVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	receipt := filepath.Join(dir, "receipt.json")
	mustRun(t, "blank", "--pages", "2", "--out", in)
	fields := writeFile(t, dir, "fields.json", `[
		{"id": "name", "type": "text", "page": 1, "x": 10, "y": 10, "width": 30, "height": 5, "value": "Ada"},
		{"id": "agree", "type": "radio", "page": 2, "x": 10, "y": 20, "width": 5, "height": 5, "value": true},
		{"id": "late", "type": "text", "page": 9, "x": 0, "y": 0, "width": 5, "height": 5, "value": "x"}
	]`)

	var summary BurnSummary
	if err := json.Unmarshal([]byte(mustRun(t, "burn", "--in", in, "--fields", fields, "--out", out, "--receipt", receipt)), &summary); err != nil {
		t.Fatalf("Failed to parse burn summary: %v", err)
	}
	if summary.Fields != 3 || summary.Drawn != 2 || summary.Skipped != 1 || len(summary.Diagnostics) != 0 {
		t.Errorf("Summary = %+v", summary)
	}
	if summary.HashAlgorithm != "sha256" || summary.OriginalHash == summary.FinalHash {
		t.Errorf("Hashes = %s %s %s", summary.HashAlgorithm, summary.OriginalHash, summary.FinalHash)
	}

	raw, err := os.ReadFile(receipt)
	if err != nil {
		t.Fatalf("Receipt not written: %v", err)
	}
	var rc burn.Receipt
	if err := json.Unmarshal(raw, &rc); err != nil {
		t.Fatalf("Failed to parse receipt: %v", err)
	}
	if rc.Status != burn.StatusSigned || rc.FinalHash != summary.FinalHash || rc.History[0].Details != "Signed with 3 fields" {
		t.Errorf("Receipt = %+v", rc)
	}

	if stdout := mustRun(t, "verify", "--receipt", receipt, out); !strings.Contains(stdout, "OK") {
		t.Errorf("verify output = %q", stdout)
	}
	if stdout := mustRun(t, "verify", "--expect", summary.OriginalHash, in); !strings.Contains(stdout, "OK") {
		t.Errorf("verify output = %q", stdout)
	}
	stdout, _, code := runApp(t, "verify", "--expect", summary.OriginalHash, out)
	if code != 1 || !strings.Contains(stdout, "MISMATCH") {
		t.Errorf("verify of a changed file exited %d with %q", code, stdout)
	}
}

func TestBurnYAMLFieldsAndStrict(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	mustRun(t, "blank", "--out", in)
	fields := writeFile(t, dir, "fields.yaml", `
fields:
  - id: photo
    type: image
    page: 1
    x: 10
    y: 10
    width: 20
    height: 20
    value: "data:image/png;base64,AAAA"
  - id: note
    type: text
    page: 1
    x: 10
    y: 50
    width: 50
    height: 5
    value: hello
`)
	out := filepath.Join(dir, "out.pdf")

	stdout := mustRun(t, "burn", "--in", in, "--fields", fields, "--out", out)
	var summary BurnSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("Failed to parse burn summary: %v", err)
	}
	if summary.Drawn != 1 || len(summary.Diagnostics) != 1 || summary.Diagnostics[0].Kind != field.InvalidImage {
		t.Errorf("Summary = %+v", summary)
	}

	if _, _, code := runApp(t, "burn", "--strict", "--in", in, "--fields", fields, "--out", out); code != 3 {
		t.Errorf("--strict with a failed field exited %d, want 3", code)
	}
}

func TestBurnFatalErrors(t *testing.T) {
	dir := t.TempDir()
	notPDF := writeFile(t, dir, "in.pdf", "hello")
	fields := writeFile(t, dir, "fields.json", `[]`)
	out := filepath.Join(dir, "out.pdf")

	if _, _, code := runApp(t, "burn", "--in", notPDF, "--fields", fields, "--out", out); code != 2 {
		t.Errorf("Decode failure exited %d, want 2", code)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("A failed burn must not write output")
	}
	if _, _, code := runApp(t, "burn", "--in", filepath.Join(dir, "missing.pdf"), "--fields", fields, "--out", out); code != 1 {
		t.Errorf("Missing input exited %d, want 1", code)
	}
	if _, _, code := runApp(t, "burn", "--in", notPDF); code != 1 {
		t.Errorf("Missing flags exited %d, want 1", code)
	}
}

func TestHash(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.bin", "abc")

	stdout := mustRun(t, "hash", path)
	want := "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad  " + path + "\n"
	if stdout != want {
		t.Errorf("hash output = %q, want %q", stdout, want)
	}

	stdout = mustRun(t, "hash", "--algorithm", "sha3-256", path)
	if !strings.HasPrefix(stdout, "sha3-256:3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532") {
		t.Errorf("hash output = %q", stdout)
	}

	if _, _, code := runApp(t, "hash"); code != 64 {
		t.Errorf("hash without arguments exited %d, want 64", code)
	}
	if _, _, code := runApp(t, "hash", "--algorithm", "md5", path); code != 1 {
		t.Errorf("Unknown algorithm exited %d, want 1", code)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "pdfburn.yaml", "hash:\n  algorithm: blake2b-256\nlogging:\n  level: debug\n  format: text\n")
	path := writeFile(t, dir, "data.bin", "abc")

	stdout, stderr, code := runApp(t, "--config", cfg, "hash", path)
	if code != 0 {
		t.Fatalf("Exited %d: %s", code, stderr)
	}
	h, _ := integrity.NewHasher(integrity.BLAKE2b256)
	if !strings.HasPrefix(stdout, h.Sum([]byte("abc")).String()) {
		t.Errorf("hash output = %q", stdout)
	}

	bad := writeFile(t, dir, "bad.yaml", "hash:\n  algorithm: md5\n")
	if _, _, code := runApp(t, "--config", bad, "version"); code != 1 {
		t.Errorf("Invalid config exited %d, want 1", code)
	}
	if _, _, code := runApp(t, "--log-format", "xml", "version"); code != 1 {
		t.Errorf("Invalid log format exited %d, want 1", code)
	}
}

func TestLogOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pdfburn.log")
	cfg := writeFile(t, dir, "pdfburn.yaml", "logging:\n  output: "+logPath+"\n")
	mustRun(t, "--config", cfg, "blank", "--out", filepath.Join(dir, "x.pdf"))

	logs, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Log file not written: %v", err)
	}
	if !strings.Contains(string(logs), `"msg":"blank document written"`) {
		t.Errorf("Unexpected log output: %s", logs)
	}
}

func TestVersion(t *testing.T) {
	if stdout := mustRun(t, "version"); !strings.HasPrefix(stdout, "pdfburn version "+Version) {
		t.Errorf("version output = %q", stdout)
	}
}

func TestVerifyNeedsExpectation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.bin", "abc")
	if _, _, code := runApp(t, "verify", path); code != 1 {
		t.Errorf("verify without --expect exited %d, want 1", code)
	}
	if _, _, code := runApp(t, "verify", "--expect", "abcd", path); code != 1 {
		t.Errorf("verify with a short digest exited %d, want 1", code)
	}
}
