package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docuflow/docuflow/constants"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "invoice_march.txt", "Total $10.00")
	writeFile(t, dir, "copy_of_invoice.txt", "Total $10.00") // same content, dedup
	writeFile(t, dir, "receipt.txt", "Total $5.00")
	writeFile(t, dir, "notes.docx", "ignored extension")
	writeFile(t, dir, ".hidden.txt", "hidden")

	s := NewScanner(nil)
	docs, results, stats, err := s.ScanDirectory(context.Background(), dir, "", nil, true)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2 after dedup: %+v", len(docs), docs)
	}
	if stats.Matched != 3 {
		t.Fatalf("Matched = %d, want 3", stats.Matched)
	}
	if stats.Deduplicated != 1 {
		t.Fatalf("Deduplicated = %d, want 1", stats.Deduplicated)
	}
	if stats.Failed != 0 {
		t.Fatalf("Failed = %d, want 0", stats.Failed)
	}

	// The duplicate resolves to the first document's id.
	byPath := map[string]FileResult{}
	for _, r := range results {
		byPath[filepath.Base(r.Path)] = r
	}
	first := byPath["copy_of_invoice.txt"]
	second := byPath["invoice_march.txt"]
	if !first.Deduplicated && !second.Deduplicated {
		t.Fatalf("one of the identical files must be deduplicated: %+v", results)
	}
	if first.DocumentID != second.DocumentID {
		t.Fatalf("duplicate ids differ: %s vs %s", first.DocumentID, second.DocumentID)
	}
	if first.HashHex == "" || first.HashHex != second.HashHex {
		t.Fatalf("hashes differ for identical content: %q vs %q", first.HashHex, second.HashHex)
	}
}

func TestScanDirectoryRequiresRoot(t *testing.T) {
	s := NewScanner(nil)
	if _, _, _, err := s.ScanDirectory(context.Background(), "  ", "", nil, false); err == nil {
		t.Fatal("expected an error for a blank root")
	}
}

func TestScanDirectoryDeclaredTypeWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "invoice.txt", "Total $10.00")

	s := NewScanner(nil)
	docs, _, _, err := s.ScanDirectory(context.Background(), dir, constants.Statement, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].DocType != constants.Statement {
		t.Fatalf("docs = %+v, declared type must override inference", docs)
	}
}

func TestScanDirectoryExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text a")
	writeFile(t, dir, "b.pdf", "%PDF fake")

	s := NewScanner(nil)
	docs, _, stats, err := s.ScanDirectory(context.Background(), dir, "", []string{".PDF"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 1 || len(docs) != 1 {
		t.Fatalf("matched = %d docs = %d, want the pdf only", stats.Matched, len(docs))
	}
	if docs[0].FileExt != "pdf" {
		t.Fatalf("ext = %q, want normalized pdf", docs[0].FileExt)
	}
}

func TestInferDocumentType(t *testing.T) {
	tests := []struct {
		path string
		want constants.DocumentType
	}{
		{path: "/in/invoice_2024.pdf", want: constants.Invoice},
		{path: "/in/Receipt-coffee.jpg", want: constants.Receipt},
		{path: "/in/bank_statement_jan.pdf", want: constants.Statement},
		{path: "/in/contract-final.pdf", want: constants.Contract},
		{path: "/in/scan0001.png", want: constants.OtherDoc},
	}
	for _, tt := range tests {
		if got := InferDocumentType(tt.path); got != tt.want {
			t.Fatalf("InferDocumentType(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}
