package infrastructure

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"metagraphOps/internal/modules/snapshots/domain"
)

func sampleReport() domain.Report {
	return domain.Report{
		From: 1,
		To:   2,
		Results: []domain.BlocksResult{
			{SnapshotID: 1, Blocks: []any{map[string]any{"Sale": map[string]any{"payment": "Cash & Card"}}}},
			{SnapshotID: 2},
		},
	}
}

func TestReportWriterFormat(t *testing.T) {
	var out bytes.Buffer
	if err := NewReportWriter(&out).Write(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := out.String()
	if !strings.HasPrefix(text, reportHeading) {
		t.Fatalf("missing heading: %s", text)
	}
	if !strings.Contains(text, `"payment": "Cash & Card"`) {
		t.Fatalf("expected unescaped ampersand: %s", text)
	}
	if strings.Contains(text, `"snapshotId": 2,`) {
		t.Fatalf("blocks should be omitted for snapshot 2: %s", text)
	}

	var results []domain.BlocksResult
	if err := json.Unmarshal([]byte(strings.TrimPrefix(text, reportHeading)), &results); err != nil {
		t.Fatalf("report body is not JSON: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("unexpected result count: %d", len(results))
	}
}

func TestReportWriterEmptyReport(t *testing.T) {
	var out bytes.Buffer
	if err := NewReportWriter(&out).Write(domain.Report{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != reportHeading+"[]\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestWriteReportFileGzip(t *testing.T) {
	dir := t.TempDir()
	plainPath := filepath.Join(dir, "report.json")
	gzPath := filepath.Join(dir, "report.json.gz")

	if err := WriteReportFile(plainPath, sampleReport()); err != nil {
		t.Fatalf("plain write failed: %v", err)
	}
	if err := WriteReportFile(gzPath, sampleReport()); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}

	plain, err := os.ReadFile(plainPath)
	if err != nil {
		t.Fatalf("read plain: %v", err)
	}
	file, err := os.Open(gzPath)
	if err != nil {
		t.Fatalf("open gzip: %v", err)
	}
	defer file.Close()
	zr, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	unzipped, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip: %v", err)
	}
	if !bytes.Equal(plain, unzipped) {
		t.Fatalf("gzip content differs from plain report")
	}
}
