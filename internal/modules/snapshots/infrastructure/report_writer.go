package infrastructure

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"metagraphOps/internal/modules/snapshots/domain"
)

const reportHeading = "All Blocks Data: "

// ReportWriter renders the aggregated blocks as indented JSON.
type ReportWriter struct {
	out io.Writer
}

func NewReportWriter(out io.Writer) *ReportWriter {
	if out == nil {
		out = os.Stdout
	}
	return &ReportWriter{out: out}
}

// Write prints the heading followed by the full results list.
func (w *ReportWriter) Write(report domain.Report) error {
	results := report.Results
	if results == nil {
		results = []domain.BlocksResult{}
	}

	buffered := bufio.NewWriter(w.out)
	if _, err := io.WriteString(buffered, reportHeading); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	encoder := json.NewEncoder(buffered)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return buffered.Flush()
}

// WriteReportFile writes report to path, gzip-compressed when path ends in .gz.
func WriteReportFile(path string, report domain.Report) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close report file: %w", closeErr)
		}
	}()

	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return NewReportWriter(file).Write(report)
	}

	zw := gzip.NewWriter(file)
	if err := NewReportWriter(zw).Write(report); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close gzip stream: %w", err)
	}
	return nil
}
