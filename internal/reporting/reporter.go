// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Reporter defines the interface for writing geometry reports to an output.
type Reporter interface {
	// Write records the report of a single document.
	Write(report *Report) error
	// Close finalizes the output and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// NopCloser returns a WriteCloser whose Close leaves w open.
func NopCloser(w io.Writer) io.WriteCloser {
	return &nopWriteCloser{w}
}

// New creates a new reporter based on the specified format and output path.
func New(format, outputPath string) (Reporter, error) {
	switch strings.ToLower(format) {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = NopCloser(os.Stdout)
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewWithWriter(format, writer)
}

// NewWithWriter creates a reporter that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser) (Reporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONReporter(writer), nil
	case "text":
		return NewTextReporter(writer), nil
	}
	writer.Close()
	return nil, fmt.Errorf("unsupported output format: %s", format)
}
