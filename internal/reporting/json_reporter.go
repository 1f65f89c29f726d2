// internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sort"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/observability"
)

// JSONReporter buffers reports and writes them as one JSON document on
// Close, ordered by document name. It is thread safe.
type JSONReporter struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	mu      sync.Mutex
	reports []*Report
}

type jsonOutput struct {
	Documents []*Report `json:"documents"`
}

func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{
		writer:  writer,
		logger:  observability.Component("json_reporter"),
		reports: []*Report{},
	}
}

func (r *JSONReporter) Write(report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

// Close encodes the buffered reports and closes the writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sort.SliceStable(r.reports, func(i, j int) bool {
		return r.reports[i].Document < r.reports[j].Document
	})

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	encodeErr := encoder.Encode(jsonOutput{Documents: r.reports})
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode geometry report", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode JSON output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Debug("Wrote geometry report", zap.Int("documents", len(r.reports)))
	return nil
}
