// Package memory is an in-process ActivityWriter used by tests and by the
// worker when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"horas/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows []sheets.ActivityRow
}

var _ sheets.ActivityWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// Append records the row and returns a 1-based row reference.
func (w *Writer) Append(_ context.Context, row sheets.ActivityRow) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, row)
	return fmt.Sprintf("row-%d", len(w.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []sheets.ActivityRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sheets.ActivityRow, len(w.rows))
	copy(out, w.rows)
	return out
}
