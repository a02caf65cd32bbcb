// Package memory provides an in-memory ScheduleExporter for tests and
// for running the worker without Google credentials.
package memory

import (
	"context"
	"sync"

	"debtplan/internal/sheets"
	"debtplan/internal/simulation"
)

// Exporter records exported schedules instead of writing them anywhere.
type Exporter struct {
	mu      sync.Mutex
	exports int
	last    [][]any
}

var _ sheets.ScheduleExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// ExportSchedule keeps the flattened rows of the latest export.
func (e *Exporter) ExportSchedule(_ context.Context, result *simulation.Result) error {
	rows := sheets.ScheduleRows(result)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports++
	e.last = rows
	return nil
}

// Exports reports how many schedules have been exported.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}

// LastRows returns the rows of the most recent export, or nil if
// nothing was exported yet.
func (e *Exporter) LastRows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}
