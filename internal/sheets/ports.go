// Package sheets defines the export port for simulated payoff
// schedules and the row layout shared by its implementations.
package sheets

import (
	"context"

	"debtplan/internal/simulation"
)

// ScheduleExporter publishes a simulated payoff schedule to an external
// destination, replacing whatever was exported before.
type ScheduleExporter interface {
	ExportSchedule(ctx context.Context, result *simulation.Result) error
}
