// Package google exports payoff schedules to Google Sheets using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"debtplan/internal/sheets"
	"debtplan/internal/simulation"
)

// Client writes the simulated schedule to one sheet of a spreadsheet.
// Every export replaces the sheet's contents.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	scheduleSheet string
}

var _ sheets.ScheduleExporter = (*Client)(nil)

// NewFromEnv builds a client from environment variables.
// GOOGLE_SPREADSHEET_ID is required; GOOGLE_SCHEDULE_SHEET names the
// target sheet and defaults to "Schedule".
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	scheduleSheet := os.Getenv("GOOGLE_SCHEDULE_SHEET")
	if scheduleSheet == "" {
		scheduleSheet = "Schedule"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		scheduleSheet: scheduleSheet,
	}, nil
}

// newSheetsService resolves service account credentials from the
// environment: GOOGLE_SERVICE_ACCOUNT_JSON (inline JSON), then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	var credentialsJSON []byte

	if inline := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"); inline != "" {
		credentialsJSON = []byte(inline)
	} else if path := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	} else if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read application credentials: %w", err)
		}
		credentialsJSON = data
	} else {
		return nil, errors.New("no Google service account credentials configured")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}
	return svc, nil
}

// ExportSchedule clears the schedule sheet and rewrites it from the
// result: a header, one row per month, and a totals row.
func (c *Client) ExportSchedule(ctx context.Context, result *simulation.Result) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := sheets.ScheduleRows(result)

	// Clearing the whole sheet by name keeps stale rows from previous,
	// longer schedules out of the export.
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.scheduleSheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("clear schedule sheet: %w", err)
	}

	writeRange := fmt.Sprintf("%s!A1", c.scheduleSheet)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}

	slog.InfoContext(ctx, "Schedule exported",
		"sheet", c.scheduleSheet,
		"months", len(result.Months),
		"debts", len(result.Debts))
	return nil
}
