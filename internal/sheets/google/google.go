package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	ports "billing/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors tables into tabs of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu    sync.Mutex
	known map[string]bool
}

var _ ports.Mirror = (*Client)(nil)

// Credentials names a service account key. JSON wins over File;
// ApplicationDefault is read only when both are empty.
type Credentials struct {
	JSON               string
	File               string
	ApplicationDefault string
}

// NewFromConfig creates a Sheets client for spreadsheetID authenticated
// with the given service account.
func NewFromConfig(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	credentialsJSON, err := serviceAccountCredentials(ctx, creds)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return New(svc, spreadsheetID), nil
}

// New wraps an existing service. Tests point svc at a local endpoint.
func New(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, known: map[string]bool{}}
}

func serviceAccountCredentials(ctx context.Context, creds Credentials) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(creds.JSON)
	serviceAccountFile := strings.TrimSpace(creds.File)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(creds.ApplicationDefault)
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ReplaceTable writes header and rows from A1, then clears whatever an
// earlier, larger table left below or to the right. The tab is never
// empty in between. Cells are written RAW so serials and phone numbers
// stay text.
func (c *Client) ReplaceTable(ctx context.Context, tab string, header []string, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, toCells(header))
	width := len(header)
	for _, r := range rows {
		values = append(values, toCells(r))
		width = max(width, len(r))
	}

	rng := quoteTab(tab)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", tab, err)
	}

	stale := &gsheet.BatchClearValuesRequest{Ranges: staleRanges(tab, len(values), width)}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, stale).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear stale cells in %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Sheet replaced", "sheet", tab, "rows", len(rows))
	return nil
}

// staleRanges covers the rows below and the columns right of a table of
// height rows and width columns anchored at A1.
func staleRanges(tab string, height, width int) []string {
	rng := quoteTab(tab)
	return []string{
		fmt.Sprintf("%s!A%d:%s", rng, height+1, lastColumn),
		fmt.Sprintf("%s!%s1:%s", rng, columnName(width+1), lastColumn),
	}
}

// lastColumn is the highest column Sheets accepts.
const lastColumn = "ZZZ"

// columnName converts a 1-based column index to its letters (1 is A, 27 is AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// ReadTable returns every row of tab, header included. The API drops
// trailing empty cells, so rows may be shorter than the header.
func (c *Client) ReadTable(ctx context.Context, tab string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if err := c.ensureTab(ctx, tab); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteTab(tab)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", tab, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		out = append(out, toStrings(row))
	}
	return out, nil
}

// ensureTab adds tab to the spreadsheet the first time it is written.
func (c *Client) ensureTab(ctx context.Context, tab string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known[tab] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.known[sh.Properties.Title] = true
		}
	}
	if c.known[tab] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Sheet created", "sheet", tab)
	c.known[tab] = true
	return nil
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}
