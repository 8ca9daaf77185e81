package rowstore

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore talks to one Google Sheets document. Each logical table is a
// sheet whose first row is the header row.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsStore(ctx context.Context, spreadsheetID, credentialsFile string) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets client")
	}

	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func unavailable(op string, err error) error {
	return errors.Wrapf(ErrUnavailable, "%s: %v", op, err)
}

// EnsureTables creates any missing sheet and stamps its header row.
func (s *SheetsStore) EnsureTables(ctx context.Context) error {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return unavailable("get spreadsheet", err)
	}

	existing := make(map[string]bool, len(doc.Sheets))
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	var requests []*sheets.Request
	var missing []string
	for _, table := range Tables() {
		if existing[table] {
			continue
		}
		missing = append(missing, table)
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: table},
			},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return unavailable("add sheets", err)
	}

	for _, table := range missing {
		header := make([]interface{}, 0, len(Headers(table)))
		for _, col := range Headers(table) {
			header = append(header, col)
		}
		_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, table+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{header},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return unavailable(fmt.Sprintf("write header %s", table), err)
		}
	}
	return nil
}

// readAll returns the header row and data rows of a sheet.
func (s *SheetsStore) readAll(ctx context.Context, table string) ([]string, []Row, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table).Context(ctx).Do()
	if err != nil {
		return nil, nil, unavailable(fmt.Sprintf("read %s", table), err)
	}
	if len(resp.Values) == 0 {
		return Headers(table), nil, nil
	}

	header := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		header = append(header, fmt.Sprint(cell))
	}

	rows := make([]Row, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = fmt.Sprint(raw[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func (s *SheetsStore) Rows(ctx context.Context, table string) ([]Row, error) {
	_, rows, err := s.readAll(ctx, table)
	return rows, err
}

func (s *SheetsStore) Append(ctx context.Context, table string, row Row) error {
	cells := orderCells(Headers(table), row)
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, table+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return unavailable(fmt.Sprintf("append %s", table), err)
	}
	return nil
}

// Update is the read-find-mutate-write-back cycle. The write covers the whole
// row: a concurrent writer's change to the same row is silently lost, which is
// why callers keep their mutations idempotent.
func (s *SheetsStore) Update(ctx context.Context, table, keyColumn, keyValue string, mutate func(Row) (Row, error)) error {
	header, rows, err := s.readAll(ctx, table)
	if err != nil {
		return err
	}

	for i, row := range rows {
		if row[keyColumn] != keyValue {
			continue
		}
		updated, err := mutate(row.Clone())
		if err != nil {
			return err
		}
		cells := orderCells(header, updated)
		// Data rows start at sheet row 2, below the header.
		target := fmt.Sprintf("%s!A%d", table, i+2)
		_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, target, &sheets.ValueRange{
			Values: [][]interface{}{cells},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return unavailable(fmt.Sprintf("update %s", table), err)
		}
		return nil
	}
	return errors.Wrapf(ErrRowNotFound, "%s %s=%s", table, keyColumn, keyValue)
}

func orderCells(header []string, row Row) []interface{} {
	cells := make([]interface{}, len(header))
	for i, col := range header {
		cells[i] = row[col]
	}
	return cells
}
