package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService mirrors database exports into a Google spreadsheet, one tab
// per export.
type SheetsService struct {
	spreadsheetID string
	conf          *jwt.Config
}

// NewSheetsService configures a service-account-backed Sheets client. Private
// keys arriving through env vars carry literal \n sequences, which are
// rewritten to real newlines here.
func NewSheetsService(spreadsheetID, serviceAccountEmail, privateKey string) *SheetsService {
	if spreadsheetID == "" || serviceAccountEmail == "" || privateKey == "" {
		return &SheetsService{}
	}

	conf := &jwt.Config{
		Email:      serviceAccountEmail,
		PrivateKey: []byte(strings.ReplaceAll(privateKey, `\n`, "\n")),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	return &SheetsService{
		spreadsheetID: spreadsheetID,
		conf:          conf,
	}
}

// Sync replaces the named tab with the given header and rows: the existing
// range is cleared, the header is written at A1 and the data below it.
func (s *SheetsService) Sync(ctx context.Context, sheetName string, headers []string, rows [][]any) error {
	if s.conf == nil {
		log.Printf("[Google Sheets] not configured, skipping sync of %q", sheetName)
		return nil
	}

	svc, err := sheets.NewService(ctx, option.WithTokenSource(s.conf.TokenSource(ctx)))
	if err != nil {
		return fmt.Errorf("create sheets client: %w", err)
	}

	clearRange := fmt.Sprintf("%s!A1:Z", sheetName)
	if _, err := svc.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", sheetName, err)
	}

	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}

	headerValues := &sheets.ValueRange{Values: [][]any{headerRow}}
	if _, err := svc.Spreadsheets.Values.
		Update(s.spreadsheetID, fmt.Sprintf("%s!A1", sheetName), headerValues).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("write headers to %q: %w", sheetName, err)
	}

	if len(rows) > 0 {
		dataValues := &sheets.ValueRange{Values: rows}
		if _, err := svc.Spreadsheets.Values.
			Update(s.spreadsheetID, fmt.Sprintf("%s!A2", sheetName), dataValues).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do(); err != nil {
			return fmt.Errorf("write rows to %q: %w", sheetName, err)
		}
	}

	log.Printf("[Google Sheets] synced %d rows to %q", len(rows), sheetName)
	return nil
}
