package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

// Format is a download format for the candidate dump
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

const baseName = "Resume_Data_Detailed"

// Row is one exported candidate. Field order is the column order.
type Row struct {
	Name        string `json:"Name"`
	Contact     string `json:"Contact"`
	Email       string `json:"Email"`
	Degree      string `json:"Degree"`
	Department  string `json:"Department"`
	College     string `json:"College"`
	State       string `json:"State"`
	District    string `json:"District"`
	PassedOut   string `json:"Passed Out"`
	FileName    string `json:"File Name"`
	LastUpdated string `json:"Last Updated"`
}

// Headers are the spreadsheet column titles, matching the JSON keys
var Headers = []string{
	"Name", "Contact", "Email", "Degree", "Department",
	"College", "State", "District", "Passed Out", "File Name", "Last Updated",
}

func (r Row) values() []any {
	return []any{
		r.Name, r.Contact, r.Email, r.Degree, r.Department,
		r.College, r.State, r.District, r.PassedOut, r.FileName, r.LastUpdated,
	}
}

// File is a rendered export ready to be sent as an attachment
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Lister returns every stored candidate
type Lister interface {
	List(ctx context.Context) ([]*domain.CandidateRecord, error)
}

// Exporter renders the whole candidate store
type Exporter struct {
	candidates Lister
	log        *logger.Logger
}

// NewExporter creates an exporter over the given candidate source
func NewExporter(candidates Lister, log *logger.Logger) *Exporter {
	return &Exporter{candidates: candidates, log: log.WithComponent("export")}
}

// Export renders every stored candidate in the requested format
func (e *Exporter) Export(ctx context.Context, format Format) (*File, error) {
	start := time.Now()

	candidates, err := e.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	rows := Rows(candidates)

	var file *File
	switch format {
	case FormatJSON:
		data, err := JSON(rows)
		if err != nil {
			return nil, err
		}
		file = &File{Name: baseName + ".json", ContentType: "application/json", Data: data}
	case FormatXLSX:
		data, err := XLSX(rows)
		if err != nil {
			return nil, err
		}
		file = &File{
			Name:        baseName + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}

	e.log.Info().
		Str("format", string(format)).
		Int("rows", len(rows)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("candidates exported")
	return file, nil
}

// Rows converts stored candidates to export rows
func Rows(candidates []*domain.CandidateRecord) []Row {
	rows := make([]Row, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, Row{
			Name:        c.Name,
			Contact:     c.Phone,
			Email:       c.Email,
			Degree:      c.Degree,
			Department:  c.Department,
			College:     c.College,
			State:       c.State,
			District:    c.District,
			PassedOut:   c.YearPassing,
			FileName:    c.SourceFilename,
			LastUpdated: c.LastUpdated.UTC().Format(time.RFC3339Nano),
		})
	}
	return rows
}

// JSON renders rows as an indented JSON array
func JSON(rows []Row) ([]byte, error) {
	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("json write: %w", err)
	}
	return data, nil
}

// XLSX renders rows as a single-sheet workbook with a header row
func XLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Candidates"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		vals := row.values()
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // name
	_ = f.SetColWidth(sheet, "B", "C", 28) // contact, email
	_ = f.SetColWidth(sheet, "D", "E", 20)
	_ = f.SetColWidth(sheet, "F", "F", 40) // college
	_ = f.SetColWidth(sheet, "G", "I", 16)
	_ = f.SetColWidth(sheet, "J", "J", 32) // file
	_ = f.SetColWidth(sheet, "K", "K", 30)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
