// Package xlsxcatalog loads the registrar's course catalog spreadsheet.
// The first row is a header row; columns are matched by name so the
// registrar can reorder them between semesters.
package xlsxcatalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

type Source struct {
	path  string
	sheet string
}

func New(path, sheet string) *Source {
	return &Source{path: path, sheet: sheet}
}

func (s *Source) LoadCourses(ctx context.Context) ([]domain.CourseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", s.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("catalog sheet %s has no data rows", sheet)
	}

	columns := mapColumns(rows[0])
	var out []domain.CourseRecord
	for i, row := range rows[1:] {
		record := domain.CourseRecord{
			Code:          cell(row, columns["course code"]),
			Name:          cell(row, columns["course name"]),
			Credits:       cell(row, columns["credits"]),
			OfferedTo:     cell(row, columns["offered to"]),
			Instructor:    cell(row, columns["instructor"]),
			Description:   cell(row, columns["description"]),
			Prerequisites: cell(row, columns["prerequisites"]),
			SourceFile:    s.path,
		}
		if record.Code == "" && record.Name == "" {
			continue
		}
		record.CodeNormalized = domain.NormalizeCourseCode(record.Code)
		record.Text = catalogText(record)
		if record.CodeNormalized == "" {
			slog.Warn("catalog_row_missing_code", "row", i+2, "name", record.Name)
		}
		out = append(out, record)
	}

	slog.Info("catalog_loaded", "path", s.path, "sheet", sheet, "count", len(out))
	return out, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key != "" {
			columns[key] = i + 1
		}
	}
	return columns
}

// cell reads a 1-based column index; 0 means the column is absent.
func cell(row []string, column int) string {
	if column <= 0 || column > len(row) {
		return ""
	}
	return strings.TrimSpace(row[column-1])
}

func catalogText(record domain.CourseRecord) string {
	var lines []string
	lines = append(lines, "Course Code: "+record.Code)
	lines = append(lines, "Course Name: "+record.Name)
	if record.Credits != "" {
		lines = append(lines, "Credits: "+record.Credits)
	}
	if record.OfferedTo != "" {
		lines = append(lines, "Offered to: "+record.OfferedTo)
	}
	if record.Instructor != "" {
		lines = append(lines, "Instructor: "+record.Instructor)
	}
	if record.Description != "" {
		lines = append(lines, "Description: "+record.Description)
	}
	if record.Prerequisites != "" {
		lines = append(lines, "Prerequisites: "+record.Prerequisites)
	}
	return strings.Join(lines, "\n")
}
