// Package export renders attendee rosters as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the workbooks produced by WriteAttendees.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Asistentes"

var header = []any{"Documento", "Nombre", "Rol", "Correo", "Confirmado"}

// AttendeeRow is one line of the attendee spreadsheet.
type AttendeeRow struct {
	DocumentID  string
	Name        string
	Role        string
	Email       string
	ConfirmedAt string
}

// Roster describes the meeting heading the sheet and its attendees.
type Roster struct {
	Title string
	Date  string
	Rows  []AttendeeRow
}

// WriteAttendees writes roster as an xlsx workbook to w.
func WriteAttendees(w io.Writer, roster Roster) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	if err = f.SetCellValue(sheetName, "A1", roster.Title); err != nil {
		return fmt.Errorf("export: title: %w", err)
	}
	if err = f.SetCellValue(sheetName, "A2", roster.Date); err != nil {
		return fmt.Errorf("export: date: %w", err)
	}

	headerRow := 4
	if err = f.SetSheetRow(sheetName, cell(1, headerRow), &header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	if err = f.SetCellStyle(sheetName, "A1", "A1", bold); err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	if err = f.SetCellStyle(sheetName, cell(1, headerRow), cell(len(header), headerRow), bold); err != nil {
		return fmt.Errorf("export: style: %w", err)
	}

	for i, row := range roster.Rows {
		values := []any{row.DocumentID, row.Name, row.Role, row.Email, row.ConfirmedAt}
		if err = f.SetSheetRow(sheetName, cell(1, headerRow+1+i), &values); err != nil {
			return fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}

	if err = f.SetColWidth(sheetName, "A", "E", 22); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
