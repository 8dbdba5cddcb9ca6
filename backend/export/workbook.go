// Package export writes the dashboard analytics to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"shelfcontrol/backend/services"
)

const (
	SheetActivityTypes = "Activity Types"
	SheetSearches      = "Searches"
	SheetStatuses      = "Deadline Status"
	SheetProgress      = "Progress"
)

var sheetOrder = []string{SheetActivityTypes, SheetSearches, SheetStatuses, SheetProgress}

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds one sheet per dashboard section.
func Workbook(d services.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetList()[0], SheetActivityTypes)
	for _, name := range []string{SheetSearches, SheetStatuses, SheetProgress} {
		f.NewSheet(name)
	}
	if sheets := f.GetSheetList(); !slices.Equal(sheets, sheetOrder) {
		f.Close()
		return nil, fmt.Errorf("unexpected sheets %v", sheets)
	}

	w := sheetWriter{f: f}
	w.activityTypes(d)
	w.searches(d)
	w.statuses(d)
	w.progress(d)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// Write streams the workbook to out.
func Write(out io.Writer, d services.Dashboard) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the section writers stay linear.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, row int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
}

func (w *sheetWriter) activityTypes(d services.Dashboard) {
	w.row(SheetActivityTypes, 1, "Activity Type", "Count")
	for i, a := range d.ActivityTypes {
		w.row(SheetActivityTypes, i+2, a.ActivityType, a.Count)
	}
}

func (w *sheetWriter) searches(d services.Dashboard) {
	w.row(SheetSearches, 1, "Total Searches", d.Searches.TotalSearches)
	w.row(SheetSearches, 3, "Query", "Count")
	row := 4
	for _, q := range d.Searches.PopularQueries {
		w.row(SheetSearches, row, q.Query, q.Count)
		row++
	}

	row++
	w.row(SheetSearches, row, "Date", "Searches")
	for _, s := range d.Searches.SearchesByDate {
		row++
		w.row(SheetSearches, row, s.Date, s.Count)
	}
}

func (w *sheetWriter) statuses(d services.Dashboard) {
	w.row(SheetStatuses, 1, "Status", "Count")
	for i, s := range d.Statuses {
		w.row(SheetStatuses, i+2, s.Status, s.Count)
	}
}

func (w *sheetWriter) progress(d services.Dashboard) {
	header := []interface{}{"Date"}
	for _, ds := range d.Progress.Datasets {
		header = append(header, ds.Label)
	}
	w.row(SheetProgress, 1, header...)

	for i, date := range d.Progress.Dates {
		values := []interface{}{date}
		for _, ds := range d.Progress.Datasets {
			values = append(values, ds.Data[i])
		}
		w.row(SheetProgress, i+2, values...)
	}
}
