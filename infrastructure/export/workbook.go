// Package export writes prepared records to XLSX workbooks with excelize.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
)

// Sheet names.
const (
	SheetSummary = "Summary"
	SheetRecords = "Records"
)

// ErrWriteFailed wraps any excelize failure.
var ErrWriteFailed = errors.New("workbook write failed")

type settings struct {
	summary *dataset.Summary
}

// Option customizes a workbook.
type Option func(*settings)

// WithSummary adds the generated dataset's summary to the summary sheet.
func WithSummary(s dataset.Summary) Option {
	return func(st *settings) {
		st.summary = &s
	}
}

// roleOrder fixes the order roles are listed in the summary sheet.
var roleOrder = []dataset.Role{
	dataset.RoleX, dataset.RoleY, dataset.RoleGroup,
	dataset.RoleValue, dataset.RoleSize, dataset.RoleColor,
}

// Workbook writes a summary sheet and one row per record to w. Columns
// follow the descriptor's axis order; an axis used twice appears once.
func Workbook(w io.Writer, records []record.Record, ds dataset.Descriptor, options ...Option) error {
	var s settings
	for _, o := range options {
		o(&s)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	idx, err := f.NewSheet(SheetRecords)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := writeSummary(f, ds, len(records), s.summary, bold); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := writeRecords(f, records, columns(ds), bold); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	f.SetActiveSheet(idx)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// columns returns the distinct axis names in descriptor order.
func columns(ds dataset.Descriptor) []string {
	seen := make(map[string]bool, len(ds.Axes))
	var out []string
	for _, ax := range ds.Axes {
		if seen[ax.Name] {
			continue
		}
		seen[ax.Name] = true
		out = append(out, ax.Name)
	}
	return out
}

func writeSummary(f *excelize.File, ds dataset.Descriptor, kept int, summary *dataset.Summary, bold int) error {
	rows := [][]interface{}{
		{"Title", ds.Title},
		{"Dimension", ds.Dimension},
		{"Records", kept},
	}
	if summary != nil {
		rows = append(rows,
			[]interface{}{"Generated points", summary.Points},
			[]interface{}{"Value type", string(summary.ValueType)},
		)
		axes := []interface{}{"Available axes"}
		for _, name := range summary.Axes {
			axes = append(axes, name)
		}
		rows = append(rows, axes)
	}
	for _, role := range roleOrder {
		ax, ok := ds.Roles[role]
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{"Role " + string(role), ax.Name, string(ax.Kind)})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(SheetSummary, "A", bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 18)
}

func writeRecords(f *excelize.File, records []record.Record, cols []string, bold int) error {
	header := []interface{}{"index", "sample"}
	for _, c := range cols {
		header = append(header, c)
	}
	if err := f.SetSheetRow(SheetRecords, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetRecords, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range records {
		row := []interface{}{r.Index, r.Source.String()}
		for _, c := range cols {
			field, ok := r.Get(c)
			switch {
			case !ok:
				row = append(row, nil)
			case field.Numeric:
				row = append(row, field.Num)
			default:
				row = append(row, field.Text)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetRecords, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
