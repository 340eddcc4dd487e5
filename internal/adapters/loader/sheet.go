package loader

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/kiteforlife/kitegrade/internal/domain/model"
)

// parseXLSX reads the first sheet of an OOXML workbook (.xlsx or .xlsm).
func (l *Loader) parseXLSX(data []byte) (*model.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return l.sheetTable(rows), nil
}

// parseXLS reads the first sheet of a legacy BIFF workbook. The BIFF reader
// panics on some corrupt files; that is reported as a parse failure.
func (l *Loader) parseXLS(data []byte) (t *model.RawTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("%w: corrupt workbook: %v", ErrParse, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: first sheet unreadable", ErrParse)
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return l.sheetTable(rows), nil
}

// sheetTable applies the skip count to a sheet grid. A sheet too short to
// have a header row yields an empty table rather than an error.
func (l *Loader) sheetTable(rows [][]string) *model.RawTable {
	if len(rows) <= l.skipRows {
		return &model.RawTable{Headers: []string{}, Rows: []map[string]string{}}
	}
	return build(rows[l.skipRows], rows[l.skipRows+1:])
}
