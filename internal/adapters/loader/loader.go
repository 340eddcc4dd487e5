// Package loader parses uploaded spreadsheets and delimited text into raw tables.
package loader

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/pkg/logger"
)

// DefaultSkipRows is the number of boilerplate rows above the header in the
// school's grading sheet.
const DefaultSkipRows = 11

// unnamedPrefix marks placeholder labels that spreadsheet exports write for
// blank header cells.
const unnamedPrefix = "Unnamed"

type format int

const (
	formatCSV format = iota
	formatXLSX
	formatXLS
)

// Loader turns a Source into a RawTable.
type Loader struct {
	skipRows int
	logger   logger.Logger
}

// New creates a Loader with the default skip count.
func New(opts ...Option) *Loader {
	l := &Loader{skipRows: DefaultSkipRows}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SkipRows returns the configured number of boilerplate rows.
func (l *Loader) SkipRows() int { return l.skipRows }

// Load reads src and parses it by extension: .xlsx and .xlsm through
// excelize, .xls through the BIFF reader, anything else as delimited text.
// Only the first sheet of a workbook is read. Every failure is a *LoadError.
func (l *Loader) Load(ctx context.Context, src Source) (*model.RawTable, error) {
	if src == nil {
		return nil, newLoadError("", ErrUnreadable, nil)
	}
	name := src.Name()
	if err := ctx.Err(); err != nil {
		return nil, newLoadError(name, ErrUnreadable, err)
	}
	data, err := src.Read()
	if err != nil {
		return nil, newLoadError(name, ErrUnreadable, err)
	}

	var t *model.RawTable
	switch formatOf(name) {
	case formatXLSX:
		t, err = l.parseXLSX(data)
	case formatXLS:
		t, err = l.parseXLS(data)
	default:
		t, err = l.parseCSV(data)
	}
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	if l.logger != nil {
		l.logger.Debug(ctx, "table loaded",
			logger.String("source", name),
			logger.Int("columns", len(t.Headers)),
			logger.Int("rows", len(t.Rows)),
		)
	}
	return t, nil
}

func formatOf(name string) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".xls":
		return formatXLS
	default:
		return formatCSV
	}
}

// build turns a header row and data rows into a RawTable. Cells beyond the
// header width are ignored, missing cells read as "", and rows with no text
// at all are dropped.
func build(head []string, body [][]string) *model.RawTable {
	labels := dedupe(head)
	keep := make([]int, 0, len(labels))
	t := &model.RawTable{Headers: make([]string, 0, len(labels)), Rows: []map[string]string{}}
	for i, h := range labels {
		if isPlaceholder(h) {
			continue
		}
		keep = append(keep, i)
		t.Headers = append(t.Headers, h)
	}

	for _, rec := range body {
		if blank(rec) {
			continue
		}
		row := make(map[string]string, len(keep))
		for _, i := range keep {
			if i < len(rec) {
				row[labels[i]] = rec[i]
			} else {
				row[labels[i]] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// dedupe suffixes repeated labels with ".1", ".2" ... in column order.
// Blank labels are left blank so they can be dropped.
func dedupe(head []string) []string {
	out := make([]string, len(head))
	used := make(map[string]bool, len(head))
	suffix := make(map[string]int)
	for i, h := range head {
		if strings.TrimSpace(h) == "" {
			continue
		}
		label := h
		for n := suffix[h]; used[label]; {
			n++
			label = h + "." + strconv.Itoa(n)
			suffix[h] = n
		}
		used[label] = true
		out[i] = label
	}
	return out
}

func isPlaceholder(h string) bool {
	return strings.TrimSpace(h) == "" || strings.HasPrefix(h, unnamedPrefix)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
