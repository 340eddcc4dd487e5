package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kiteforlife/kitegrade/internal/domain/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseCSV skips the boilerplate lines, reads the header record and the data
// records after it. A record wider than the header is malformed unless the
// extra cells are empty.
func (l *Loader) parseCSV(data []byte) (*model.RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not UTF-8 text", ErrParse)
	}
	rest := skipLines(data, l.skipRows)

	r := csv.NewReader(bytes.NewReader(rest))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(rest)

	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var body [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if len(rec) > len(head) && !blank(rec[len(head):]) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrParse, line+l.skipRows, len(rec), len(head))
		}
		body = append(body, rec)
	}
	return build(head, body), nil
}

// skipLines drops the first n physical lines.
func skipLines(data []byte, n int) []byte {
	for ; n > 0 && len(data) > 0; n-- {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}
		data = data[i+1:]
	}
	return data
}

// sniffDelimiter picks ';' or tab when the first non-blank line has no comma
// but does have one of those. European spreadsheet exports use ';'.
func sniffDelimiter(data []byte) rune {
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		switch {
		case bytes.ContainsRune(line, ','):
			return ','
		case bytes.ContainsRune(line, ';'):
			return ';'
		case bytes.ContainsRune(line, '\t'):
			return '\t'
		}
		return ','
	}
	return ','
}
