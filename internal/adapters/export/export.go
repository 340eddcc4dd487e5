// Package export writes grade tables and session evaluations as CSV documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"

	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
	"github.com/kiteforlife/kitegrade/pkg/metrics"
)

// SubmittedAtColumn is the trailing column of a session export.
const SubmittedAtColumn = "submitted_at"

// ContentType is the media type of every document written here.
const ContentType = "text/csv; charset=utf-8"

// SessionFilename is the download name of a session export.
const SessionFilename = "avaliacoes_sessao.csv"

// Evaluation writes a single evaluation: a header row of identifier, rubric
// fields and notes, then one data row.
func Evaluation(w io.Writer, ev model.Evaluation, r *rubric.Rubric) error {
	fields := r.Fields()
	head := append(append([]string{r.Identifier()}, fields...), r.Notes())
	row := append(append([]string{ev.ID}, scoreCells(ev.Scores, fields)...), ev.Notes)
	if err := write(w, head, [][]string{row}); err != nil {
		return err
	}
	metrics.RecordExport("evaluation")
	return nil
}

// Session writes every evaluation in submission order. Columns are the
// identifier, the rubric fields used by any evaluation, then notes and the
// submission time. With no evaluations only the header is written.
func Session(w io.Writer, evs []model.Evaluation, r *rubric.Rubric) error {
	fields := lo.Filter(r.Fields(), func(f string, _ int) bool {
		return lo.SomeBy(evs, func(ev model.Evaluation) bool {
			_, ok := ev.Scores[f]
			return ok
		})
	})
	head := append(append([]string{r.Identifier()}, fields...), r.Notes(), SubmittedAtColumn)
	rows := lo.Map(evs, func(ev model.Evaluation, _ int) []string {
		row := append([]string{ev.ID}, scoreCells(ev.Scores, fields)...)
		return append(row, ev.Notes, ev.SubmittedAt.UTC().Format(time.RFC3339))
	})
	if err := write(w, head, rows); err != nil {
		return err
	}
	metrics.RecordExport("session")
	return nil
}

// Table writes a reconciled table: identifier, rubric fields, aggregate and
// any extra source columns.
func Table(w io.Writer, t *model.ReconciledTable, r *rubric.Rubric) error {
	head := append(append([]string{r.Identifier()}, t.Fields...), r.Aggregate())
	head = append(head, t.Extra...)
	rows := lo.Map(t.Rows, func(row model.Row, _ int) []string {
		out := []string{row.ID}
		for _, f := range t.Fields {
			out = append(out, FormatScore(row.Scores[f]))
		}
		out = append(out, FormatScore(row.Average))
		for _, h := range t.Extra {
			out = append(out, row.Extra[h])
		}
		return out
	})
	if err := write(w, head, rows); err != nil {
		return err
	}
	metrics.RecordExport("table")
	return nil
}

// EvaluationFilename derives the download name of a single evaluation from
// the student identifier; whitespace and path separators become "_".
func EvaluationFilename(id string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, id)
	return "avaliacao_" + safe + ".csv"
}

// FormatScore prints v with the fewest digits that read back exactly.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func scoreCells(scores map[string]int, fields []string) []string {
	return lo.Map(fields, func(f string, _ int) string { return strconv.Itoa(scores[f]) })
}

func write(w io.Writer, head []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
