package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"task-dashboard/domain/task"
)

var (
	// ErrLoad is returned when the source cannot be read as a task table.
	ErrLoad = errors.New("failed to load task data")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = fmt.Errorf("%w: missing column", ErrLoad)
)

var knownColumns = []string{
	task.ColDescricao,
	task.ColStatus,
	task.ColResponsavel,
	task.ColPrioridade,
	task.ColDataInicio,
	task.ColDataFimPrevista,
	task.ColDataFimReal,
	task.ColHorasEstimadas,
	task.ColHorasReais,
}

// Parse reads a task table from CSV. The first record is the header. Date and hour
// cells that cannot be parsed become nil; they never fail the load.
func Parse(r io.Reader, layouts []string) (*task.Table, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no columns to parse", ErrLoad)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	columns := canonicalColumns(head)
	idx := indexMap(columns)
	for _, col := range task.RequiredColumns {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingColumn, col)
		}
	}

	tb := &task.Table{Columns: columns}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoad, err)
		}
		tb.Tasks = append(tb.Tasks, parseRow(rec, columns, idx, layouts))
	}
	return tb, nil
}

func parseRow(rec []string, columns []string, idx map[string]int, layouts []string) task.Task {
	cell := func(col string) string {
		i, ok := idx[strings.ToLower(col)]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	t := task.Task{
		Descricao:       normalize(cell(task.ColDescricao)),
		Status:          normalize(cell(task.ColStatus)),
		Responsavel:     normalize(cell(task.ColResponsavel)),
		Prioridade:      normalize(cell(task.ColPrioridade)),
		DataInicio:      parseDate(cell(task.ColDataInicio), layouts),
		DataFimPrevista: parseDate(cell(task.ColDataFimPrevista), layouts),
		DataFimReal:     parseDate(cell(task.ColDataFimReal), layouts),
		HorasEstimadas:  parseHours(cell(task.ColHorasEstimadas)),
		HorasReais:      parseHours(cell(task.ColHorasReais)),
	}
	for i, col := range columns {
		if isKnown(col) {
			continue
		}
		if t.Extra == nil {
			t.Extra = map[string]string{}
		}
		if i < len(rec) {
			t.Extra[col] = rec[i]
		} else {
			t.Extra[col] = ""
		}
	}
	return t
}

// canonicalColumns trims header names and maps known columns to their canonical
// spelling regardless of case.
func canonicalColumns(head []string) []string {
	out := make([]string, len(head))
	for i, h := range head {
		h = norm.NFC.String(strings.TrimSpace(h))
		out[i] = h
		for _, k := range knownColumns {
			if strings.EqualFold(h, k) {
				out[i] = k
				break
			}
		}
	}
	return out
}

func isKnown(col string) bool {
	for _, k := range knownColumns {
		if k == col {
			return true
		}
	}
	return false
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		m[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return m
}

// normalize trims and converts to NFC so composed and decomposed accents compare equal.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func parseDate(s string, layouts []string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := task.Day(t)
			return &d
		}
	}
	return nil
}

func parseHours(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
