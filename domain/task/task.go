package task

import (
	"strings"
	"time"
)

// Column names as they appear in the source CSV header.
const (
	ColDescricao       = "Descricao"
	ColStatus          = "Status"
	ColResponsavel     = "Responsavel"
	ColPrioridade      = "Prioridade"
	ColDataInicio      = "DataInicio"
	ColDataFimPrevista = "DataFimPrevista"
	ColDataFimReal     = "DataFimReal"
	ColHorasEstimadas  = "HorasEstimadas"
	ColHorasReais      = "HorasReais"
)

// RequiredColumns must be present in every source file.
var RequiredColumns = []string{ColDescricao, ColStatus, ColResponsavel, ColPrioridade}

// DateColumns are parsed into calendar dates when present.
var DateColumns = []string{ColDataInicio, ColDataFimPrevista, ColDataFimReal}

// HourColumns are parsed into numbers when present.
var HourColumns = []string{ColHorasEstimadas, ColHorasReais}

// Well-known status values. Any other string is accepted as-is.
const (
	StatusDone       = "Concluído"
	StatusInProgress = "Em Andamento"
	StatusPending    = "Pendente"
)

var priorityRanks = map[string]int{
	"Crítica": 0,
	"Alta":    1,
	"Média":   2,
	"Baixa":   3,
}

// PriorityRank orders priorities from most to least urgent.
// Unknown priorities sort after every known one.
func PriorityRank(p string) int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return len(priorityRanks)
}

// Task is one row of the project data. Optional dates and hours are nil when absent
// or unparseable.
type Task struct {
	Descricao       string            `json:"Descricao"`
	Status          string            `json:"Status"`
	Responsavel     string            `json:"Responsavel"`
	Prioridade      string            `json:"Prioridade"`
	DataInicio      *time.Time        `json:"DataInicio"`
	DataFimPrevista *time.Time        `json:"DataFimPrevista"`
	DataFimReal     *time.Time        `json:"DataFimReal"`
	HorasEstimadas  *float64          `json:"HorasEstimadas,omitempty"`
	HorasReais      *float64          `json:"HorasReais,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Date returns the value of a date column by name.
func (t Task) Date(column string) *time.Time {
	switch column {
	case ColDataInicio:
		return t.DataInicio
	case ColDataFimPrevista:
		return t.DataFimPrevista
	case ColDataFimReal:
		return t.DataFimReal
	}
	return nil
}

// Hours returns the value of an hour column by name.
func (t Task) Hours(column string) *float64 {
	switch column {
	case ColHorasEstimadas:
		return t.HorasEstimadas
	case ColHorasReais:
		return t.HorasReais
	}
	return nil
}

// Text returns the value of a text column: one of the four categorical/text
// fields or an extra column.
func (t Task) Text(column string) string {
	switch column {
	case ColDescricao:
		return t.Descricao
	case ColStatus:
		return t.Status
	case ColResponsavel:
		return t.Responsavel
	case ColPrioridade:
		return t.Prioridade
	}
	return t.Extra[column]
}

// Table is the loaded task list. Columns keeps the source header order and Tasks the
// source row order. A Table is never modified after loading.
type Table struct {
	Columns []string
	Tasks   []Task
}

// Has reports whether the source file carried the column.
func (tb *Table) Has(column string) bool {
	_, ok := tb.Column(column)
	return ok
}

// Column returns the table's spelling of column, matched case-insensitively.
func (tb *Table) Column(column string) (string, bool) {
	column = strings.TrimSpace(column)
	for _, c := range tb.Columns {
		if strings.EqualFold(strings.TrimSpace(c), column) {
			return c, true
		}
	}
	return "", false
}

// Len is the number of rows.
func (tb *Table) Len() int { return len(tb.Tasks) }

// IsDateColumn reports whether column holds calendar dates.
func IsDateColumn(column string) bool {
	for _, c := range DateColumns {
		if c == column {
			return true
		}
	}
	return false
}

// IsHourColumn reports whether column holds numeric hours.
func IsHourColumn(column string) bool {
	for _, c := range HourColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Day truncates t to its calendar date in UTC, dropping any time-of-day and zone.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
