package dashboard

import (
	"fmt"
	"time"

	lo "github.com/samber/lo"

	"task-dashboard/domain/task"
)

// Metrics are the aggregate counters shown above the charts.
type Metrics struct {
	Total          int      `json:"total"`
	Completed      int      `json:"completed"`
	CompletedPct   float64  `json:"completed_pct"`
	Overdue        int      `json:"overdue"`
	EstimatedHours *float64 `json:"estimated_hours_sum,omitempty"`
	ActualHours    *float64 `json:"actual_hours_sum,omitempty"`
}

// ComputeMetrics aggregates view. Hour sums are only set when tb carries the
// corresponding column; absent cells count as zero.
func ComputeMetrics(tb *task.Table, view []task.Task, now time.Time) Metrics {
	m := Metrics{Total: len(view)}
	m.Completed = lo.CountBy(view, func(t task.Task) bool { return t.Status == task.StatusDone })
	if m.Total > 0 {
		m.CompletedPct = float64(m.Completed) / float64(m.Total) * 100
	}
	today := task.Day(now)
	m.Overdue = lo.CountBy(view, func(t task.Task) bool { return IsOverdue(t, today) })

	if tb.Has(task.ColHorasEstimadas) {
		m.EstimatedHours = lo.ToPtr(lo.SumBy(view, func(t task.Task) float64 { return lo.FromPtrOr(t.HorasEstimadas, 0) }))
	}
	if tb.Has(task.ColHorasReais) {
		m.ActualHours = lo.ToPtr(lo.SumBy(view, func(t task.Task) float64 { return lo.FromPtrOr(t.HorasReais, 0) }))
	}
	return m
}

// IsOverdue reports whether an open task missed its predicted end before today.
// Tasks with an actual end date are never overdue.
func IsOverdue(t task.Task, today time.Time) bool {
	if t.Status != task.StatusInProgress && t.Status != task.StatusPending {
		return false
	}
	if t.DataFimPrevista == nil || t.DataFimReal != nil {
		return false
	}
	return t.DataFimPrevista.Before(task.Day(today))
}

// CompletedLabel formats completed tasks as "4 (40.00%)".
func (m Metrics) CompletedLabel() string {
	return fmt.Sprintf("%d (%.2f%%)", m.Completed, m.CompletedPct)
}
