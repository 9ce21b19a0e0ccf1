package dashboard

import (
	"sort"
	"strings"

	"task-dashboard/domain/task"
)

// SortView returns a copy of view ordered by column. Prioridade sorts by urgency,
// date and hour columns chronologically/numerically with absent values last, and
// anything else as text. Column names match case-insensitively. An empty or unknown
// column returns the view in its original order.
func SortView(tb *task.Table, view []task.Task, column string, desc bool) []task.Task {
	out := make([]task.Task, len(view))
	copy(out, view)
	column, ok := tb.Column(column)
	if !ok {
		return out
	}
	var cmp func(a, b task.Task) int
	switch {
	case column == task.ColPrioridade:
		cmp = func(a, b task.Task) int { return task.PriorityRank(a.Prioridade) - task.PriorityRank(b.Prioridade) }
	case task.IsDateColumn(column):
		cmp = func(a, b task.Task) int {
			da, db := a.Date(column), b.Date(column)
			if da == nil || db == nil {
				return nilLast(da == nil, db == nil, desc)
			}
			return da.Compare(*db)
		}
	case task.IsHourColumn(column):
		cmp = func(a, b task.Task) int {
			ha, hb := a.Hours(column), b.Hours(column)
			if ha == nil || hb == nil {
				return nilLast(ha == nil, hb == nil, desc)
			}
			switch {
			case *ha < *hb:
				return -1
			case *ha > *hb:
				return 1
			}
			return 0
		}
	default:
		cmp = func(a, b task.Task) int { return strings.Compare(a.Text(column), b.Text(column)) }
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// nilLast orders absent values after present ones in both directions. The result is
// pre-inverted for descending sorts.
func nilLast(aNil, bNil, desc bool) int {
	var c int
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		c = 1
	default:
		c = -1
	}
	if desc {
		return -c
	}
	return c
}
