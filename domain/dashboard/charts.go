package dashboard

import (
	"sort"
	"time"

	lo "github.com/samber/lo"

	"task-dashboard/domain/task"
)

// Count is one slice of a breakdown chart.
type Count struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Interval is one bar of the timeline. Days counts both end points.
type Interval struct {
	Task  string    `json:"task"`
	Owner string    `json:"owner"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// StatusBreakdown counts tasks per status. It returns nil for an empty view.
func StatusBreakdown(view []task.Task) []Count {
	return countBy(view, func(t task.Task) string { return t.Status })
}

// OwnerWorkload counts tasks per owner. It returns nil for an empty view.
func OwnerWorkload(view []task.Task) []Count {
	return countBy(view, func(t task.Task) string { return t.Responsavel })
}

func countBy(view []task.Task, key func(task.Task) string) []Count {
	if len(view) == 0 {
		return nil
	}
	labels := lo.Uniq(lo.Map(view, func(t task.Task, _ int) string { return key(t) }))
	groups := lo.GroupBy(view, key)
	total := float64(len(view))
	return lo.Map(labels, func(l string, _ int) Count {
		n := len(groups[l])
		return Count{Label: l, Count: n, Share: float64(n) / total}
	})
}

// Timeline keeps tasks with both a start and a predicted end, dropping those whose
// predicted end precedes the start. Intervals are ordered by duration, shortest first;
// ties keep view order. It returns nil when nothing qualifies.
func Timeline(view []task.Task) []Interval {
	out := lo.FilterMap(view, func(t task.Task, _ int) (Interval, bool) {
		if t.DataInicio == nil || t.DataFimPrevista == nil {
			return Interval{}, false
		}
		start, end := task.Day(*t.DataInicio), task.Day(*t.DataFimPrevista)
		if end.Before(start) {
			return Interval{}, false
		}
		return Interval{
			Task:  t.Descricao,
			Owner: t.Responsavel,
			Start: start,
			End:   end,
			Days:  int(end.Sub(start).Hours()/24) + 1,
		}, true
	})
	if len(out) == 0 {
		return nil
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Days < out[j].Days })
	return out
}
