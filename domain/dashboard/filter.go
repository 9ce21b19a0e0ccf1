// Package dashboard holds the computations behind the task dashboard: filtering,
// aggregate metrics, chart series and table ordering. Every function is pure and
// returns new slices; the source table is never modified.
package dashboard

import (
	"sort"
	"strings"

	lo "github.com/samber/lo"

	"task-dashboard/domain/task"
)

// Selection holds the allowed values per filter dimension. A nil or empty slice allows
// nothing.
type Selection struct {
	Status   []string `json:"status"`
	Owner    []string `json:"owner"`
	Priority []string `json:"priority"`
}

// Options lists the distinct values of each filter dimension in order of first
// appearance.
func Options(tb *task.Table) Selection {
	return Selection{
		Status:   lo.Uniq(lo.Map(tb.Tasks, func(t task.Task, _ int) string { return t.Status })),
		Owner:    lo.Uniq(lo.Map(tb.Tasks, func(t task.Task, _ int) string { return t.Responsavel })),
		Priority: lo.Uniq(lo.Map(tb.Tasks, func(t task.Task, _ int) string { return t.Prioridade })),
	}
}

// DefaultSelection allows every value present in the table.
func DefaultSelection(tb *task.Table) Selection {
	return Options(tb)
}

// Filter keeps the tasks whose status, owner and priority are all allowed by sel.
// Source order is preserved.
func Filter(tb *task.Table, sel Selection) []task.Task {
	status := toSet(sel.Status)
	owner := toSet(sel.Owner)
	priority := toSet(sel.Priority)
	return lo.Filter(tb.Tasks, func(t task.Task, _ int) bool {
		_, okS := status[t.Status]
		_, okO := owner[t.Responsavel]
		_, okP := priority[t.Prioridade]
		return okS && okO && okP
	})
}

// Key renders the selection canonically so equal selections give equal keys
// regardless of value order.
func (s Selection) Key() string {
	part := func(name string, vals []string) string {
		v := lo.Uniq(vals)
		sort.Strings(v)
		return name + "=" + strings.Join(v, "\x1f")
	}
	return strings.Join([]string{
		part("status", s.Status),
		part("owner", s.Owner),
		part("priority", s.Priority),
	}, "\x1e")
}

func toSet(vals []string) map[string]struct{} {
	return lo.SliceToMap(vals, func(s string) (string, struct{}) { return s, struct{}{} })
}
