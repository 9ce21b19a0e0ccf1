package dashboard

import "task-dashboard/domain/task"

// Query is a filter selection plus a table ordering, as chosen in the UI or on the
// command line.
type Query struct {
	Selection  Selection
	SortColumn string
	Desc       bool
}

// Resolve fills every nil dimension of s with all of the options. A non-nil empty
// dimension stays empty and allows nothing.
func (s Selection) Resolve(options Selection) Selection {
	if s.Status == nil {
		s.Status = options.Status
	}
	if s.Owner == nil {
		s.Owner = options.Owner
	}
	if s.Priority == nil {
		s.Priority = options.Priority
	}
	return s
}

// Apply resolves the selection against tb, filters and orders the result.
// The resolved selection is returned along with the view.
func (q Query) Apply(tb *task.Table) (Selection, []task.Task) {
	sel := q.Selection.Resolve(Options(tb))
	return sel, SortView(tb, Filter(tb, sel), q.SortColumn, q.Desc)
}
