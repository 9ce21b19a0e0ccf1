// Package summary prints the dashboard's metrics panel and breakdowns to a terminal.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"task-dashboard/connectors/config"
	ccsv "task-dashboard/connectors/csv"
	"task-dashboard/connectors/remote"
	"task-dashboard/domain/dashboard"
)

// Options selects the tasks summarised and the output format.
type Options struct {
	Query dashboard.Query
	JSON  bool
	Now   time.Time
}

// Report is the JSON form of a summary.
type Report struct {
	Source   string               `json:"source"`
	Filters  dashboard.Selection  `json:"filters"`
	Metrics  dashboard.Metrics    `json:"metrics"`
	Status   []dashboard.Count    `json:"status"`
	Owners   []dashboard.Count    `json:"owners"`
	Timeline []dashboard.Interval `json:"timeline"`
}

// Run loads the configured data file, applies the query and writes the summary to w.
func Run(ctx context.Context, cfg *config.Config, opts Options, w io.Writer) error {
	loader := ccsv.NewLoader(cfg.Data.DateLayouts, remote.NewFromConfig(ctx, cfg.Remote))
	loaded, err := loader.Load(ctx, cfg.Data.Path)
	if err != nil {
		return err
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	sel, view := opts.Query.Apply(loaded.Table)
	r := Report{
		Source:   cfg.Data.Path,
		Filters:  sel,
		Metrics:  dashboard.ComputeMetrics(loaded.Table, view, opts.Now),
		Status:   dashboard.StatusBreakdown(view),
		Owners:   dashboard.OwnerWorkload(view),
		Timeline: dashboard.Timeline(view),
	}
	slog.Debug("summary.done", "rows", loaded.Table.Len(), "filtered", len(view))

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return writeText(w, r)
}

func writeText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Dashboard de Projetos (%s)\n\n", r.Source)
	if r.Metrics.Total == 0 {
		b.WriteString("Nenhuma tarefa encontrada com os filtros aplicados.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	m := r.Metrics
	fmt.Fprintf(&b, "  %-30s %s\n", "Total de Tarefas (Filtradas):", humanize.Comma(int64(m.Total)))
	fmt.Fprintf(&b, "  %-30s %s\n", "Tarefas Concluídas:", m.CompletedLabel())
	fmt.Fprintf(&b, "  %-30s %s\n", "Tarefas Atrasadas:", humanize.Comma(int64(m.Overdue)))
	if m.EstimatedHours != nil {
		fmt.Fprintf(&b, "  %-30s %s\n", "Horas Estimadas:", humanize.CommafWithDigits(*m.EstimatedHours, 1))
	}
	if m.ActualHours != nil {
		fmt.Fprintf(&b, "  %-30s %s\n", "Horas Reais:", humanize.CommafWithDigits(*m.ActualHours, 1))
	}

	writeCounts(&b, "Tarefas por Status", r.Status)
	writeCounts(&b, "Tarefas por Responsável", r.Owners)

	b.WriteString("\nCronograma\n")
	if len(r.Timeline) == 0 {
		b.WriteString("  Não há dados suficientes ou válidos para exibir o cronograma.\n")
	}
	for _, iv := range r.Timeline {
		fmt.Fprintf(&b, "  %s .. %s  %3d d  %s (%s)\n",
			iv.Start.Format("2006-01-02"), iv.End.Format("2006-01-02"), iv.Days, iv.Task, iv.Owner)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCounts(b *strings.Builder, title string, counts []dashboard.Count) {
	fmt.Fprintf(b, "\n%s\n", title)
	for _, c := range counts {
		fmt.Fprintf(b, "  %-28s %6s  %5.1f%%\n", c.Label, humanize.Comma(int64(c.Count)), c.Share*100)
	}
}
