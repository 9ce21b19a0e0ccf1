package web

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"task-dashboard/connectors/chart"
	ccsv "task-dashboard/connectors/csv"
	"task-dashboard/domain/dashboard"
)

const (
	pageTitle     = "Dashboard de Projetos"
	titleStatus   = "Distribuição de Tarefas por Status"
	titleOwners   = "Número de Tarefas por Responsável"
	titleTimeline = "Cronograma de Tarefas (Gantt Simplificado)"
	noticeEmpty   = "Nenhuma tarefa encontrada com os filtros aplicados."
)

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"hours": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return humanize.CommafWithDigits(*v, 1)
	},
}).Parse(pageHTML))

type legendEntry struct {
	Owner string
	Color template.CSS
}

type column struct {
	Name   string
	Link   template.URL
	Active bool
	Desc   bool
}

type pageData struct {
	Title     string
	DataPath  string
	LoadError string

	Options  dashboard.Selection
	Selected map[string]map[string]bool

	Empty   bool
	Notice  string
	Metrics dashboard.Metrics

	HasStatus   bool
	HasOwners   bool
	HasTimeline bool
	StatusSVG   template.URL
	OwnersSVG   template.URL
	TimelineSVG template.URL
	Legend      []legendEntry

	TitleStatus   string
	TitleOwners   string
	TitleTimeline string

	Columns   []column
	Rows      [][]string
	ExportURL template.URL
	ExportAs  string
}

func (s *Server) handlePage(c echo.Context) error {
	data := pageData{Title: pageTitle, DataPath: s.dataPath}
	p, err := s.compute(c)
	if err != nil {
		data.LoadError = loadErrorMessage(s.dataPath, err)
		return s.renderPage(c, http.StatusServiceUnavailable, data)
	}

	data.Options = p.options
	data.Selected = map[string]map[string]bool{
		paramStatus:   toBoolMap(p.sel.Status),
		paramOwner:    toBoolMap(p.sel.Owner),
		paramPriority: toBoolMap(p.sel.Priority),
	}
	data.Empty = len(p.view) == 0
	if data.Empty {
		data.Notice = noticeEmpty
		return s.renderPage(c, http.StatusOK, data)
	}

	data.Metrics = dashboard.ComputeMetrics(p.loaded.Table, p.view, s.now())
	data.TitleStatus, data.TitleOwners, data.TitleTimeline = titleStatus, titleOwners, titleTimeline

	q := p.query().Encode()
	data.HasStatus = len(dashboard.StatusBreakdown(p.view)) > 0
	data.HasOwners = len(dashboard.OwnerWorkload(p.view)) > 0
	timeline := dashboard.Timeline(p.view)
	data.HasTimeline = len(timeline) > 0
	data.StatusSVG = template.URL("/charts/status.svg?" + q)
	data.OwnersSVG = template.URL("/charts/owners.svg?" + q)
	data.TimelineSVG = template.URL("/charts/timeline.svg?" + q)
	data.ExportURL = template.URL("/export.csv?" + q)
	data.ExportAs = ccsv.ExportFileName

	colors := chart.OwnerColors(timeline)
	for owner, col := range colors {
		data.Legend = append(data.Legend, legendEntry{Owner: owner, Color: template.CSS(col)})
	}
	sort.Slice(data.Legend, func(i, j int) bool { return data.Legend[i].Owner < data.Legend[j].Owner })

	cols := p.loaded.Table.Columns
	for _, name := range cols {
		sq := p.query()
		sq.Set(paramSort, name)
		desc := p.sortCol == name && !p.desc
		if desc {
			sq.Set(paramDesc, "true")
		} else {
			sq.Del(paramDesc)
		}
		data.Columns = append(data.Columns, column{
			Name:   name,
			Link:   template.URL("/?" + sq.Encode()),
			Active: p.sortCol == name,
			Desc:   p.sortCol == name && p.desc,
		})
	}
	data.Rows = make([][]string, 0, len(p.view))
	for _, t := range p.view {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = ccsv.Cell(t, col)
		}
		data.Rows = append(data.Rows, row)
	}
	return s.renderPage(c, http.StatusOK, data)
}

func (s *Server) renderPage(c echo.Context, status int, data pageData) error {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		slog.Error("web.page.render.error", "error", err)
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func loadErrorMessage(path string, err error) string {
	if errors.Is(err, os.ErrNotExist) {
		return "Arquivo de dados '" + path + "' não encontrado. Verifique se o arquivo existe no local correto."
	}
	return "Erro ao carregar o arquivo de dados '" + path + "': " + err.Error() + ". Verifique se está formatado corretamente."
}

func toBoolMap(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

const pageHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { --bg: #fff; --fg: #1a1a2e; --card-bg: #f8f9fa; --border: #dee2e6; --muted: #6c757d; --accent: #0d6efd; --warn: #fd7e14; --err: #dc3545; }
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: var(--bg); color: var(--fg); line-height: 1.5; display: grid; grid-template-columns: 260px 1fr; min-height: 100vh; }
aside { background: var(--card-bg); border-right: 1px solid var(--border); padding: 1rem; }
aside h2 { font-size: 1rem; margin-bottom: .75rem; }
aside label { display: block; font-size: .8125rem; margin: .75rem 0 .25rem; }
aside select { width: 100%; min-height: 6rem; border: 1px solid var(--border); border-radius: 4px; padding: .25rem; }
aside button { margin-top: 1rem; width: 100%; padding: .5rem; border: 0; border-radius: 4px; background: var(--accent); color: #fff; cursor: pointer; }
main { padding: 1.5rem; max-width: 1400px; }
h1 { font-size: 1.5rem; margin-bottom: 1rem; }
h2 { font-size: 1.125rem; margin: 1.5rem 0 .75rem; }
.notice { border-left: 4px solid var(--warn); background: #fff4e5; padding: .75rem 1rem; margin-bottom: 1rem; }
.error { border-left: 4px solid var(--err); background: #fdecea; padding: .75rem 1rem; }
.info { color: var(--muted); background: var(--card-bg); border: 1px dashed var(--border); border-radius: 8px; padding: 1rem; }
.cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: .75rem; }
.card { background: var(--card-bg); border: 1px solid var(--border); border-radius: 8px; padding: .75rem; }
.card .value { font-size: 1.5rem; font-weight: 700; }
.card .label { font-size: .75rem; color: var(--muted); text-transform: uppercase; }
.charts { display: grid; grid-template-columns: repeat(2, 1fr); gap: 1rem; }
.chart-box img { max-width: 100%; }
.legend span { display: inline-block; margin-right: 1rem; font-size: .8125rem; }
.legend i { display: inline-block; width: .75rem; height: .75rem; margin-right: .25rem; border-radius: 2px; vertical-align: middle; }
table { width: 100%; border-collapse: collapse; font-size: .8125rem; }
th, td { padding: .4rem .6rem; text-align: left; border-bottom: 1px solid var(--border); white-space: nowrap; }
th a { color: inherit; text-decoration: none; }
th.active a { color: var(--accent); }
.download { display: inline-block; margin-top: 1rem; padding: .5rem 1rem; border-radius: 4px; background: var(--accent); color: #fff; text-decoration: none; }
</style>
</head>
<body>
{{if .LoadError}}
<main>
  <h1>{{.Title}}</h1>
  <p class="error">{{.LoadError}}</p>
</main>
{{else}}
<aside>
  <h2>Filtros</h2>
  <form method="get" action="/">
    <label for="f-status">Filtrar por Status:</label>
    <input type="hidden" name="status_set" value="1">
    <select id="f-status" name="status" multiple>
      {{range .Options.Status}}<option value="{{.}}"{{if index $.Selected "status" .}} selected{{end}}>{{if .}}{{.}}{{else}}(vazio){{end}}</option>{{end}}
    </select>
    <label for="f-owner">Filtrar por Responsável:</label>
    <input type="hidden" name="owner_set" value="1">
    <select id="f-owner" name="owner" multiple>
      {{range .Options.Owner}}<option value="{{.}}"{{if index $.Selected "owner" .}} selected{{end}}>{{if .}}{{.}}{{else}}(vazio){{end}}</option>{{end}}
    </select>
    <label for="f-priority">Filtrar por Prioridade:</label>
    <input type="hidden" name="priority_set" value="1">
    <select id="f-priority" name="priority" multiple>
      {{range .Options.Priority}}<option value="{{.}}"{{if index $.Selected "priority" .}} selected{{end}}>{{if .}}{{.}}{{else}}(vazio){{end}}</option>{{end}}
    </select>
    <button type="submit">Aplicar</button>
  </form>
</aside>
<main>
  <h1>📊 Dashboard Interativo de Gerenciamento de Projetos</h1>
  {{if .Empty}}
  <p class="notice">{{.Notice}}</p>
  {{else}}
  <h2>Visão Geral e KPIs</h2>
  <section class="cards">
    <div class="card"><div class="value">{{comma .Metrics.Total}}</div><div class="label">Total de Tarefas (Filtradas)</div></div>
    <div class="card"><div class="value">{{.Metrics.CompletedLabel}}</div><div class="label">Tarefas Concluídas</div></div>
    <div class="card"><div class="value">{{comma .Metrics.Overdue}}</div><div class="label">Tarefas Atrasadas</div></div>
    {{if .Metrics.EstimatedHours}}<div class="card"><div class="value">{{hours .Metrics.EstimatedHours}}</div><div class="label">Horas Estimadas</div></div>{{end}}
    {{if .Metrics.ActualHours}}<div class="card"><div class="value">{{hours .Metrics.ActualHours}}</div><div class="label">Horas Reais</div></div>{{end}}
  </section>

  <h2>Visualizações Detalhadas</h2>
  <section class="charts">
    <div class="chart-box">
      {{if .HasStatus}}<img src="{{.StatusSVG}}" alt="{{.TitleStatus}}">{{else}}<p class="info">Sem dados para exibir o gráfico de Status.</p>{{end}}
    </div>
    <div class="chart-box">
      {{if .HasOwners}}<img src="{{.OwnersSVG}}" alt="{{.TitleOwners}}">{{else}}<p class="info">Sem dados para exibir o gráfico de Tarefas por Responsável.</p>{{end}}
    </div>
  </section>
  <section class="chart-box">
    {{if .HasTimeline}}
    <img src="{{.TimelineSVG}}" alt="{{.TitleTimeline}}">
    <p class="legend">{{range .Legend}}<span><i style="background: {{.Color}}"></i>{{.Owner}}</span>{{end}}</p>
    {{else}}
    <p class="info">Não há dados suficientes ou válidos para exibir o cronograma (Gantt).</p>
    {{end}}
  </section>

  <h2>Detalhes das Tarefas (Filtradas)</h2>
  <div style="overflow-x: auto">
  <table>
    <thead><tr>{{range .Columns}}<th{{if .Active}} class="active"{{end}}><a href="{{.Link}}">{{.Name}}{{if .Active}}{{if .Desc}} ▼{{else}} ▲{{end}}{{end}}</a></th>{{end}}</tr></thead>
    <tbody>
      {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
    </tbody>
  </table>
  </div>
  <a class="download" href="{{.ExportURL}}" download="{{.ExportAs}}">📥 Baixar dados filtrados (CSV)</a>
  {{end}}
</main>
{{end}}
</body>
</html>
`
