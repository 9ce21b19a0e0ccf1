package web

import (
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-dashboard/connectors/config"
	ccsv "task-dashboard/connectors/csv"
	"task-dashboard/domain/dashboard"
	"task-dashboard/domain/task"
)

const projectCSV = `Descricao,Status,Responsavel,Prioridade,DataInicio,DataFimPrevista,DataFimReal,HorasEstimadas
Planejar,Concluído,Ana,Alta,2024-06-01,2024-06-10,2024-06-09,10
Codificar,Em Andamento,Bruno,Crítica,2024-06-05,2024-06-12,,20
Testar,Pendente,Ana,Média,2024-06-20,2024-06-25,,5
`

var mtime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newServer(t *testing.T, body string) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project_data.csv")
	if body != "" {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	s := New(path, ccsv.NewLoader(config.DefaultDateLayouts, nil), ccsv.NewExporter(4))
	s.now = func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) }
	return s, path
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []task.Task {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out []task.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func names(ts []task.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Descricao
	}
	return out
}

func TestTasks_Filtering(t *testing.T) {
	s, _ := newServer(t, projectCSV)

	all := decodeTasks(t, get(t, s, "/api/tasks"))
	assert.Equal(t, []string{"Planejar", "Codificar", "Testar"}, names(all))

	ana := decodeTasks(t, get(t, s, "/api/tasks?owner=Ana&sort=Descricao&desc=true"))
	assert.Equal(t, []string{"Testar", "Planejar"}, names(ana))

	byPriority := decodeTasks(t, get(t, s, "/api/tasks?sort=prioridade"))
	assert.Equal(t, []string{"Codificar", "Planejar", "Testar"}, names(byPriority))

	both := decodeTasks(t, get(t, s, "/api/tasks?owner=Ana&status=Pendente"))
	assert.Equal(t, []string{"Testar"}, names(both))

	rec := get(t, s, "/api/tasks?status_set=1")
	assert.Empty(t, decodeTasks(t, rec))
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestOptions(t *testing.T) {
	s, _ := newServer(t, projectCSV)
	rec := get(t, s, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)

	var opts dashboard.Selection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"Concluído", "Em Andamento", "Pendente"}, opts.Status)
	assert.Equal(t, []string{"Ana", "Bruno"}, opts.Owner)
	assert.Equal(t, []string{"Alta", "Crítica", "Média"}, opts.Priority)
}

func TestMetrics(t *testing.T) {
	s, _ := newServer(t, projectCSV)
	rec := get(t, s, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var m dashboard.Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 3, m.Total)
	assert.Equal(t, 1, m.Completed)
	assert.InDelta(t, 33.333, m.CompletedPct, 0.01)
	assert.Equal(t, 1, m.Overdue)
	require.NotNil(t, m.EstimatedHours)
	assert.InDelta(t, 35, *m.EstimatedHours, 1e-9)
	assert.Nil(t, m.ActualHours)

	rec = get(t, s, "/api/metrics?owner_set=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Zero(t, m.Total)
	assert.Zero(t, m.CompletedPct)
}

func TestChartData(t *testing.T) {
	s, _ := newServer(t, projectCSV)

	var counts []dashboard.Count
	rec := get(t, s, "/api/charts/owners")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	require.Len(t, counts, 2)
	assert.Equal(t, dashboard.Count{Label: "Ana", Count: 2, Share: 2.0 / 3.0}, counts[0])

	var tl []dashboard.Interval
	rec = get(t, s, "/api/charts/timeline")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tl))
	require.Len(t, tl, 3)
	assert.Equal(t, "Testar", tl[0].Task)
	assert.Equal(t, 6, tl[0].Days)

	rec = get(t, s, "/api/charts/status?priority_set=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSVG(t *testing.T) {
	s, _ := newServer(t, projectCSV)
	for _, name := range []string{"status", "owners", "timeline"} {
		rec := get(t, s, "/charts/"+name+".svg")
		require.Equal(t, http.StatusOK, rec.Code, name)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<svg", name)

		empty := get(t, s, "/charts/"+name+".svg?status_set=1")
		assert.Equal(t, http.StatusNoContent, empty.Code, name)
	}
}

func TestExport(t *testing.T) {
	s, _ := newServer(t, projectCSV)

	rec := get(t, s, "/export.csv?owner=Bruno")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ccsv.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="dados_filtrados_projetos.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t,
		"Descricao,Status,Responsavel,Prioridade,DataInicio,DataFimPrevista,DataFimReal,HorasEstimadas\n"+
			"Codificar,Em Andamento,Bruno,Crítica,2024-06-05,2024-06-12,,20\n",
		rec.Body.String())

	get(t, s, "/export.csv?owner=Bruno")
	assert.Equal(t, 1, s.exporter.Len(), "same view is encoded once")

	empty := get(t, s, "/export.csv?owner_set=1")
	assert.Equal(t, "Descricao,Status,Responsavel,Prioridade,DataInicio,DataFimPrevista,DataFimReal,HorasEstimadas\n", empty.Body.String())
}

func TestMissingFile(t *testing.T) {
	s, path := newServer(t, "")

	rec := get(t, s, "/api/tasks")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "file not found", body["error"])
	assert.Equal(t, path, body["path"])

	page := get(t, s, "/")
	assert.Equal(t, http.StatusServiceUnavailable, page.Code)
	assert.Contains(t, page.Body.String(), "não encontrado")
	assert.NotContains(t, page.Body.String(), "Filtros")
	assert.NotContains(t, page.Body.String(), "<table>")
}

func TestMalformedFile(t *testing.T) {
	s, _ := newServer(t, "Descricao,Status\nA,B\n")
	rec := get(t, s, "/api/metrics")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to load CSV")
}

func TestPage(t *testing.T) {
	s, _ := newServer(t, projectCSV)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Total de Tarefas (Filtradas)")
	assert.Contains(t, body, "1 (33.33%)")
	assert.Contains(t, body, "Tarefas Atrasadas")
	assert.Contains(t, body, "Horas Estimadas")
	assert.NotContains(t, body, "Horas Reais")
	assert.Contains(t, body, `<option value="Ana" selected>`)
	assert.Contains(t, body, "/charts/timeline.svg?")
	assert.Contains(t, body, "dados_filtrados_projetos.csv")
	assert.Contains(t, body, "<td>2024-06-12</td>")
	assert.NotContains(t, body, noticeEmpty)

	filtered := get(t, s, "/?owner=Bruno").Body.String()
	assert.Contains(t, filtered, `<option value="Bruno" selected>`)
	assert.Contains(t, filtered, `<option value="Ana">`)

	empty := get(t, s, "/?status_set=1").Body.String()
	assert.Contains(t, empty, noticeEmpty)
	assert.NotContains(t, empty, "Total de Tarefas")
	assert.Contains(t, empty, "Filtros", "filters stay available")
}

func TestReload(t *testing.T) {
	s, path := newServer(t, projectCSV)
	require.Len(t, decodeTasks(t, get(t, s, "/api/tasks")), 3)

	// same size and mtime: the cache cannot see the edit
	edited := strings.Replace(projectCSV, "Testar", "Testes", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	assert.Contains(t, names(decodeTasks(t, get(t, s, "/api/tasks"))), "Testar")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, names(decodeTasks(t, get(t, s, "/api/tasks"))), "Testes")
}

const blankOwnerCSV = `Descricao,Status,Responsavel,Prioridade
Planejar,Concluído,Ana,Alta
Revisar,Pendente,,Alta
`

var exportHref = regexp.MustCompile(`href="(/export\.csv\?[^"]*)"`)

func TestBlankValuesSurviveLinks(t *testing.T) {
	s, _ := newServer(t, blankOwnerCSV)

	require.Len(t, decodeTasks(t, get(t, s, "/api/tasks")), 2)

	page := get(t, s, "/").Body.String()
	assert.Contains(t, page, `<option value="" selected>(vazio)</option>`)
	m := exportHref.FindStringSubmatch(page)
	require.Len(t, m, 2, "export link on page")

	rec := get(t, s, html.UnescapeString(m[1]))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Descricao,Status,Responsavel,Prioridade\nPlanejar,Concluído,Ana,Alta\nRevisar,Pendente,,Alta\n", rec.Body.String())

	// form submission with every owner selected
	all := decodeTasks(t, get(t, s, "/api/tasks?owner_set=1&owner=Ana&owner="))
	assert.Equal(t, []string{"Planejar", "Revisar"}, names(all))

	blank := decodeTasks(t, get(t, s, "/api/tasks?owner_set=1&owner="))
	assert.Equal(t, []string{"Revisar"}, names(blank))

	none := decodeTasks(t, get(t, s, "/api/tasks?owner_set=1"))
	assert.Empty(t, none)
}
