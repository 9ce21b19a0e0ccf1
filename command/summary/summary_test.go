package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-dashboard/connectors/config"
	"task-dashboard/domain/dashboard"
)

const projectCSV = `Descricao,Status,Responsavel,Prioridade,DataInicio,DataFimPrevista,DataFimReal,HorasEstimadas,HorasReais
Planejar,Concluído,Ana,Alta,2024-06-01,2024-06-10,2024-06-09,1200,1100.5
Codificar,Em Andamento,Bruno,Crítica,2024-06-05,2024-06-12,,20,
Testar,Pendente,Ana,Média,2024-06-20,2024-06-18,,5,
`

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Path = filepath.Join(t.TempDir(), "project_data.csv")
	require.NoError(t, os.WriteFile(cfg.Data.Path, []byte(projectCSV), 0o644))
	return cfg
}

func TestRun_Text(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), cfg, Options{Now: now}, &out))

	s := out.String()
	assert.Regexp(t, `Total de Tarefas \(Filtradas\):\s+3\n`, s)
	assert.Contains(t, s, "1 (33.33%)")
	assert.Regexp(t, `Tarefas Atrasadas:\s+1\n`, s)
	assert.Contains(t, s, "1,225")
	assert.Contains(t, s, "1,100.5")
	assert.Contains(t, s, "Codificar (Bruno)")
	assert.NotContains(t, s, "Testar (Ana)", "reversed dates are left out of the timeline")
}

func TestRun_JSONWithFilters(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	opts := Options{
		Now:   now,
		JSON:  true,
		Query: dashboard.Query{Selection: dashboard.Selection{Owner: []string{"Ana"}}},
	}
	require.NoError(t, Run(context.Background(), cfg, opts, &out))

	var r Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, []string{"Ana"}, r.Filters.Owner)
	assert.Equal(t, 2, r.Metrics.Total)
	assert.InDelta(t, 50, r.Metrics.CompletedPct, 1e-9)
	require.Len(t, r.Status, 2)
	require.Len(t, r.Timeline, 1)
	assert.Equal(t, "Planejar", r.Timeline[0].Task)
}

func TestRun_EmptySelection(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	opts := Options{Now: now, Query: dashboard.Query{Selection: dashboard.Selection{Priority: []string{}}}}
	require.NoError(t, Run(context.Background(), cfg, opts, &out))
	assert.Contains(t, out.String(), "Nenhuma tarefa encontrada")
}

func TestRun_MissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Path = filepath.Join(t.TempDir(), "absent.csv")
	err := Run(context.Background(), cfg, Options{}, &bytes.Buffer{})
	require.ErrorIs(t, err, os.ErrNotExist)
}
