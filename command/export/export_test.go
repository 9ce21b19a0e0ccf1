package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-dashboard/connectors/config"
	"task-dashboard/domain/dashboard"
	"task-dashboard/domain/task"
)

const projectCSV = `Descricao,Status,Responsavel,Prioridade,DataInicio,Fase
Planejar,Concluído,Ana,Alta,01/06/2024,Início
Codificar,Em Andamento,Bruno,Crítica,bad-date,Meio
Testar,Pendente,Ana,Média,,Fim
`

const header = "Descricao,Status,Responsavel,Prioridade,DataInicio,Fase\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Path = filepath.Join(t.TempDir(), "project_data.csv")
	require.NoError(t, os.WriteFile(cfg.Data.Path, []byte(projectCSV), 0o644))
	return cfg
}

func TestRun_WritesFile(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "nested", "out.csv")
	q := dashboard.Query{SortColumn: task.ColPrioridade}
	require.NoError(t, Run(context.Background(), cfg, q, out, nil))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, header+
		"Codificar,Em Andamento,Bruno,Crítica,,Meio\n"+
		"Planejar,Concluído,Ana,Alta,2024-06-01,Início\n"+
		"Testar,Pendente,Ana,Média,,Fim\n", string(b))
}

func TestRun_Stdout(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	q := dashboard.Query{Selection: dashboard.Selection{Owner: []string{}}}
	require.NoError(t, Run(context.Background(), cfg, q, Stdout, &buf))
	assert.Equal(t, header, buf.String(), "empty view still carries the header")
}
