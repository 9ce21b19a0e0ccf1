package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFromFlags(t *testing.T) {
	require.NoError(t, exportCmd.Flags().Parse([]string{"--owner=,Ana", "--status=", "--sort", "Prioridade", "--desc"}))

	q := queryFromFlags(exportCmd)
	assert.Nil(t, q.Selection.Priority, "unset flag allows every value")
	assert.Equal(t, []string{}, q.Selection.Status)
	assert.Equal(t, []string{"", "Ana"}, q.Selection.Owner, "blank is a selectable value")
	assert.Equal(t, "Prioridade", q.SortColumn)
	assert.True(t, q.Desc)
}
