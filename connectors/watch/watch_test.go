package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatch_ReportsChangesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 16)
	require.NoError(t, Watch(ctx, path, func(p string) { changed <- p }))

	// other files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("b\n"), 0o644))

	select {
	case p := <-changed:
		require.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "data.csv"), func(string) {})
	require.Error(t, err)
}
