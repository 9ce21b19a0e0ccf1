// Package export writes the filtered task table to a CSV file.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"task-dashboard/connectors/config"
	ccsv "task-dashboard/connectors/csv"
	"task-dashboard/connectors/remote"
	"task-dashboard/domain/dashboard"
)

// Stdout as the output path writes the export to standard output.
const Stdout = "-"

// Run loads the configured data file, applies q and writes the CSV export to out.
// An empty out defaults to the dashboard's download file name.
func Run(ctx context.Context, cfg *config.Config, q dashboard.Query, out string, stdout io.Writer) error {
	loader := ccsv.NewLoader(cfg.Data.DateLayouts, remote.NewFromConfig(ctx, cfg.Remote))
	loaded, err := loader.Load(ctx, cfg.Data.Path)
	if err != nil {
		return err
	}
	_, view := q.Apply(loaded.Table)
	b, err := ccsv.Encode(loaded.Table.Columns, view)
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	if out == Stdout {
		_, err := stdout.Write(b)
		return err
	}
	if out == "" {
		out = ccsv.ExportFileName
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return err
	}
	slog.Info("export.done", "out", out, "rows", len(view), "bytes", len(b))
	return nil
}
