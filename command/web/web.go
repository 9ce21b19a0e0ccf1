package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"task-dashboard/connectors/chart"
	"task-dashboard/connectors/config"
	ccsv "task-dashboard/connectors/csv"
	"task-dashboard/connectors/remote"
	"task-dashboard/connectors/watch"
	"task-dashboard/domain/dashboard"
	"task-dashboard/domain/task"
)

// Filter query parameters. A dimension is given when its parameter or its "_set" marker
// is present; it then allows exactly the listed values, the empty string included.
// A dimension that is not given allows every value.
const (
	paramStatus   = "status"
	paramOwner    = "owner"
	paramPriority = "priority"
	paramSort     = "sort"
	paramDesc     = "desc"

	setSuffix = "_set"
)

// Server serves the dashboard page, its charts, JSON APIs and the CSV export.
// Each request recomputes the filtered view from the memoised table.
type Server struct {
	e        *echo.Echo
	dataPath string
	loader   *ccsv.Loader
	exporter *ccsv.Exporter
	now      func() time.Time
}

// New builds the echo instance with every route registered.
func New(dataPath string, loader *ccsv.Loader, exporter *ccsv.Exporter) *Server {
	s := &Server{
		e:        echo.New(),
		dataPath: dataPath,
		loader:   loader,
		exporter: exporter,
		now:      time.Now,
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
			if v.Error != nil {
				slog.Warn("web.request.error", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("web.request", attrs...)
			return nil
		},
	}))

	s.e.GET("/", s.handlePage)
	s.e.GET("/api/options", s.handleOptions)
	s.e.GET("/api/tasks", s.handleTasks)
	s.e.GET("/api/metrics", s.handleMetrics)
	s.e.GET("/api/charts/status", chartData(s, dashboard.StatusBreakdown))
	s.e.GET("/api/charts/owners", chartData(s, dashboard.OwnerWorkload))
	s.e.GET("/api/charts/timeline", chartData(s, dashboard.Timeline))
	s.e.GET("/charts/status.svg", s.handleSVG(func(w io.Writer, v []task.Task) error {
		return chart.Pie(w, titleStatus, dashboard.StatusBreakdown(v))
	}))
	s.e.GET("/charts/owners.svg", s.handleSVG(func(w io.Writer, v []task.Task) error {
		return chart.Bars(w, titleOwners, dashboard.OwnerWorkload(v))
	}))
	s.e.GET("/charts/timeline.svg", s.handleSVG(func(w io.Writer, v []task.Task) error {
		return chart.Gantt(w, titleTimeline, dashboard.Timeline(v))
	}))
	s.e.GET("/export.csv", s.handleExport)
	s.e.POST("/api/reload", s.handleReload)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Run starts the dashboard server and blocks until ctx is cancelled or the listener
// fails.
//
// Endpoints:
//
//	GET  /                     -> HTML dashboard
//	GET  /api/options          -> distinct filter values
//	GET  /api/tasks            -> filtered rows
//	GET  /api/metrics          -> aggregate counters
//	GET  /api/charts/{status,owners,timeline}
//	GET  /charts/{status,owners,timeline}.svg
//	GET  /export.csv           -> dados_filtrados_projetos.csv
//	POST /api/reload           -> drop the cached table
func Run(ctx context.Context, cfg *config.Config) error {
	loader := ccsv.NewLoader(cfg.Data.DateLayouts, remote.NewFromConfig(ctx, cfg.Remote))
	loader.SetRemoteTTL(cfg.Data.RemoteTTL)
	s := New(cfg.Data.Path, loader, ccsv.NewExporter(cfg.Web.ExportCacheSize))

	if cfg.Data.Watch && !ccsv.IsRemote(cfg.Data.Path) {
		if err := watch.Watch(ctx, cfg.Data.Path, loader.Invalidate); err != nil {
			slog.Warn("watch.start.error", "path", cfg.Data.Path, "error", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web.start", "addr", cfg.Web.Addr, "data", cfg.Data.Path)
		errCh <- s.e.Start(cfg.Web.Addr)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("web.stop")
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// pass is one recomputation of the dashboard for a request.
type pass struct {
	loaded  ccsv.Loaded
	options dashboard.Selection
	sel     dashboard.Selection
	view    []task.Task
	sortCol string
	desc    bool
}

func (p *pass) exportKey() uint64 {
	return ccsv.ViewKey(p.loaded.Hash, p.sel.Key(), p.sortCol, strconv.FormatBool(p.desc))
}

func (s *Server) compute(c echo.Context) (*pass, error) {
	loaded, err := s.loader.Load(c.Request().Context(), s.dataPath)
	if err != nil {
		slog.Error("load.error", "path", s.dataPath, "error", err)
		return nil, err
	}
	dq := queryFromRequest(c.QueryParams())
	p := &pass{
		loaded:  loaded,
		options: dashboard.Options(loaded.Table),
		sortCol: dq.SortColumn,
		desc:    dq.Desc,
	}
	if col, ok := loaded.Table.Column(dq.SortColumn); ok {
		p.sortCol = col
	}
	p.sel, p.view = dq.Apply(loaded.Table)
	return p, nil
}

// queryFromRequest rebuilds the filter state from URL parameters. A dimension that is
// not given stays nil so it resolves to every option.
func queryFromRequest(q url.Values) dashboard.Query {
	pick := func(key string) []string {
		vals, ok := q[key]
		if !ok {
			if _, set := q[key+setSuffix]; !set {
				return nil
			}
		}
		return append([]string{}, vals...)
	}
	dq := dashboard.Query{
		Selection: dashboard.Selection{
			Status:   pick(paramStatus),
			Owner:    pick(paramOwner),
			Priority: pick(paramPriority),
		},
		SortColumn: q.Get(paramSort),
	}
	dq.Desc, _ = strconv.ParseBool(q.Get(paramDesc))
	return dq
}

// query encodes a pass back into URL parameters. Every dimension carries its "_set"
// marker so an empty selection survives the round trip.
func (p *pass) query() url.Values {
	q := url.Values{}
	set := func(key string, vals []string) {
		q.Set(key+setSuffix, "1")
		if len(vals) > 0 {
			q[key] = append([]string{}, vals...)
		}
	}
	set(paramStatus, p.sel.Status)
	set(paramOwner, p.sel.Owner)
	set(paramPriority, p.sel.Priority)
	if p.sortCol != "" {
		q.Set(paramSort, p.sortCol)
		if p.desc {
			q.Set(paramDesc, "true")
		}
	}
	return q
}

func loadError(c echo.Context, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error":   "file not found",
			"path":    path,
			"message": "CSV file is missing",
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error":   err.Error(),
		"path":    path,
		"message": "failed to load CSV",
	})
}

func (s *Server) handleOptions(c echo.Context) error {
	p, err := s.compute(c)
	if err != nil {
		return loadError(c, s.dataPath, err)
	}
	return c.JSON(http.StatusOK, p.options)
}

func (s *Server) handleTasks(c echo.Context) error {
	p, err := s.compute(c)
	if err != nil {
		return loadError(c, s.dataPath, err)
	}
	return c.JSON(http.StatusOK, p.view)
}

func (s *Server) handleMetrics(c echo.Context) error {
	p, err := s.compute(c)
	if err != nil {
		return loadError(c, s.dataPath, err)
	}
	return c.JSON(http.StatusOK, dashboard.ComputeMetrics(p.loaded.Table, p.view, s.now()))
}

// chartData serves the series behind a chart as JSON; no data is an empty array.
func chartData[T any](s *Server, build func([]task.Task) []T) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := s.compute(c)
		if err != nil {
			return loadError(c, s.dataPath, err)
		}
		data := build(p.view)
		if data == nil {
			data = []T{}
		}
		return c.JSON(http.StatusOK, data)
	}
}

func (s *Server) handleSVG(render func(io.Writer, []task.Task) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := s.compute(c)
		if err != nil {
			return loadError(c, s.dataPath, err)
		}
		var buf bytes.Buffer
		if err := render(&buf, p.view); err != nil {
			if errors.Is(err, chart.ErrNoData) {
				return c.NoContent(http.StatusNoContent)
			}
			slog.Error("chart.render.error", "path", c.Path(), "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   err.Error(),
				"message": "failed to render chart",
			})
		}
		return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
	}
}

func (s *Server) handleExport(c echo.Context) error {
	p, err := s.compute(c)
	if err != nil {
		return loadError(c, s.dataPath, err)
	}
	b, err := s.exporter.Export(p.exportKey(), p.loaded.Table.Columns, p.view)
	if err != nil {
		slog.Error("export.error", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"message": "failed to export CSV",
		})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", ccsv.ExportFileName))
	return c.Blob(http.StatusOK, ccsv.ContentType, b)
}

func (s *Server) handleReload(c echo.Context) error {
	s.loader.Invalidate(s.dataPath)
	slog.Info("load.invalidated", "path", s.dataPath)
	return c.JSON(http.StatusOK, map[string]any{"status": "reloaded", "path": s.dataPath})
}
