package csv

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"task-dashboard/domain/task"
)

const (
	// ExportFileName is the download name of the filtered export.
	ExportFileName = "dados_filtrados_projetos.csv"
	// ContentType is sent with the export.
	ContentType = "text/csv; charset=utf-8"

	dateLayout = "2006-01-02"
)

// Encode writes the view as CSV: the header is columns in source order, then one row
// per task. There is no index column.
func Encode(columns []string, view []task.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	row := make([]string, len(columns))
	for _, t := range view {
		for i, col := range columns {
			row[i] = Cell(t, col)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Cell renders one field of t as it is written to CSV: dates as YYYY-MM-DD, hours
// with minimal digits, absent values as empty strings.
func Cell(t task.Task, col string) string {
	switch {
	case task.IsDateColumn(col):
		return formatDate(t.Date(col))
	case task.IsHourColumn(col):
		return formatHours(t.Hours(col))
	}
	return t.Text(col)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatHours(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ViewKey identifies a filtered view: the content hash of its source table plus the
// canonical selection and ordering that produced it.
func ViewKey(tableHash uint64, parts ...string) uint64 {
	d := xxhash.New()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], tableHash)
	_, _ = d.Write(b[:])
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Exporter memoises encoded exports by view key. When the table is full it is
// cleared before the new entry is added.
type Exporter struct {
	mu      sync.Mutex
	max     int
	entries map[uint64][]byte
}

// NewExporter returns an Exporter holding at most max encoded views.
func NewExporter(max int) *Exporter {
	if max <= 0 {
		max = 1
	}
	return &Exporter{max: max, entries: map[uint64][]byte{}}
}

// Export returns the CSV bytes of view, reusing a previous encoding for the same key.
func (e *Exporter) Export(key uint64, columns []string, view []task.Task) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.entries[key]; ok {
		slog.Debug("export.cache.hit", "key", key)
		return b, nil
	}
	b, err := Encode(columns, view)
	if err != nil {
		return nil, err
	}
	if len(e.entries) >= e.max {
		e.entries = map[uint64][]byte{}
	}
	e.entries[key] = b
	slog.Debug("export.encoded", "key", key, "rows", len(view), "bytes", len(b))
	return b, nil
}

// Len is the number of cached exports.
func (e *Exporter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}
