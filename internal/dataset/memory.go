// File path: internal/dataset/memory.go
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"context"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
)

// deadlineCheckInterval bounds how many rows an iterator advances between
// context checks, so scans over large datasets still honor the turn
// deadline.
const deadlineCheckInterval = 1024

// MemorySource serves datasets from columnar JSON files on disk, one file
// per dataset named <dataset>.json:
//
//	{"columns": {"code": [369947, 512003], "price": [12.5, null]}}
//
// Cells are coerced to their catalog types on load, so iterators hand out
// rows with canonical Go values.
type MemorySource struct {
	reg   *catalog.Registry
	dir   string
	cache bool

	mu     sync.Mutex
	loaded map[string]*cachedDataset
}

type cachedDataset struct {
	once sync.Once
	rows []Row
	err  error
}

func NewMemorySource(reg *catalog.Registry, cfg Config) *MemorySource {
	cfg.applyDefaults()
	return &MemorySource{
		reg:    reg,
		dir:    cfg.Dir,
		cache:  cfg.CacheDatasets,
		loaded: make(map[string]*cachedDataset),
	}
}

func (s *MemorySource) Name() string { return "memory" }

func (s *MemorySource) Scan(ctx context.Context, req ScanRequest) (Iterator, error) {
	entry, ok := s.reg.Entry(req.Dataset)
	if !ok {
		return nil, unknownDataset(s.Name(), req.Dataset)
	}
	rows, err := s.rows(entry)
	if err != nil {
		return nil, err
	}
	return &memoryIterator{rows: rows, req: req}, nil
}

func (s *MemorySource) rows(entry *catalog.Entry) ([]Row, error) {
	if !s.cache {
		return s.loadFile(entry)
	}
	s.mu.Lock()
	cached, ok := s.loaded[entry.DatasetName]
	if !ok {
		cached = &cachedDataset{}
		s.loaded[entry.DatasetName] = cached
	}
	s.mu.Unlock()
	cached.once.Do(func() {
		cached.rows, cached.err = s.loadFile(entry)
		if cached.err == nil {
			common.Logger().Info("dataset: cached", "dataset", entry.DatasetName, "rows", len(cached.rows))
		}
	})
	return cached.rows, cached.err
}

type columnarFile struct {
	Columns map[string][]interface{} `json:"columns"`
}

func (s *MemorySource) loadFile(entry *catalog.Entry) ([]Row, error) {
	path := filepath.Join(s.dir, entry.DatasetName+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	var file columnarFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	length := -1
	for name, cells := range file.Columns {
		if _, ok := entry.Column(catalog.Normalize(name)); !ok {
			return nil, fmt.Errorf("dataset: %s: column %q is not in the catalog", entry.DatasetName, name)
		}
		if length == -1 {
			length = len(cells)
		} else if len(cells) != length {
			return nil, fmt.Errorf("dataset: %s: column %q has %d cells, want %d", entry.DatasetName, name, len(cells), length)
		}
	}
	if length == -1 {
		length = 0
	}
	rows := make([]Row, length)
	for i := range rows {
		rows[i] = make(Row, len(entry.Columns))
	}
	for _, col := range entry.Columns {
		cells := lookupColumn(file.Columns, col)
		for i := 0; i < length; i++ {
			if cells == nil || cells[i] == nil {
				rows[i][col.Name] = nil
				continue
			}
			value, cerr := catalog.CoerceValue(col, cells[i])
			if cerr != nil {
				return nil, fmt.Errorf("dataset: %s row %d column %s: %s", entry.DatasetName, i, col.Name, cerr.Message)
			}
			rows[i][col.Name] = value
		}
	}
	return rows, nil
}

// lookupColumn resolves a catalog column against the raw file columns,
// tolerating the original unnormalized spelling.
func lookupColumn(columns map[string][]interface{}, col catalog.Column) []interface{} {
	if cells, ok := columns[col.Name]; ok {
		return cells
	}
	for name, cells := range columns {
		if catalog.Normalize(name) == col.Name {
			return cells
		}
	}
	return nil
}

type memoryIterator struct {
	rows []Row
	req  ScanRequest

	pos     int
	stepped int
	limited bool
	current Row
	err     error
	closed  bool
}

func (it *memoryIterator) Next(ctx context.Context) bool {
	if it.closed || it.err != nil {
		return false
	}
	for it.pos < len(it.rows) {
		if it.req.ExamineLimit > 0 && it.stepped >= it.req.ExamineLimit {
			it.limited = true
			return false
		}
		it.stepped++
		if it.stepped%deadlineCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				it.err = err
				return false
			}
		}
		row := it.rows[it.pos]
		it.pos++
		if !MatchRow(row, it.req.Filters) {
			continue
		}
		it.current = projectRow(cloneRow(row), it.req.Columns)
		return true
	}
	return false
}

func (it *memoryIterator) Row() Row      { return it.current }
func (it *memoryIterator) Err() error    { return it.err }
func (it *memoryIterator) Examined() int { return it.stepped }
func (it *memoryIterator) Limited() bool { return it.limited }
func (it *memoryIterator) Close() error {
	it.closed = true
	return nil
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
