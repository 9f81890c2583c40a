// Package catalog 加载大学目录文件，并在文件变化时热更新过滤选项。
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/pkg/utils/json"
)

// Catalog 只读的大学目录。
type Catalog struct {
	path string

	mu           sync.RWMutex
	universities []model.UniversityRecord
	filters      model.FilterOptions

	handlersMu sync.Mutex
	handlers   []func(*Catalog)
}

// Load 读取并解析目录文件。
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path 返回目录文件路径。
func (c *Catalog) Path() string { return c.path }

// Reload 重新读取目录文件，失败时保留旧内容。
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var file model.Catalog
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode catalog %s: %w", c.path, err)
	}

	filters := deriveFilters(file.Universities)
	if file.Filters != nil {
		filters = normalizeFilters(*file.Filters)
	}

	c.mu.Lock()
	c.universities = file.Universities
	c.filters = filters
	c.mu.Unlock()

	logger.Infow("catalog loaded", "path", c.path, "universities", len(file.Universities))
	return nil
}

// Universities 返回全部大学记录的副本。
func (c *Catalog) Universities() []model.UniversityRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.UniversityRecord, len(c.universities))
	copy(out, c.universities)
	return out
}

// Filters 返回可用的过滤选项。
func (c *Catalog) Filters() model.FilterOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.FilterOptions{
		Cities:        slices.Clone(c.filters.Cities),
		Categories:    slices.Clone(c.filters.Categories),
		EntScoreRange: c.filters.EntScoreRange,
	}
}

// OnReload 注册热更新回调，回调在 Watch 的 goroutine 中执行。
func (c *Catalog) OnReload(fn func(*Catalog)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// Watch 监听目录文件所在目录，文件写入或替换后重新加载，直到 ctx 结束。
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(c.path)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go c.loop(ctx, w, abs)
	logger.Infow("catalog watcher started", "path", abs)
	return nil
}

func (c *Catalog) loop(ctx context.Context, w *fsnotify.Watcher, abs string) {
	defer w.Close()

	const debounce = 100 * time.Millisecond
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := c.Reload(); err != nil {
				logger.Warnw("catalog reload failed, keeping previous content", "path", abs, "error", err.Error())
				continue
			}
			c.notify()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warnw("catalog watcher error", "error", err.Error())
		}
	}
}

func (c *Catalog) notify() {
	c.handlersMu.Lock()
	handlers := append([]func(*Catalog)(nil), c.handlers...)
	c.handlersMu.Unlock()

	for _, fn := range handlers {
		fn(c)
	}
}

// deriveFilters 在文件未声明 filters 时从记录中汇总。
func deriveFilters(unis []model.UniversityRecord) model.FilterOptions {
	cities := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, u := range unis {
		if u.City != "" {
			cities[u.City] = struct{}{}
		}
		if u.Category != "" {
			categories[u.Category] = struct{}{}
		}
	}
	return model.FilterOptions{
		Cities:        sortedKeys(cities),
		Categories:    sortedKeys(categories),
		EntScoreRange: scoreRange(unis),
	}
}

// scoreRange 取记录中 ENT 分数的最小下限与最大上限，缺一侧时用默认值补齐。
func scoreRange(unis []model.UniversityRecord) model.ScoreRange {
	var r model.ScoreRange
	for _, u := range unis {
		if u.EntMinScore > 0 && (r.Min == 0 || u.EntMinScore < r.Min) {
			r.Min = u.EntMinScore
		}
		if u.EntMaxScore > r.Max {
			r.Max = u.EntMaxScore
		}
	}
	if r.Min == 0 {
		r.Min = model.DefaultScoreRange.Min
	}
	if r.Max == 0 {
		r.Max = model.DefaultScoreRange.Max
	}
	if r.Max < r.Min {
		r.Max = r.Min
	}
	return r
}

func normalizeFilters(f model.FilterOptions) model.FilterOptions {
	if f.Cities == nil {
		f.Cities = []string{}
	}
	if f.Categories == nil {
		f.Categories = []string{}
	}
	if f.EntScoreRange == (model.ScoreRange{}) {
		f.EntScoreRange = model.DefaultScoreRange
	}
	return f
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
