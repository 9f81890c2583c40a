package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kart-io/logger"

	"github.com/kart-io/unirag/internal/model"
	badgeropts "github.com/kart-io/unirag/pkg/options/badger"
	"github.com/kart-io/unirag/pkg/utils/json"
)

// Badger 嵌入式持久化缓存。
type Badger struct {
	db     *badger.DB
	prefix []byte
	ttl    time.Duration
}

var _ QueryCache = (*Badger)(nil)

type badgerLogger struct{}

func (badgerLogger) Errorf(msg string, args ...any)   { logger.Errorf("badger: "+msg, args...) }
func (badgerLogger) Warningf(msg string, args ...any) { logger.Warnf("badger: "+msg, args...) }
func (badgerLogger) Infof(msg string, args ...any)    { logger.Debugf("badger: "+msg, args...) }
func (badgerLogger) Debugf(msg string, args ...any)   { logger.Debugf("badger: "+msg, args...) }

// OpenBadger 打开 Badger 数据库，目录不存在时自动创建。
func OpenBadger(opts *badgeropts.Options, prefix string, ttl time.Duration) (*Badger, error) {
	if opts == nil {
		opts = badgeropts.NewOptions()
	}

	var bo badger.Options
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		bo = badger.DefaultOptions(opts.Dir).WithSyncWrites(opts.SyncWrites)
	}
	bo.Logger = badgerLogger{}

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db, prefix: []byte(prefix), ttl: ttl}, nil
}

func (b *Badger) key(fp string) []byte {
	k := make([]byte, 0, len(b.prefix)+len(fp))
	k = append(k, b.prefix...)
	return append(k, fp...)
}

func (b *Badger) Get(_ context.Context, fp string) (*model.QueryResponse, error) {
	var resp *model.QueryResponse
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(fp))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			resp = &model.QueryResponse{}
			return json.Unmarshal(val, resp)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return resp, nil
}

func (b *Badger) Put(_ context.Context, fp string, resp *model.QueryResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(b.key(fp), data)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *Badger) Clear(context.Context) error {
	if err := b.db.DropPrefix(b.prefix); err != nil {
		return fmt.Errorf("badger drop prefix: %w", err)
	}
	logger.Infow("cleared query cache", "backend", b.Name())
	return nil
}

func (b *Badger) Len(context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: b.prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (b *Badger) Name() string { return "badger" }

func (b *Badger) Close() error { return b.db.Close() }
