package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/time/rate"

	"icednano/nano/design"
)

// ErrNoAutosave is returned by Latest when the journal holds no entry for a
// design.
var ErrNoAutosave = errors.New("no autosave")

// JournalConfig configures an autosave journal.
type JournalConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// Interval is the minimum time between two autosaves of the same journal.
	Interval time.Duration
	// Keep is how many entries per design survive Prune. Zero keeps all.
	Keep   int
	Logger *slog.Logger
}

// Journal keeps timestamped autosave copies of designs in badger, keyed by
// design id and a per-journal sequence number.
type Journal struct {
	db      *badger.DB
	limiter *rate.Limiter
	keep    int
	logger  *slog.Logger

	mu  sync.Mutex
	seq uint64
}

// badgerLogger adapts slog to badger's logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenJournal opens (or creates) an autosave journal.
func OpenJournal(cfg JournalConfig) (*Journal, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("journal path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create journal directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{logger: cfg.Logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	j := &Journal{
		db:      db,
		limiter: rate.NewLimiter(limit, 1),
		keep:    cfg.Keep,
		logger:  cfg.Logger,
	}
	if err := j.initSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

const journalPrefix = "autosave:"

func designPrefix(d *design.Design) []byte {
	return []byte(journalPrefix + d.ID.String() + ":")
}

func entryKey(prefix []byte, seq uint64) []byte {
	return fmt.Appendf(append([]byte(nil), prefix...), "%016d", seq)
}

// initSeq continues numbering after the highest sequence on disk.
func (j *Journal) initSeq() error {
	return j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(journalPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if len(key) < 16 {
				continue
			}
			var seq uint64
			if _, err := fmt.Sscanf(string(key[len(key)-16:]), "%016d", &seq); err == nil && seq > j.seq {
				j.seq = seq
			}
		}
		return nil
	})
}

// Autosave records d unless the last autosave is more recent than the
// configured interval. It reports whether an entry was written.
func (j *Journal) Autosave(ctx context.Context, d *design.Design) (bool, error) {
	if !j.limiter.Allow() {
		return false, nil
	}
	if err := j.Append(ctx, d); err != nil {
		return false, err
	}
	return true, nil
}

// Append records d unconditionally.
func (j *Journal) Append(ctx context.Context, d *design.Design) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(d)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.seq++
	key := entryKey(designPrefix(d), j.seq)
	j.mu.Unlock()

	if err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	j.logger.Debug("autosaved design", "id", d.ID, "seq", string(key[len(key)-16:]))
	if j.keep > 0 {
		if _, err := j.Prune(ctx, d, j.keep); err != nil {
			return err
		}
	}
	return nil
}

// Latest returns the most recent autosave of the design with d's id.
func (j *Journal) Latest(ctx context.Context, d *design.Design) (*design.Design, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := designPrefix(d)
	var data []byte
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), prefix...), 0xFF)
		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return ErrNoAutosave
		}
		var err error
		data, err = it.Item().ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("journal latest %s: %w", d.ID, err)
	}
	return Decode(data)
}

// Entries counts the autosaves of d.
func (j *Journal) Entries(d *design.Design) (int, error) {
	n := 0
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := designPrefix(d)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Prune deletes all but the newest keep autosaves of d and returns how many
// were removed.
func (j *Journal) Prune(ctx context.Context, d *design.Design, keep int) (int, error) {
	var keys [][]byte
	prefix := designPrefix(d)
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("journal prune: %w", err)
	}
	if len(keys) <= keep {
		return 0, nil
	}
	stale := keys[:len(keys)-keep]
	err = j.db.Update(func(txn *badger.Txn) error {
		for _, k := range stale {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("journal prune: %w", err)
	}
	return len(stale), nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
