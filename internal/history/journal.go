package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	"github.com/evanofslack/cfdns/internal/metrics"
)

const eventPrefix = "event:"

type Journal interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, limit int) ([]Event, error)
	Close() error
}

type badgerJournal struct {
	db        *badger.DB
	metrics   *metrics.Metrics
	retention time.Duration
}

// New opens the journal at path. Events expire after retention; zero keeps
// them forever.
func New(path string, retention time.Duration, metrics *metrics.Metrics) (Journal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &badgerJournal{db: db, metrics: metrics, retention: retention}, nil
}

func (j *badgerJournal) Append(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		j.metrics.IncHistoryRequest("create", false)
		return err
	}

	entry := badger.NewEntry(eventKey(event), data)
	if j.retention > 0 {
		entry = entry.WithTTL(j.retention)
	}
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	j.metrics.IncHistoryRequest("create", err == nil)
	return err
}

// List returns up to limit events, newest first. A limit of zero or less
// returns everything.
func (j *badgerJournal) List(ctx context.Context, limit int) ([]Event, error) {
	events := []Event{}

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventPrefix)
		for it.Seek(append([]byte(eventPrefix), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var event Event
				if err := json.Unmarshal(val, &event); err != nil {
					return err
				}
				events = append(events, event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	j.metrics.IncHistoryRequest("read", err == nil)
	return events, err
}

func (j *badgerJournal) Close() error {
	return j.db.Close()
}

// Keys sort by time so reverse iteration yields newest first.
func eventKey(event Event) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", eventPrefix, event.Time.UnixNano(), event.ID))
}
