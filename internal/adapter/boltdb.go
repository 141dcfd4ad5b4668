package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/h2hsecure/entitymanager/internal/domain"
)

const (
	bucketAccounts = "accounts"

	// fixed width so keys sort by creation time
	keyTimeLayout = "20060102T150405.000000000Z"
)

func NewBoltJournal(path string, readOnly bool) (domain.Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("db open: path '%s' %w", path, err)
	}

	if readOnly {
		return &boltAdapter{db: db}, nil
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketAccounts))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &boltAdapter{db: db}, nil
}

type boltAdapter struct {
	db *bolt.DB
}

func (b *boltAdapter) Close() error {
	return b.db.Close()
}

func journalKey(entry domain.JournalEntry) []byte {
	return []byte(entry.CreatedAt.UTC().Format(keyTimeLayout) + "/" + entry.ID)
}

// Record implements domain.Journal.
func (b *boltAdapter) Record(ctx context.Context, entry domain.JournalEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("journal entry without id")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	m, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("db value marshal: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketAccounts))
		if bucket == nil {
			return fmt.Errorf("db bucket %s: %w", bucketAccounts, domain.ErrNotFound)
		}
		return bucket.Put(journalKey(entry), m)
	})
	if err != nil {
		return fmt.Errorf("db put: %w", err)
	}

	return nil
}

// List implements domain.Journal, oldest first.
func (b *boltAdapter) List(ctx context.Context) ([]domain.JournalEntry, error) {
	var ret []domain.JournalEntry

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketAccounts))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var entry domain.JournalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("db value unmarshal %s: %w", k, err)
			}
			ret = append(ret, entry)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("db foreach: %w", err)
	}

	return ret, nil
}
