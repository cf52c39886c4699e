package badger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/fathomlight/docsmith/storage"
)

// Store is a BadgerDB-backed vector store. Namespaces map to key prefixes;
// queries scan the namespace and score records by cosine similarity.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a BadgerDB-backed store at the specified path.
// Creates the directory if it doesn't exist. An empty path with inMemory
// set opens an ephemeral store.
func Open(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: slog.Default().With("component", "badger-store"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx executes fn within a BadgerDB transaction. The transaction is
// discarded automatically if fn returns an error.
func (s *Store) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := s.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// Upsert inserts or overwrites records by ID within one transaction.
func (s *Store) Upsert(ctx context.Context, namespace string, records ...*storage.Record) error {
	if len(records) == 0 {
		return nil
	}

	return s.withTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.ID == "" {
				return fmt.Errorf("%w: record id is empty", storage.ErrInvalidQuery)
			}
			key := makeRecordKey(namespace, record.ID)
			if err := tx.Set(key, storage.MarshalRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Fetch retrieves a single record by ID.
func (s *Store) Fetch(ctx context.Context, namespace, id string) (*storage.Record, error) {
	var result *storage.Record
	err := s.withTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordKey(namespace, id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Query scans the namespace and returns up to topK filter matches ranked
// by cosine similarity to the query vector. A nil vector returns all
// matches with zero scores, ordered by record ID. topK <= 0 means no limit.
func (s *Store) Query(ctx context.Context, namespace string, vector []float32, filter *storage.Filter, topK int) ([]*storage.Match, error) {
	var matches []*storage.Match

	prefix := makeNamespacePrefix(namespace)
	err := s.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := iter.Item()
			if !bytes.HasPrefix(item.Key(), prefix) {
				continue
			}

			var record *storage.Record
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || !filter.Matches(record.Metadata) {
				continue
			}

			score := float32(0)
			if vector != nil {
				score = cosineSimilarity(vector, record.Vector)
			}
			matches = append(matches, &storage.Match{Record: record, Score: score})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if vector != nil {
		// Rank by similarity descending
		slices.SortFunc(matches, func(a, b *storage.Match) int {
			if a.Score > b.Score {
				return -1
			}
			if a.Score < b.Score {
				return 1
			}
			return 0
		})
	} else {
		slices.SortFunc(matches, func(a, b *storage.Match) int {
			return bytes.Compare([]byte(a.Record.ID), []byte(b.Record.ID))
		})
	}

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

// Delete removes records by ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, namespace string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	return s.withTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeRecordKey(namespace, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions are compared over the shorter length.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
