package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rxforms/backend/internal/domain/document"
)

const redisScanCount = 100

var _ document.Repository = (*RedisDocumentRepository)(nil)

// RedisDocumentRepository stores each document as a string value under its
// key
type RedisDocumentRepository struct {
	client redis.UniversalClient
}

// NewRedisDocumentRepository creates a new RedisDocumentRepository
func NewRedisDocumentRepository(client redis.UniversalClient) *RedisDocumentRepository {
	return &RedisDocumentRepository{client: client}
}

// List scans the document keyspace and returns the records ordered by key.
// Values are read with one pipelined GET per key, which a cluster routes
// by slot. Keys deleted between the scan and the fetch are skipped, as are
// keys holding something other than a string.
func (r *RedisDocumentRepository) List(ctx context.Context) ([]document.Record, error) {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}
	if len(keys) == 0 {
		return []document.Record{}, nil
	}

	sort.Strings(keys)
	// SCAN may return a key more than once
	keys = dedupSorted(keys)

	cmds := make([]*redis.StringCmd, len(keys))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.Get(ctx, key)
		}
		return nil
	})
	if err != nil && !isSkippableRead(err) {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	records := make([]document.Record, 0, len(keys))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if isSkippableRead(err) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch document key %q: %w", keys[i], err)
		}
		name, ok := document.NameFromKey(keys[i])
		if !ok {
			continue
		}
		records = append(records, document.Record{Name: name, Data: data})
	}
	return records, nil
}

// scanKeys collects the document keys. A cluster is scanned on every
// master, since SCAN only walks the node it is sent to.
func (r *RedisDocumentRepository) scanKeys(ctx context.Context) ([]string, error) {
	scan := func(ctx context.Context, client redis.Cmdable) ([]string, error) {
		var keys []string
		iter := client.Scan(ctx, 0, document.KeyPrefix+"*", redisScanCount).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		return keys, iter.Err()
	}

	cluster, ok := r.client.(*redis.ClusterClient)
	if !ok {
		return scan(ctx, r.client)
	}
	var (
		mu   sync.Mutex
		keys []string
	)
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		found, err := scan(ctx, node)
		if err != nil {
			return err
		}
		mu.Lock()
		keys = append(keys, found...)
		mu.Unlock()
		return nil
	})
	return keys, err
}

// isSkippableRead reports whether a GET failed because the key vanished
// or holds another type
func isSkippableRead(err error) bool {
	return errors.Is(err, redis.Nil) || strings.HasPrefix(err.Error(), "WRONGTYPE")
}

// Get returns the stored bytes for name
func (r *RedisDocumentRepository) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := r.client.Get(ctx, document.Key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, document.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get document %q: %w", name, err)
	}
	return data, nil
}

// Put stores data under the key for name without expiration
func (r *RedisDocumentRepository) Put(ctx context.Context, name string, data []byte) error {
	if err := r.client.Set(ctx, document.Key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to put document %q: %w", name, err)
	}
	return nil
}

// Delete removes the key for name. Deleting an absent key succeeds.
func (r *RedisDocumentRepository) Delete(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, document.Key(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete document %q: %w", name, err)
	}
	return nil
}

func dedupSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(out) > 0 && out[len(out)-1] == k {
			continue
		}
		out = append(out, k)
	}
	return out
}
