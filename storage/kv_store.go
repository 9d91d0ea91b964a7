package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrKeyNotFound is returned by KVClient.Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// KVClient is the byte-level key-value service behind KeyValueStore.
// Implementations wrap transport failures with ErrUnavailable.
type KVClient interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// KeyValueStore keeps each record as a JSON document under "<kind>:<userId>".
type KeyValueStore struct {
	client KVClient
	log    *slog.Logger
}

func NewKeyValueStore(client KVClient, log *slog.Logger) *KeyValueStore {
	return &KeyValueStore{client: client, log: log.With("backend", BackendKeyValue)}
}

func (s *KeyValueStore) Backend() Backend { return BackendKeyValue }

func (s *KeyValueStore) Get(ctx context.Context, key Key, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key.String())
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, s.failed("get", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warn("stored value is malformed, treating as absent", "key", key.String(), "error", err)
		return false, nil
	}
	return true, nil
}

func (s *KeyValueStore) Put(ctx context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key.String(), data); err != nil {
		return s.failed("put", key, err)
	}
	return nil
}

// PutBatch encodes every entry before writing any, so a value that cannot
// be encoded aborts the batch without touching the store.
func (s *KeyValueStore) PutBatch(ctx context.Context, entries []Entry) error {
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Key, err)
		}
		encoded[i] = data
	}
	for i, e := range entries {
		if err := s.client.Set(ctx, e.Key.String(), encoded[i]); err != nil {
			return s.failed("put", e.Key, err)
		}
	}
	return nil
}

func (s *KeyValueStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Delete(ctx, key.String()); err != nil {
		return s.failed("delete", key, err)
	}
	return nil
}

func (s *KeyValueStore) failed(op string, key Key, err error) error {
	if errors.Is(err, ErrUnavailable) {
		s.log.Warn("key-value service unreachable", "op", op, "key", key.String(), "error", err)
	} else {
		s.log.Error("key-value operation failed", "op", op, "key", key.String(), "error", err)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}
