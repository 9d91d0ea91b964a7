// Package storage is the persistence port shared by every backend: a
// relational database, a key-value service, or files on the local device.
// Records are addressed by (kind, user) and exchanged as structured values.
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

type Backend string

const (
	BackendDatabase  Backend = "db"
	BackendKeyValue  Backend = "kv"
	BackendLocalOnly Backend = "local"
)

// Persistent reports whether data written to b outlives the current device.
func (b Backend) Persistent() bool {
	return b == BackendDatabase || b == BackendKeyValue
}

type Kind string

const (
	KindUser         Kind = "user"
	KindTasks        Kind = "tasks"
	KindAchievements Kind = "achievements"
	KindRewards      Kind = "rewards"
)

// Kinds lists every record kind in sync order.
var Kinds = []Kind{KindUser, KindTasks, KindAchievements, KindRewards}

// SchemaVersion is the version suffix of the local storage name.
func (k Kind) SchemaVersion() int {
	switch k {
	case KindUser, KindTasks:
		return 2
	case KindAchievements:
		return 3
	default:
		return 1
	}
}

func (k Kind) Valid() bool {
	switch k {
	case KindUser, KindTasks, KindAchievements, KindRewards:
		return true
	}
	return false
}

type Key struct {
	Kind   Kind
	UserID string
}

// String is the key-value layout, "<kind>:<userId>".
func (k Key) String() string {
	return string(k.Kind) + ":" + k.UserID
}

// LocalName is the on-device name, "<kind>-v<version>". The device holds a
// single user so the id is not part of it.
func (k Key) LocalName() string {
	return fmt.Sprintf("%s-v%d", k.Kind, k.Kind.SchemaVersion())
}

var (
	// ErrUnavailable wraps failures to reach the backend at all.
	ErrUnavailable = errors.New("storage backend unavailable")
	ErrUnknownKind = errors.New("unknown record kind")
)

// Store reads and writes whole records. Get reports false, with a nil error,
// when the key is missing or its stored value cannot be decoded.
type Store interface {
	Backend() Backend
	Get(ctx context.Context, key Key, dest any) (bool, error)
	Put(ctx context.Context, key Key, value any) error
	Delete(ctx context.Context, key Key) error
}

// Entry is one record of a batch write.
type Entry struct {
	Key   Key
	Value any
}

// BatchStore is implemented by stores that can write several records as a
// unit.
type BatchStore interface {
	Store
	PutBatch(ctx context.Context, entries []Entry) error
}

// PutAll writes entries through PutBatch when s supports it, one Put at a
// time otherwise.
func PutAll(ctx context.Context, s Store, entries []Entry) error {
	if b, ok := s.(BatchStore); ok {
		return b.PutBatch(ctx, entries)
	}
	for _, e := range entries {
		if err := s.Put(ctx, e.Key, e.Value); err != nil {
			return fmt.Errorf("put %s: %w", e.Key, err)
		}
	}
	return nil
}

// unavailable marks err as a connectivity failure.
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// isConnectivity recognises transport-level failures common to the drivers.
func isConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// database/sql does not export its closed-pool error
	return strings.Contains(err.Error(), "sql: database is closed")
}
