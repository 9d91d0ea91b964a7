package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gorm.io/gorm"
)

// Probe is what startup learned about the environment.
type Probe struct {
	// DBErr is nil when the relational database opened and answered.
	DB    *gorm.DB
	DBErr error
	// KV is nil when no key-value binding is configured.
	KV    KVClient
	KVErr error
}

// ResolveBackend picks the most capable backend the probe found usable:
// the database, then the key-value service, then the local device.
func ResolveBackend(p Probe) Backend {
	if p.DB != nil && p.DBErr == nil {
		return BackendDatabase
	}
	if p.KV != nil && p.KVErr == nil {
		return BackendKeyValue
	}
	return BackendLocalOnly
}

// Status is the backend signal exposed to clients.
type Status struct {
	Backend    Backend `json:"backend"`
	Persistent bool    `json:"persistent"`
	Reason     string  `json:"reason,omitempty"`
}

// Selection is the outcome of Open: the authoritative store for this process
// and the local store on the device.
type Selection struct {
	Store  Store
	Local  *LocalStore
	Status Status

	closers []func() error
}

func (s *Selection) Backend() Backend { return s.Status.Backend }

// Close releases the connections opened during selection.
func (s *Selection) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenOptions describes how to reach each candidate backend. A nil opener
// means the backend is not configured.
type OpenOptions struct {
	OpenDB      func() (*gorm.DB, error)
	CloseDB     func(*gorm.DB) error
	OpenKV      func(ctx context.Context) (KVClient, error)
	LocalFs     afero.Fs
	LocalDir    string
	PingTimeout time.Duration
	Logger      *slog.Logger
}

// Open probes the configured backends once and returns the selection. The
// choice is final for the life of the process. Only a failure to prepare the
// local store is an error.
func Open(ctx context.Context, opts OpenOptions) (*Selection, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.LocalFs == nil {
		opts.LocalFs = afero.NewOsFs()
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}

	local, err := NewLocalStore(opts.LocalFs, opts.LocalDir, log)
	if err != nil {
		return nil, err
	}
	sel := &Selection{Local: local}

	var probe Probe
	var reasons []string

	if opts.OpenDB != nil {
		probe.DB, probe.DBErr = opts.OpenDB()
		if probe.DBErr != nil {
			log.Warn("database unavailable", "error", probe.DBErr)
			reasons = append(reasons, fmt.Sprintf("database: %v", probe.DBErr))
		}
	} else {
		reasons = append(reasons, "database: not configured")
	}

	if ResolveBackend(probe) != BackendDatabase && opts.OpenKV != nil {
		probe.KV, probe.KVErr = opts.OpenKV(ctx)
		if probe.KVErr == nil {
			pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
			probe.KVErr = probe.KV.Ping(pingCtx)
			cancel()
		}
		if probe.KVErr != nil {
			log.Warn("key-value service unavailable", "error", probe.KVErr)
			reasons = append(reasons, fmt.Sprintf("key-value: %v", probe.KVErr))
			if probe.KV != nil {
				_ = probe.KV.Close()
			}
		}
	} else if opts.OpenKV == nil {
		reasons = append(reasons, "key-value: not configured")
	}

	backend := ResolveBackend(probe)
	switch backend {
	case BackendDatabase:
		sel.Store = NewDatabaseStore(probe.DB, log)
		if opts.CloseDB != nil {
			db := probe.DB
			sel.closers = append(sel.closers, func() error { return opts.CloseDB(db) })
		}
		reasons = nil
	case BackendKeyValue:
		sel.Store = NewKeyValueStore(probe.KV, log)
		sel.closers = append(sel.closers, probe.KV.Close)
		reasons = nil
	default:
		sel.Store = local
	}

	sel.Status = Status{Backend: backend, Persistent: backend.Persistent()}
	sel.Status.Reason = strings.Join(reasons, "; ")
	log.Info("storage backend selected", "backend", backend)
	return sel, nil
}
