package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamClient is a KVClient over a NATS JetStream key-value bucket.
type JetStreamClient struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// DialJetStream connects to url and opens (creating if needed) bucket.
func DialJetStream(ctx context.Context, url, bucket string) (*JetStreamClient, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to connect to NATS: %w", err))
	}

	client, err := NewJetStreamClient(ctx, nc, bucket)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return client, nil
}

// NewJetStreamClient opens bucket over an existing connection. The client
// owns nc from then on.
func NewJetStreamClient(ctx context.Context, nc *nats.Conn, bucket string) (*JetStreamClient, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Habit tracker records",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, jetStreamError(fmt.Errorf("failed to open bucket %s: %w", bucket, err))
	}
	return &JetStreamClient{nc: nc, kv: kv}, nil
}

// subject maps "<kind>:<userId>" onto a valid JetStream key; ':' is not
// allowed in bucket keys.
func subject(key string) string {
	return strings.ReplaceAll(key, ":", ".")
}

func (c *JetStreamClient) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := c.kv.Get(ctx, subject(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, jetStreamError(err)
	}
	return entry.Value(), nil
}

func (c *JetStreamClient) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.kv.Put(ctx, subject(key), value)
	return jetStreamError(err)
}

func (c *JetStreamClient) Delete(ctx context.Context, key string) error {
	return jetStreamError(c.kv.Delete(ctx, subject(key)))
}

func (c *JetStreamClient) Ping(ctx context.Context) error {
	if !c.nc.IsConnected() {
		return unavailable(nats.ErrConnectionClosed)
	}
	return jetStreamError(c.nc.FlushWithContext(ctx))
}

func (c *JetStreamClient) Close() error {
	c.nc.Close()
	return nil
}

func jetStreamError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoResponders) || errors.Is(err, nats.ErrNoServers) ||
		isConnectivity(err) {
		return unavailable(err)
	}
	return err
}
