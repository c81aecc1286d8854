// Package ttstore keeps state snapshots in a Tarantool space.
//
// The space is expected to exist:
//
//	box.schema.space.create('persisted_states', {if_not_exists = true})
//	box.space.persisted_states:create_index('primary', {parts = {{1, 'string'}}, if_not_exists = true})
package ttstore

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tarantool/go-tarantool/v2"

	"github.com/tenemo/sealed-vote/internal/flux"
	"github.com/tenemo/sealed-vote/internal/logger"
)

const (
	stateSpace = "persisted_states"

	reconnectInterval = 3 * time.Second
	requestTimeout    = time.Second
)

// Config holds the connection settings
type Config struct {
	Address       string
	User          string
	Password      string
	MaxReconnects int
}

// Storage implements flux.Storage on a Tarantool space
type Storage struct {
	conn *tarantool.Connection
	log  *log.Logger
}

var _ flux.Storage = (*Storage)(nil)

// Connect dials Tarantool
func Connect(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("tarantool address cannot be empty")
	}

	dialer := tarantool.NetDialer{
		Address:  cfg.Address,
		User:     cfg.User,
		Password: cfg.Password,
	}
	opts := tarantool.Opts{
		Timeout:       requestTimeout,
		Reconnect:     reconnectInterval,
		MaxReconnects: uint(max(cfg.MaxReconnects, 0)),
	}

	conn, err := tarantool.Connect(ctx, dialer, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tarantool at %s: %w", cfg.Address, err)
	}

	s := NewStorage(conn)
	s.log.Info("Connected to tarantool", "address", cfg.Address)
	return s, nil
}

// NewStorage wraps an open connection
func NewStorage(conn *tarantool.Connection) *Storage {
	return &Storage{
		conn: conn,
		log:  logger.Repository("tarantool"),
	}
}

func (s *Storage) GetItem(ctx context.Context, key string) ([]byte, error) {
	var res []StateModel
	if err := s.conn.Do(
		tarantool.NewSelectRequest(stateSpace).
			Context(ctx).
			Index("primary").
			Limit(1).
			Key(tarantool.StringKey{S: key}),
	).GetTyped(&res); err != nil {
		return nil, fmt.Errorf("could not select snapshot %s in tarantool: %w", key, err)
	}
	if len(res) == 0 {
		return nil, flux.ErrNotFound
	}
	return res[0].Value, nil
}

func (s *Storage) SetItem(ctx context.Context, key string, value []byte) error {
	if _, err := s.conn.Do(
		tarantool.NewReplaceRequest(stateSpace).
			Context(ctx).
			Tuple(&StateModel{Key: key, Value: value, UpdatedAt: time.Now().UTC()}),
	).Get(); err != nil {
		return fmt.Errorf("could not replace snapshot %s in tarantool: %w", key, err)
	}

	s.log.Debug("snapshot saved", "key", key, "size", len(value))
	return nil
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.conn.Do(
		tarantool.NewDeleteRequest(stateSpace).
			Context(ctx).
			Index("primary").
			Key(tarantool.StringKey{S: key}),
	).Get(); err != nil {
		return fmt.Errorf("could not delete snapshot %s in tarantool: %w", key, err)
	}
	return nil
}

// Close closes the connection
func (s *Storage) Close() error {
	return s.conn.Close()
}
