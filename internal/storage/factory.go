package storage

import (
	"context"
	"fmt"

	"github.com/tenemo/sealed-vote/internal/config"
	"github.com/tenemo/sealed-vote/internal/flux"
	"github.com/tenemo/sealed-vote/internal/storage/objectstore"
	"github.com/tenemo/sealed-vote/internal/storage/postgres"
	"github.com/tenemo/sealed-vote/internal/storage/ttstore"
)

// StorageType represents the type of storage backend
type StorageType string

const (
	// StorageTypeNone disables persistence
	StorageTypeNone StorageType = "none"
	// StorageTypeMemory keeps snapshots in process memory
	StorageTypeMemory StorageType = "memory"
	// StorageTypePostgres represents PostgreSQL storage
	StorageTypePostgres StorageType = "postgres"
	// StorageTypeMinio represents an S3 compatible bucket
	StorageTypeMinio StorageType = "minio"
	// StorageTypeTarantool represents a Tarantool space
	StorageTypeTarantool StorageType = "tarantool"
)

// Backend is a snapshot store holding resources that must be released
type Backend interface {
	flux.Storage
	Close() error
}

type memoryBackend struct {
	*flux.MemoryStorage
}

func (memoryBackend) Close() error { return nil }

// Factory provides a factory pattern for creating storage backends
type Factory struct {
	storageType StorageType
}

// NewFactory creates a new storage factory
func NewFactory(storageType StorageType) *Factory {
	return &Factory{
		storageType: storageType,
	}
}

// Type returns the configured storage type
func (f *Factory) Type() StorageType {
	return f.storageType
}

// CreateStorage creates the configured backend. StorageTypeNone returns a nil
// backend and no error.
func (f *Factory) CreateStorage(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch f.storageType {
	case StorageTypeNone:
		return nil, nil
	case StorageTypeMemory:
		return memoryBackend{flux.NewMemoryStorage()}, nil
	case StorageTypePostgres:
		return backend(postgres.NewContainer(cfg))
	case StorageTypeMinio:
		return backend(objectstore.New(ctx, objectstore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		}))
	case StorageTypeTarantool:
		return backend(ttstore.Connect(ctx, ttstore.Config{
			Address:       cfg.Tarantool.Address,
			User:          cfg.Tarantool.User,
			Password:      cfg.Tarantool.Password,
			MaxReconnects: cfg.Tarantool.MaxReconnects,
		}))
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", f.storageType)
	}
}

// backend keeps a failed constructor from yielding a non-nil Backend
// holding a nil pointer.
func backend(b Backend, err error) (Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetSupportedTypes returns a list of supported storage types
func GetSupportedTypes() []StorageType {
	return []StorageType{
		StorageTypeNone,
		StorageTypeMemory,
		StorageTypePostgres,
		StorageTypeMinio,
		StorageTypeTarantool,
	}
}

// ValidateStorageType validates if a storage type is supported
func ValidateStorageType(storageType string) (StorageType, error) {
	st := StorageType(storageType)

	for _, supported := range GetSupportedTypes() {
		if st == supported {
			return st, nil
		}
	}

	return "", fmt.Errorf("unsupported storage type: %s. Supported types: %v", storageType, GetSupportedTypes())
}

// DefaultFactory returns a factory configured with the default storage type
func DefaultFactory() *Factory {
	return NewFactory(StorageTypeMemory)
}
