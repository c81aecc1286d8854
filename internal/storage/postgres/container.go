package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/tenemo/sealed-vote/internal/config"
	"github.com/tenemo/sealed-vote/internal/logger"
)

// Container owns the database connection and the repositories built on it
type Container struct {
	db     *gorm.DB
	log    *log.Logger
	states *StateRepository
}

// NewContainer connects, migrates and builds the repositories
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("Initializing PostgreSQL repository container...")

	db, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)
	if err := container.Health(); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:     db,
		log:    logger.Repository("postgres_container"),
		states: NewStateRepository(db),
	}
}

// States returns the snapshot repository
func (c *Container) States() *StateRepository {
	return c.states
}

func (c *Container) GetItem(ctx context.Context, key string) ([]byte, error) {
	return c.states.GetItem(ctx, key)
}

func (c *Container) SetItem(ctx context.Context, key string, value []byte) error {
	return c.states.SetItem(ctx, key, value)
}

func (c *Container) RemoveItem(ctx context.Context, key string) error {
	return c.states.RemoveItem(ctx, key)
}

// Health checks the connection and the snapshot table
func (c *Container) Health() error {
	if err := HealthCheckWithTimeout(c.db, 5*time.Second); err != nil {
		return err
	}

	var count int64
	if err := c.db.Table("persisted_states").Count(&count).Error; err != nil {
		c.log.Error("Repository health check failed", "repository", "persisted_states", "error", err)
		return fmt.Errorf("repository persisted_states health check failed: %w", err)
	}

	c.log.Debug("Container health check completed successfully", "snapshots", count)
	return nil
}

// Close closes the database connection
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	if err := Close(c.db); err != nil {
		return err
	}
	c.db = nil
	c.log.Info("PostgreSQL repository container closed successfully")
	return nil
}
