package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tenemo/sealed-vote/internal/flux"
	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/storage/migrations"
)

// StateRepository keeps state snapshots in the persisted_states table
type StateRepository struct {
	db  *gorm.DB
	log *log.Logger
}

var _ flux.Storage = (*StateRepository)(nil)

// NewStateRepository creates a new PostgreSQL snapshot repository
func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{
		db:  db,
		log: logger.Repository("persisted_state"),
	}
}

func (r *StateRepository) GetItem(ctx context.Context, key string) ([]byte, error) {
	r.log.Debug("loading snapshot", "key", key)

	var row migrations.PersistedState
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flux.ErrNotFound
		}
		r.log.Error("failed to load snapshot", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}

	return []byte(row.Value), nil
}

func (r *StateRepository) SetItem(ctx context.Context, key string, value []byte) error {
	row := migrations.PersistedState{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		r.log.Error("failed to save snapshot", "key", key, "error", err)
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}

	r.log.Debug("snapshot saved", "key", key, "size", len(value))
	return nil
}

func (r *StateRepository) RemoveItem(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&migrations.PersistedState{}).Error; err != nil {
		r.log.Error("failed to remove snapshot", "key", key, "error", err)
		return fmt.Errorf("failed to remove snapshot %s: %w", key, err)
	}

	r.log.Info("snapshot removed", "key", key)
	return nil
}
