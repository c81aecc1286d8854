package migrations

import "time"

// PersistedState is one persisted state snapshot
type PersistedState struct {
	Key       string    `gorm:"type:text;primaryKey"`
	Value     string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (PersistedState) TableName() string {
	return "persisted_states"
}

// AllModels returns every model managed by the migrations
func AllModels() []any {
	return []any{
		&PersistedState{},
	}
}
