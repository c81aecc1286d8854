package migrations

import "gorm.io/gorm"

// migration002Up indexes snapshots by last write
func migration002Up(db *gorm.DB) error {
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_persisted_states_updated_at ON persisted_states(updated_at DESC)").Error
}

// migration002Down drops the index
func migration002Down(db *gorm.DB) error {
	return db.Exec("DROP INDEX IF EXISTS idx_persisted_states_updated_at").Error
}
