package migrations

import "gorm.io/gorm"

// migration001Up creates the snapshot table using GORM AutoMigrate
func migration001Up(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

// migration001Down drops the snapshot table
func migration001Down(db *gorm.DB) error {
	return db.Migrator().DropTable(AllModels()...)
}
