package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres connection used by every workflow and handler.
// TranslateError maps unique-constraint violations to gorm.ErrDuplicatedKey,
// which the workflows turn into conflict failures.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
}
