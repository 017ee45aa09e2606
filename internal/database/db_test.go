package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/library-lending/internal/config"
)

func TestDSN(t *testing.T) {
	got := dsn(config.Config{
		DBUser: "library",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "lending",
	})
	assert.Equal(t,
		"library:s3cret@tcp(db.internal:3306)/lending?charset=utf8mb4&parseTime=true&loc=UTC",
		got)
}

func TestDSNEmptyPassword(t *testing.T) {
	got := dsn(config.Config{
		DBUser: "root",
		DBHost: "localhost",
		DBPort: "3306",
		DBName: "lending",
	})
	assert.Equal(t,
		"root@tcp(localhost:3306)/lending?charset=utf8mb4&parseTime=true&loc=UTC",
		got)
}
