// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/snapfeed-app/snapfeed/model"
)

const (
	DialectPostgres = "postgres"
	DialectSqlite   = "sqlite"
)

// GetDBConnection returns a connection to the store selected by DB_DIALECT.
// "postgres" talks to a relational server, "sqlite" opens an embedded
// file-based store at DB_PATH. Both back the exact same data model.
func GetDBConnection() (*gorm.DB, error) {
	switch os.Getenv("DB_DIALECT") {
	case DialectSqlite:
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "snapfeed.db"
		}
		return getSqliteDB(path)
	default:
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"),
			os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))
		return getPostgresDB(dsn)
	}
}

func getPostgresDB(connectionString string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func getSqliteDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// Sqlite doesn't enforce foreign keys unless asked to; the view ledger
	// cascade depends on them.
	db.Exec("PRAGMA foreign_keys = ON")
	return db, nil
}

// DatabaseSetupAndMigration migrates every table the application owns.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.Hashtag{},
		&model.PostView{},
	)
}

// CreateTempDB creates a throwaway embedded DB for testing, note that this
// function should only be called in a testing environment with test state
// manager testing.T. The underlying file is removed after each test case, user
// will not need to drop the database explicitly.
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "testonlydb_"+RandomAlphabetString(8)+".db")
	db, err := getSqliteDB(path)
	if err != nil {
		t.Fatal("cannot open temp DB: ", err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatal("fail to migrate temp DB: ", err)
	}

	t.Cleanup(func() {
		// Proactively clean up the DB connection instead of deferring to GC,
		// the temp dir cannot be removed on some platforms while it's open.
		conn, _ := db.DB()
		conn.Close()
	})

	return db
}
