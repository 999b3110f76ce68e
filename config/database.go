package config

import (
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const SearchLimit = 10

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// DatabasePath returns the sqlite file the pipeline persists into.
// Defaults to pricebook.db in the working directory.
func DatabasePath() string {
	if p := os.Getenv("PRICEBOOK_DB"); p != "" {
		return p
	}
	return "pricebook.db"
}

// ConnectDatabase opens (or creates) the sqlite store and sets the global DB.
//
// The store is a single file shared by concurrently running batch processes,
// so the connection enforces:
//   - foreign_keys=ON (ingredient -> supplier, history -> ingredient)
//   - WAL journaling (readers don't block the batch writer)
//   - synchronous=NORMAL (safe with WAL, much cheaper than FULL)
//   - busy_timeout=20000 (statement-level 20s cap when another process writes)
func ConnectDatabase() error {
	dsn := DatabasePath() +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(20000)"

	var err error
	db, err = gorm.Open(sqlite.Open(dsn), initConfig())
	if err != nil {
		return err
	}

	if sqlDB, derr := db.DB(); derr == nil && sqlDB != nil {
		// sqlite allows a single writer; funneling through one connection
		// avoids SQLITE_BUSY churn between goroutines of the same process.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxIdleTime(time.Minute)
	}

	if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}
	return nil
}

// InitConfig Initialize Config
func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

// InitLog Connection Log Configuration
func initLog() logger.Interface {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
	return newLogger
}

// InitNamingStrategy Init NamingStrategy
func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
