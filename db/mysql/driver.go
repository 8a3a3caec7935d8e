package mysql

import (
	"fmt"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/kasuganosora/neonmaze/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to MySQL using the dsn and pool limits from cfg.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn, err := normalizeDSN(cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               dsn,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle, maxLife := poolLimits(cfg)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLife)
	return db, nil
}

// normalizeDSN validates dsn and forces the options the round and audit
// tables depend on: DATETIME columns scan into time.Time and are read as UTC.
func normalizeDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("mysql: empty dsn")
	}
	c, err := sqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql: parse dsn: %w", err)
	}
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN(), nil
}

// poolLimits fills unset limits and keeps the idle pool within the open cap.
func poolLimits(cfg config.DatabaseConfig) (maxOpen, maxIdle int, maxLife time.Duration) {
	maxOpen, maxIdle, maxLife = cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife
	if maxOpen <= 0 {
		maxOpen = 50
	}
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = min(10, maxOpen)
	}
	if maxLife <= 0 {
		maxLife = time.Hour
	}
	return maxOpen, maxIdle, maxLife
}
