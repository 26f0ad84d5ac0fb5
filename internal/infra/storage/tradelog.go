package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"grid_go/internal/domain"
)

// TradeLog is the append-only fill audit trail backed by SQLite. The
// engine only ever inserts; reads exist for external reporting.
type TradeLog struct {
	db *gorm.DB
}

var _ domain.TradeRecorder = (*TradeLog)(nil)

// NewTradeLog opens (and migrates) the trade database at the given path.
func NewTradeLog(path string) (*TradeLog, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trade DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to trade database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.Trade{}); err != nil {
		return nil, fmt.Errorf("failed to migrate trade database: %w", err)
	}

	return &TradeLog{db: db}, nil
}

// Record appends one fill to the trail.
func (l *TradeLog) Record(trade *domain.Trade) error {
	return l.db.Create(trade).Error
}

// RecentTrades returns the latest fills, newest first. Used by external
// reporting, never by the engine.
func (l *TradeLog) RecentTrades(limit int) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := l.db.Order("timestamp DESC").Limit(limit).Find(&trades).Error
	return trades, err
}

// TradeCount returns the number of recorded fills.
func (l *TradeLog) TradeCount() (int64, error) {
	var count int64
	err := l.db.Model(&domain.Trade{}).Count(&count).Error
	return count, err
}
