package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foliolabs/folio/internal/config"
)

// VisitCounter is one named counter row.
type VisitCounter struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex;size:64"`
	Count int64
}

// Service holds the Postgres connection used for the visit counter.
type Service struct {
	db *gorm.DB
}

func NewService() *Service {
	dsn := config.GetDatabaseURL()
	if dsn == "" {
		return nil
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Postgres")
		return nil
	}

	if err := db.AutoMigrate(&VisitCounter{}); err != nil {
		log.Error().Err(err).Msg("Failed to migrate visit counter table")
		return nil
	}

	return &Service{db: db}
}

// NewServiceWithDB wires an existing gorm connection, used by tests.
func NewServiceWithDB(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetCount reads the current value of a counter. A counter that was never
// incremented reads as zero.
func (s *Service) GetCount(ctx context.Context, name string) (int64, error) {
	var row VisitCounter
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %q: %w", name, err)
	}
	return row.Count, nil
}

// Increment performs the read-modify-write inside a transaction, locking the
// row so sequential increments never lose updates.
func (s *Service) Increment(ctx context.Context, name string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row VisitCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = VisitCounter{Name: name}
		} else if err != nil {
			return err
		}

		row.Count++
		count = row.Count
		return tx.Save(&row).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %q: %w", name, err)
	}
	return count, nil
}
