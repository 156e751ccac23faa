package lot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/scraprecon/internal/models"
)

// Single statement increment; valid on PostgreSQL and SQLite >= 3.35
const upsertIncrementSQL = `
INSERT INTO lot_sequence_counters (product_code, last_issued, updated_at)
VALUES (?, 1, ?)
ON CONFLICT (product_code)
DO UPDATE SET last_issued = lot_sequence_counters.last_issued + 1, updated_at = excluded.updated_at
RETURNING last_issued`

// GormSequencer keeps counters in the lot_sequence_counters table
type GormSequencer struct {
	db     *gorm.DB
	prefix string
}

func NewGormSequencer(db *gorm.DB, prefix string) *GormSequencer {
	return &GormSequencer{db: db, prefix: prefix}
}

func (s *GormSequencer) Next(ctx context.Context, productCode int64, commit bool) (string, error) {
	if !commit {
		last, err := s.Current(ctx, productCode)
		if err != nil {
			return "", err
		}
		return Format(s.prefix, last+1), nil
	}

	var issued int64
	err := s.db.WithContext(ctx).
		Raw(upsertIncrementSQL, productCode, time.Now().UTC()).
		Scan(&issued).Error
	if err != nil {
		return "", fmt.Errorf("increment lot counter for %d: %w", productCode, err)
	}
	if issued < 1 {
		return "", fmt.Errorf("increment lot counter for %d: no value returned", productCode)
	}
	return Format(s.prefix, issued), nil
}

func (s *GormSequencer) Current(ctx context.Context, productCode int64) (int64, error) {
	var counter models.LotSequenceCounter
	err := s.db.WithContext(ctx).Where("product_code = ?", productCode).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read lot counter for %d: %w", productCode, err)
	}
	return counter.LastIssued, nil
}

func (s *GormSequencer) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.LotSequenceCounter{}).Error
}
