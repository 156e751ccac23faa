package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/xelth-com/scraprecon/internal/models"
)

// GormStore keeps records in the observation_records table
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, rec *models.ObservationRecord) error {
	rec.ID = 0
	if rec.Status == "" {
		rec.Status = models.StatusPending
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *GormStore) List(ctx context.Context) ([]models.ObservationRecord, error) {
	var records []models.ObservationRecord
	if err := s.db.WithContext(ctx).Order("id desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.ObservationRecord, error) {
	var rec models.ObservationRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return &rec, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, id uint, status models.RecordStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.ObservationRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update status of record %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.ObservationRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete record %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ClearAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ObservationRecord{}).Error
	if err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}
