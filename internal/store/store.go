// Package store persists reconciled observation records.
// Lot counters are deliberately not part of this package: clearing records
// must never renumber lots.
package store

import (
	"context"
	"errors"

	"github.com/xelth-com/scraprecon/internal/models"
)

var ErrNotFound = errors.New("record not found")

// Store is an append-only list of records with admin edits
type Store interface {
	// Append assigns ID and CreatedAt and saves the record
	Append(ctx context.Context, rec *models.ObservationRecord) error
	// List returns all records, most recent (highest ID) first
	List(ctx context.Context) ([]models.ObservationRecord, error)
	Get(ctx context.Context, id uint) (*models.ObservationRecord, error)
	UpdateStatus(ctx context.Context, id uint, status models.RecordStatus) error
	Delete(ctx context.Context, id uint) error
	// ClearAll removes every record
	ClearAll(ctx context.Context) error
}
