package models

import "time"

// LotSequenceCounter is the permanent per-product lot numbering state.
// It is never touched when observation records are cleared.
type LotSequenceCounter struct {
	ProductCode int64     `gorm:"primaryKey;autoIncrement:false" json:"product_code"`
	LastIssued  int64     `gorm:"not null;default:0" json:"last_issued"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (LotSequenceCounter) TableName() string { return "lot_sequence_counters" }

// AllModels lists the tables managed by AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&ObservationRecord{},
		&LotSequenceCounter{},
	}
}
