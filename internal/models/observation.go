package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// RecordStatus is the admin-controlled review state of an observation
type RecordStatus string

const (
	StatusPending   RecordStatus = "Pending"
	StatusConfirmed RecordStatus = "Confirmed"
)

// ParseRecordStatus accepts the English names and the plant's Portuguese labels
func ParseRecordStatus(s string) (RecordStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendente":
		return StatusPending, nil
	case "confirmed", "confirmado":
		return StatusConfirmed, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Record sources
const (
	SourceManual = "manual"
	SourceScan   = "scan"
	SourceVision = "vision"
)

// ObservationRecord is one reconciled return of steel bars.
// TheoreticalWeightKg is frozen at creation: the weight per meter used is not stored,
// so later reference updates never rewrite history.
type ObservationRecord struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	LotID               string                      `gorm:"index;size:32" json:"lot_id"`
	ReservationTag      string                      `json:"reservation_tag"`
	Status              RecordStatus                `gorm:"size:16;default:Pending" json:"status"`
	ProductCode         int64                       `gorm:"index" json:"product_code"`
	Description         string                      `json:"description"`
	Quantity            int64                       `json:"quantity"`
	MeasuredWeightKg    float64                     `json:"measured_weight_kg"`
	MeasuredLengthMM    int64                       `json:"measured_length_mm"`
	CutLengthMM         int64                       `json:"cut_length_mm"`
	TheoreticalWeightKg float64                     `json:"theoretical_weight_kg"`
	ScrapKg             float64                     `json:"scrap_kg"`
	Source              string                      `gorm:"size:16" json:"source"`
	Warnings            datatypes.JSONSlice[string] `json:"warnings,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
}

func (ObservationRecord) TableName() string { return "observation_records" }

// GetEntityID returns the record id as text (sheets rows and websocket events use it)
func (r ObservationRecord) GetEntityID() string { return strconv.FormatUint(uint64(r.ID), 10) }
