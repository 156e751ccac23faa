// Package wizard drives the barcode scanner entry flow one field at a time.
//
// The flow is strictly linear:
//
//	AwaitingScan -> CollectingReservation -> CollectingQuantity ->
//	CollectingWeight -> CollectingLength -> ReadyToCommit -> Committed
//
// There are no backward transitions; a mistake means abandoning the session.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/xelth-com/scraprecon/internal/reconcile"
)

// State is a wizard step
type State string

const (
	AwaitingScan          State = "awaiting_scan"
	CollectingReservation State = "collecting_reservation"
	CollectingQuantity    State = "collecting_quantity"
	CollectingWeight      State = "collecting_weight"
	CollectingLength      State = "collecting_length"
	ReadyToCommit         State = "ready_to_commit"
	Committed             State = "committed"
)

var next = map[State]State{
	AwaitingScan:          CollectingReservation,
	CollectingReservation: CollectingQuantity,
	CollectingQuantity:    CollectingWeight,
	CollectingWeight:      CollectingLength,
	CollectingLength:      ReadyToCommit,
}

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrEmptyScan         = errors.New("scan contains no product code")
)

// Session is one operator's pass through the wizard
type Session struct {
	ID        string             `json:"id"`
	State     State              `json:"state"`
	Draft     reconcile.RawInput `json:"draft"`
	LotID     string             `json:"lot_id,omitempty"`
	RecordID  uint               `json:"record_id,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		State:     AwaitingScan,
		UpdatedAt: time.Now(),
	}
}

// Advance stores value in the field the current state collects and moves on
func (s *Session) Advance(value string) error {
	value = strings.TrimSpace(value)

	switch s.State {
	case AwaitingScan:
		code := ScanCode(value)
		if code == "" {
			return ErrEmptyScan
		}
		s.Draft.ProductCode = reconcile.Field(code)
	case CollectingReservation:
		s.Draft.ReservationTag = reconcile.Field(value)
	case CollectingQuantity:
		s.Draft.Quantity = reconcile.Field(value)
	case CollectingWeight:
		s.Draft.WeightKg = reconcile.Field(value)
	case CollectingLength:
		s.Draft.LengthMM = reconcile.Field(value)
	default:
		return fmt.Errorf("%w: no input expected in state %s", ErrInvalidTransition, s.State)
	}

	s.State = next[s.State]
	s.UpdatedAt = time.Now()
	return nil
}

// CanCommit reports whether every field has been collected
func (s *Session) CanCommit() bool {
	return s.State == ReadyToCommit
}

// MarkCommitted closes the session once the record is stored
func (s *Session) MarkCommitted(lotID string, recordID uint) error {
	if !s.CanCommit() {
		return fmt.Errorf("%w: cannot commit from state %s", ErrInvalidTransition, s.State)
	}
	s.State = Committed
	s.LotID = lotID
	s.RecordID = recordID
	s.UpdatedAt = time.Now()
	return nil
}

// ScanCode pulls the product code out of scanner input.
// An AIM symbology identifier ("]C1") is dropped, then the first run of digits wins.
func ScanCode(scan string) string {
	scan = strings.TrimSpace(scan)
	if strings.HasPrefix(scan, "]") && len(scan) >= 3 {
		scan = scan[3:]
	}
	start := strings.IndexFunc(scan, unicode.IsDigit)
	if start < 0 {
		return ""
	}
	end := strings.IndexFunc(scan[start:], func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		return scan[start:]
	}
	return scan[start : start+end]
}
