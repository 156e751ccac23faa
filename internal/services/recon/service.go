package recon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xelth-com/scraprecon/internal/ai"
	"github.com/xelth-com/scraprecon/internal/config"
	"github.com/xelth-com/scraprecon/internal/lot"
	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/reconcile"
	"github.com/xelth-com/scraprecon/internal/reference"
	"github.com/xelth-com/scraprecon/internal/store"
)

var log = config.GetLogger()

var (
	// ErrNoReference means no reference table is loaded yet
	ErrNoReference = errors.New("reference table not loaded")
	// ErrNoExtractor means vision extraction is not configured
	ErrNoExtractor = errors.New("label extraction not configured")
)

// Event names published after state changes
const (
	EventRecordCreated  = "record.created"
	EventRecordUpdated  = "record.updated"
	EventRecordDeleted  = "record.deleted"
	EventRecordsCleared = "records.cleared"
	EventReset          = "reset"
	EventReference      = "reference.loaded"
)

// Publisher receives change events; *websocket.Hub implements it
type Publisher interface {
	Publish(eventType string, data interface{})
}

// Preview is a reconciled observation with the lot id a commit would get
type Preview struct {
	reconcile.Result
	LotID string `json:"lot_id"`
}

// Image is one uploaded label photo
type Image struct {
	Name     string
	MimeType string
	Data     []byte
}

// Draft is a vision extraction awaiting operator confirmation.
// Error is set when the image could not be read; the other images are unaffected.
type Draft struct {
	Index   int                `json:"index"`
	Name    string             `json:"name"`
	Input   reconcile.RawInput `json:"input"`
	Preview *Preview           `json:"preview,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ReferenceInfo describes the loaded table
type ReferenceInfo struct {
	Source   string   `json:"source"`
	Entries  int      `json:"entries"`
	Warnings []string `json:"warnings,omitempty"`
}

// Service ties the reference table, lot counters and record store together
type Service struct {
	store     store.Store
	lots      lot.Sequencer
	extractor ai.Extractor
	events    Publisher

	mu  sync.RWMutex
	ref *reference.Table
}

// NewService creates the service. extractor and events may be nil.
func NewService(st store.Store, lots lot.Sequencer, extractor ai.Extractor, events Publisher) *Service {
	return &Service{store: st, lots: lots, extractor: extractor, events: events}
}

// SetReference swaps the active reference table
func (s *Service) SetReference(t *reference.Table) {
	s.mu.Lock()
	s.ref = t
	s.mu.Unlock()

	log.Infof("📚 Reference table loaded: %s (%d products, %d warnings)", t.Source, t.Len(), len(t.Warnings))
	s.publish(EventReference, s.describe(t))
}

// Reference returns the active table or nil
func (s *Service) Reference() *reference.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ref
}

// ReferenceInfo summarizes the active table
func (s *Service) ReferenceInfo() (ReferenceInfo, error) {
	t := s.Reference()
	if t == nil {
		return ReferenceInfo{}, ErrNoReference
	}
	return s.describe(t), nil
}

func (s *Service) describe(t *reference.Table) ReferenceInfo {
	return ReferenceInfo{Source: t.Source, Entries: t.Len(), Warnings: t.Warnings}
}

// HasExtractor reports whether vision extraction is available
func (s *Service) HasExtractor() bool {
	return s.extractor != nil
}

// Preview reconciles raw and shows the next lot id. Nothing is written.
func (s *Service) Preview(ctx context.Context, raw reconcile.RawInput) (*Preview, error) {
	ref := s.Reference()
	if ref == nil {
		return nil, ErrNoReference
	}
	return s.preview(ctx, raw, ref)
}

func (s *Service) preview(ctx context.Context, raw reconcile.RawInput, ref *reference.Table) (*Preview, error) {
	res := reconcile.ReconcileRaw(raw, ref)
	lotID, err := s.lots.Next(ctx, res.ProductCode, false)
	if err != nil {
		return nil, fmt.Errorf("failed to preview lot: %w", err)
	}
	return &Preview{Result: res, LotID: lotID}, nil
}

// NextLot previews the lot id for a product code
func (s *Service) NextLot(ctx context.Context, productCode int64) (string, error) {
	return s.lots.Next(ctx, productCode, false)
}

// IssueLot consumes the next lot id without storing a record
func (s *Service) IssueLot(ctx context.Context, productCode int64) (string, error) {
	id, err := s.lots.Next(ctx, productCode, true)
	if err != nil {
		return "", err
	}
	log.Warnf("⚠️ Lot %s issued without a record", id)
	return id, nil
}

// Commit reconciles raw, issues a lot id and stores the record
func (s *Service) Commit(ctx context.Context, raw reconcile.RawInput, source string) (*models.ObservationRecord, error) {
	ref := s.Reference()
	if ref == nil {
		return nil, ErrNoReference
	}

	res := reconcile.ReconcileRaw(raw, ref)
	lotID, err := s.lots.Next(ctx, res.ProductCode, true)
	if err != nil {
		return nil, fmt.Errorf("failed to issue lot: %w", err)
	}

	rec := res.Record(lotID, source)
	if err := s.store.Append(ctx, &rec); err != nil {
		// the lot number is consumed; the gap is visible in the label sequence
		config.LogError(log, "recon", "Commit", "append record", map[string]interface{}{
			"lot_id":       lotID,
			"product_code": res.ProductCode,
		}, err)
		return nil, fmt.Errorf("failed to store record: %w", err)
	}

	log.Infof("✅ Lot %s committed (product %d, scrap %.2f kg)", lotID, rec.ProductCode, rec.ScrapKg)
	s.publish(EventRecordCreated, rec)
	return &rec, nil
}

// ExtractDrafts reads label photos into drafts with a reconciled preview.
// Failures are per image and do not stop the batch. Nothing is persisted.
func (s *Service) ExtractDrafts(ctx context.Context, images []Image) ([]Draft, error) {
	if s.extractor == nil {
		return nil, ErrNoExtractor
	}
	ref := s.Reference()
	if ref == nil {
		return nil, ErrNoReference
	}

	drafts := make([]Draft, 0, len(images))
	for i, img := range images {
		d := Draft{Index: i, Name: img.Name}

		raw, err := s.extractor.Extract(ctx, img.Data, img.MimeType)
		if err != nil {
			config.LogError(log, "recon", "ExtractDrafts", "extract label", map[string]interface{}{
				"image": img.Name,
			}, err)
			d.Error = err.Error()
			drafts = append(drafts, d)
			continue
		}
		d.Input = raw

		p, err := s.preview(ctx, raw, ref)
		if err != nil {
			d.Error = err.Error()
		} else {
			p.Warnings = append(p.Warnings, "extracted from photo, confirm before saving")
			d.Preview = p
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// ReconcileBatch reconciles rows without persisting anything. A nil table
// uses the loaded reference.
func (s *Service) ReconcileBatch(rows []reconcile.RawInput, ref *reference.Table) ([]reconcile.Result, error) {
	if ref == nil {
		ref = s.Reference()
	}
	if ref == nil {
		return nil, ErrNoReference
	}
	results := make([]reconcile.Result, 0, len(rows))
	for _, raw := range rows {
		results = append(results, reconcile.ReconcileRaw(raw, ref))
	}
	return results, nil
}

// List returns stored records, newest first, with their totals
func (s *Service) List(ctx context.Context) ([]models.ObservationRecord, reconcile.Summary, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, reconcile.Summary{}, fmt.Errorf("failed to list records: %w", err)
	}
	return records, reconcile.SummarizeRecords(records), nil
}

// Summary returns totals over stored records
func (s *Service) Summary(ctx context.Context) (reconcile.Summary, error) {
	_, sum, err := s.List(ctx)
	return sum, err
}

// UpdateStatus changes a record's review status
func (s *Service) UpdateStatus(ctx context.Context, id uint, status models.RecordStatus) (*models.ObservationRecord, error) {
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(EventRecordUpdated, rec)
	return rec, nil
}

// Delete removes one record. Its lot number is not reused.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(EventRecordDeleted, map[string]uint{"id": id})
	return nil
}

// ClearRecords removes every record and keeps the lot counters
func (s *Service) ClearRecords(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	log.Warn("🧹 All records cleared, lot counters kept")
	s.publish(EventRecordsCleared, nil)
	return nil
}

// ResetAll removes every record and every lot counter
func (s *Service) ResetAll(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if err := s.lots.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset lot counters: %w", err)
	}
	log.Warn("🧨 Records and lot counters reset")
	s.publish(EventReset, nil)
	return nil
}

func (s *Service) publish(eventType string, data interface{}) {
	if s.events != nil {
		s.events.Publish(eventType, data)
	}
}
