package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xelth-com/scraprecon/internal/reconcile"
	"github.com/xelth-com/scraprecon/internal/utils"
)

// ErrNoLabelData is returned when the model answer holds no JSON object
var ErrNoLabelData = errors.New("no label data in model response")

// Extractor reads a label photo into an unvalidated observation.
// Results are guesses: they must be confirmed by an operator before commit.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (reconcile.RawInput, error)
}

// imageGenerator is satisfied by *GeminiClient
type imageGenerator interface {
	GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// GeminiExtractor extracts label fields with a vision model
type GeminiExtractor struct {
	gen    imageGenerator
	prompt string
}

func NewGeminiExtractor(client *GeminiClient) *GeminiExtractor {
	return &GeminiExtractor{gen: client, prompt: LabelPrompt}
}

func (e *GeminiExtractor) Extract(ctx context.Context, image []byte, mimeType string) (reconcile.RawInput, error) {
	if len(image) == 0 {
		return reconcile.RawInput{}, fmt.Errorf("empty image")
	}
	text, err := e.gen.GenerateWithImage(ctx, e.prompt, image, mimeType)
	if err != nil {
		return reconcile.RawInput{}, err
	}
	return ParseLabelJSON(text)
}

// labelFields mirrors the keys requested in LabelPrompt
type labelFields struct {
	Reserva    reconcile.Field `json:"Reserva"`
	Descricao  reconcile.Field `json:"Descrição Material"`
	Codigo     reconcile.Field `json:"Código Material"`
	Quantidade reconcile.Field `json:"Quantidade"`
	Peso       reconcile.Field `json:"Peso"`
	Tamanho    reconcile.Field `json:"Tamanho"`
}

// ParseLabelJSON decodes a model answer, tolerating code fences and surrounding prose
func ParseLabelJSON(text string) (reconcile.RawInput, error) {
	obj := utils.ExtractJSONObject(text)
	if obj == "" {
		return reconcile.RawInput{}, ErrNoLabelData
	}
	var f labelFields
	if err := json.Unmarshal([]byte(obj), &f); err != nil {
		return reconcile.RawInput{}, fmt.Errorf("decode label json: %w", err)
	}
	return reconcile.RawInput{
		ProductCode:    f.Codigo,
		Quantity:       f.Quantidade,
		WeightKg:       f.Peso,
		LengthMM:       f.Tamanho,
		ReservationTag: f.Reserva,
		Description:    f.Descricao,
	}, nil
}
