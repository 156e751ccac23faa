// Package lot issues per-product lot identifiers such as DEV00042.
//
// Each product code owns an independent counter that starts at 0. A preview
// shows the id the next commit will get without changing anything; a commit
// increments the counter atomically and returns the new id. Counters are
// separate from observation records and survive clearing them.
package lot

import (
	"context"
	"fmt"
)

// Width is the zero padded width of the sequence part
const Width = 5

// Sequencer issues lot identifiers
type Sequencer interface {
	// Next returns the lot id for productCode. With commit=false nothing is persisted.
	Next(ctx context.Context, productCode int64, commit bool) (string, error)
	// Current returns the last issued sequence number (0 if none)
	Current(ctx context.Context, productCode int64) (int64, error)
	// Reset wipes every counter
	Reset(ctx context.Context) error
}

// Format renders prefix + sequence zero padded to Width digits
func Format(prefix string, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, Width, seq)
}
