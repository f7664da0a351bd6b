package secondary

import (
	"context"

	"github.com/cfwarrior/tgbot/internal/domain"
)

// DeltaPredictor fetches third-party predicted rating changes for a
// contest, keyed by handle.
type DeltaPredictor interface {
	PredictedDeltas(ctx context.Context, contestID int) (map[string]domain.PredictedDelta, error)
}
