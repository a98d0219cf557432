package services

import (
	"context"
	"log/slog"
	"time"

	"insight-engine/datastore"
)

// ExpirePredictions deactivates active predictions whose ValidUntil has passed.
func ExpirePredictions(ctx context.Context, store datastore.Gateway, orgID string, now time.Time) (int64, error) {
	n, err := store.DeactivateExpiredPredictions(ctx, orgID, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("expired predictions deactivated", "org", orgID, "count", n)
	}
	return n, nil
}
