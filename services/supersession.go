package services

import (
	"context"

	"insight-engine/datastore"
	"insight-engine/models"
)

// SupersessionWriter inserts a prediction as the only active one for its (type, scope).
type SupersessionWriter struct {
	store datastore.Gateway
}

func NewSupersessionWriter(store datastore.Gateway) *SupersessionWriter {
	return &SupersessionWriter{store: store}
}

func (w *SupersessionWriter) Write(ctx context.Context, prediction *models.Prediction) error {
	return w.store.ReplaceActivePrediction(ctx, prediction)
}
