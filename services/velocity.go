package services

import (
	"context"
	"log/slog"
	"math"
	"time"

	"insight-engine/datastore"
	"insight-engine/models"
)

const (
	trendIncreasing = "increasing"
	trendDecreasing = "decreasing"
	trendStable     = "stable"
)

const week = 7 * 24 * time.Hour

// computeVelocity buckets completion times into four trailing weeks, index 0 being
// the most recent. Completions older than 28 days are left out of the buckets.
func computeVelocity(now time.Time, completions []time.Time) (models.VelocityForecastValue, float64) {
	var buckets [4]int
	for _, at := range completions {
		idx := int(now.Sub(at) / week)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(buckets) {
			continue
		}
		buckets[idx]++
	}

	sum := 0.0
	for _, c := range buckets {
		sum += float64(c)
	}
	avg := sum / float64(len(buckets))

	variance := 0.0
	for _, c := range buckets {
		variance += math.Pow(float64(c)-avg, 2)
	}
	stdDev := math.Sqrt(variance / float64(len(buckets)))

	recent := float64(buckets[0]+buckets[1]) / 2
	older := float64(buckets[2]+buckets[3]) / 2
	trend := trendStable
	switch {
	case recent > older*1.1:
		trend = trendIncreasing
	case recent < older*0.9:
		trend = trendDecreasing
	}

	confidence := math.Min(0.9, 0.5+(float64(len(completions))/100)*0.4)

	return models.VelocityForecastValue{
		PredictedVelocity:  round2(avg),
		ConfidenceInterval: [2]float64{round2(math.Max(0, avg-stdDev)), round2(avg + stdDev)},
		Trend:              trend,
		WeeklyCounts:       buckets,
		RecentAverage:      round2(recent),
		PreviousAverage:    round2(older),
		StdDev:             round2(stdDev),
		SampleSize:         len(completions),
	}, confidence
}

// ForecastVelocity forecasts weekly throughput for the project, or the whole
// organization when projectID is nil. No completions in 30 days means no forecast.
func (s *PredictionService) ForecastVelocity(ctx context.Context, orgID string, projectID *string) (*models.Prediction, error) {
	now := s.now()
	since := now.AddDate(0, 0, -velocityWindowDays)
	tasks, err := s.store.ListTasks(ctx, orgID, datastore.TaskFilter{ProjectID: projectID, CompletedSince: &since})
	if err != nil {
		return nil, err
	}

	completions := make([]time.Time, 0, len(tasks))
	for _, t := range tasks {
		if at, done := t.CompletionTime(); done {
			completions = append(completions, at)
		}
	}
	if len(completions) == 0 {
		slog.Debug("velocity forecast skipped: no completed tasks", "org", orgID)
		return nil, nil
	}

	scope := models.OrganizationScope(orgID)
	if projectID != nil {
		scope = models.ProjectScope(*projectID)
	}

	value, confidence := computeVelocity(now, completions)
	prediction, err := s.newPrediction(ctx, orgID, projectID, models.PredictionVelocityForecast, scope, confidence, value)
	if err != nil {
		return nil, err
	}
	if err := s.writer.Write(ctx, prediction); err != nil {
		return nil, err
	}
	slog.Info("velocity forecast written", "org", orgID, "scope", scope, "trend", value.Trend, "velocity", value.PredictedVelocity)
	return prediction, nil
}
