package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"insight-engine/datastore"
	"insight-engine/models"
)

const (
	burnoutWindowDays = 14
	lateNightHour     = 20
)

// computeBurnoutScore returns the additive risk score with the counts it was built from.
func computeBurnoutScore(activeTasks int, metrics []models.BehavioralMetric) (score, weekendDays, lateNightDays int) {
	switch {
	case activeTasks > 8:
		score += 30
	case activeTasks > 5:
		score += 15
	}

	for _, m := range metrics {
		if m.WeekendActivity {
			weekendDays++
		}
		if hour, _, err := parseClockTime(m.ActiveHoursEnd); err == nil && hour >= lateNightHour {
			lateNightDays++
		}
	}
	if weekendDays > 2 {
		score += 25
	}
	if lateNightDays > 5 {
		score += 20
	}
	return score, weekendDays, lateNightDays
}

func burnoutLevel(score int) string {
	switch {
	case score >= 50:
		return riskHigh
	case score >= 25:
		return riskMedium
	default:
		return riskLow
	}
}

func burnoutValue(member models.Member, activeTasks int, metrics []models.BehavioralMetric) models.BurnoutValue {
	score, weekendDays, lateNightDays := computeBurnoutScore(activeTasks, metrics)
	value := models.BurnoutValue{
		UserID:          member.UserID,
		UserName:        member.Name(),
		RiskLevel:       burnoutLevel(score),
		Score:           score,
		ActiveTasks:     activeTasks,
		WeekendDays:     weekendDays,
		LateNightDays:   lateNightDays,
		Factors:         []string{},
		Recommendations: []string{},
	}
	if activeTasks > 5 {
		value.Factors = append(value.Factors, fmt.Sprintf("%d active tasks assigned", activeTasks))
		value.Recommendations = append(value.Recommendations, "Redistribute some active tasks to teammates")
	}
	if weekendDays > 2 {
		value.Factors = append(value.Factors, fmt.Sprintf("Weekend activity on %d days", weekendDays))
		value.Recommendations = append(value.Recommendations, "Protect weekends from routine work")
	}
	if lateNightDays > 5 {
		value.Factors = append(value.Factors, fmt.Sprintf("Working past 20:00 on %d days", lateNightDays))
		value.Recommendations = append(value.Recommendations, "Check in about working hours in the next 1:1")
	}
	return value
}

// DetectBurnout scores every member of the organization over the last 14 days.
// Low-risk members produce no prediction. A failed read or write skips only that
// member; read failures are joined into the returned error alongside what was written.
func (s *PredictionService) DetectBurnout(ctx context.Context, orgID string) ([]models.Prediction, error) {
	members, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, 0, -burnoutWindowDays)
	written := make([]models.Prediction, 0)
	var readErrs []error
	for _, member := range members {
		metrics, err := s.store.ListBehavioralMetrics(ctx, orgID, member.UserID, since)
		if err != nil {
			slog.Warn("burnout metrics lookup failed", "org", orgID, "user", member.UserID, "err", err)
			readErrs = append(readErrs, fmt.Errorf("metrics for %s: %w", member.UserID, err))
			continue
		}
		tasks, err := s.store.ListTasks(ctx, orgID, datastore.TaskFilter{
			Assignee:        member.UserID,
			ExcludeStatuses: []string{models.TaskStatusDone},
		})
		if err != nil {
			slog.Warn("burnout task lookup failed", "org", orgID, "user", member.UserID, "err", err)
			readErrs = append(readErrs, fmt.Errorf("tasks for %s: %w", member.UserID, err))
			continue
		}

		value := burnoutValue(member, len(tasks), metrics)
		if value.RiskLevel == riskLow {
			continue
		}

		confidence := float64(value.Score) / 100
		prediction, err := s.newPrediction(ctx, orgID, nil, models.PredictionBurnoutIndicator, models.UserScope(member.UserID), confidence, value)
		if err != nil {
			slog.Warn("burnout prediction build failed", "org", orgID, "user", member.UserID, "err", err)
			continue
		}
		if s.opts.BurnoutSupersede {
			err = s.writer.Write(ctx, prediction)
		} else {
			err = s.store.CreatePrediction(ctx, prediction)
		}
		if err != nil {
			slog.Warn("burnout prediction write failed", "org", orgID, "user", member.UserID, "err", err)
			continue
		}
		slog.Info("burnout risk detected", "org", orgID, "user", member.UserID, "risk", value.RiskLevel, "score", value.Score)
		written = append(written, *prediction)
	}
	return written, errors.Join(readErrs...)
}

// parseClockTime parses "HH:MM" into hour and minute.
func parseClockTime(timeStr string) (int, int, error) {
	if timeStr == "" {
		return 0, 0, errors.New("empty time string")
	}

	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return 0, 0, errors.New("invalid time format")
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.New("invalid hour")
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.New("invalid minute")
	}

	return hour, minute, nil
}
