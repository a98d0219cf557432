package models

// All returns every persisted model, in migration order.
func All() []any {
	return []any{
		&Project{},
		&Member{},
		&Task{},
		&PullRequest{},
		&Bottleneck{},
		&Prediction{},
		&BehavioralMetric{},
	}
}
