package services

import (
	"context"

	"talkone_server/models"
)

// EvaluationSource provides a user's most recent peer evaluation ratings
type EvaluationSource interface {
	RecentEvaluations(ctx context.Context, userID string, limit int32) ([]int, error)
}

// EvaluationRecommender decides when a user is better served by an AI
// practice partner than by human matchmaking: low rating, or a run of
// poor recent peer evaluations.
type EvaluationRecommender struct {
	Evaluations EvaluationSource
}

const (
	recentEvaluationCount = 5
	minEvaluationsForCall = 3
	poorEvaluationAverage = 2.5
)

// ShouldRecommendAI reports whether the engine should skip candidate
// search and create an AI practice match for this user
func (r *EvaluationRecommender) ShouldRecommendAI(ctx context.Context, userID string, rating int) (bool, error) {
	if rating <= models.AIRatingThreshold {
		return true, nil
	}

	ratings, err := r.Evaluations.RecentEvaluations(ctx, userID, recentEvaluationCount)
	if err != nil {
		return false, err
	}
	if len(ratings) < minEvaluationsForCall {
		return false, nil
	}

	sum := 0
	for _, rating := range ratings {
		sum += rating
	}
	average := float64(sum) / float64(len(ratings))
	return average <= poorEvaluationAverage, nil
}
