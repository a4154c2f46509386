package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldRecommendAI(t *testing.T) {
	tests := []struct {
		name      string
		rating    int
		evals     []int
		recommend bool
	}{
		{name: "rating at threshold", rating: 800, recommend: true},
		{name: "rating below threshold", rating: 750, recommend: true},
		{name: "poor recent evaluations", rating: 1200, evals: []int{2, 3, 2, 1, 2}, recommend: true},
		{name: "average exactly at cutoff", rating: 1200, evals: []int{2, 3, 2, 3}, recommend: true},
		{name: "good recent evaluations", rating: 1200, evals: []int{5, 4, 5}, recommend: false},
		{name: "too few evaluations to judge", rating: 1200, evals: []int{1, 1}, recommend: false},
		{name: "no evaluations", rating: 1200, recommend: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			if tt.evals != nil {
				store.evals["alice"] = tt.evals
			}
			recommender := &EvaluationRecommender{Evaluations: store}

			recommend, err := recommender.ShouldRecommendAI(context.Background(), "alice", tt.rating)
			require.NoError(t, err)
			assert.Equal(t, tt.recommend, recommend)
		})
	}
}
