package services

import (
	"context"
	"math"
	"time"

	"talkone_server/models"
)

// Queue estimate constants: a coarse per-match average informed by
// whether any matches happened recently, halved because two requests
// leave the queue per match.
const (
	activeQueueAvgWaitSeconds = 30
	idleQueueAvgWaitSeconds   = 45
	recentMatchWindow         = time.Hour
)

// QueueSource is the slice of the request store the estimator reads
type QueueSource interface {
	CountSearching(ctx context.Context) (int, error)
	CountRecentMatches(ctx context.Context, since time.Time) (int, error)
}

// QueueService computes advisory queue positions and wait estimates.
// The numbers are surfaced to callers but never feed correctness
// decisions in the engine.
type QueueService struct {
	Store QueueSource
}

// Estimate returns the caller's queue position and a rough wait estimate
func (qs *QueueService) Estimate(ctx context.Context) (*models.QueueStats, error) {
	waiting, err := qs.Store.CountSearching(ctx)
	if err != nil {
		return nil, err
	}

	avgWait := idleQueueAvgWaitSeconds
	recent, err := qs.Store.CountRecentMatches(ctx, time.Now().Add(-recentMatchWindow))
	if err == nil && recent > 0 {
		avgWait = activeQueueAvgWaitSeconds
	}

	position := waiting + 1
	return &models.QueueStats{
		Position:             position,
		EstimatedWaitSeconds: int(math.Round(float64(avgWait) * float64(position) / 2)),
	}, nil
}
