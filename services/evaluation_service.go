package services

import (
	"context"
	"fmt"
	"time"

	"talkone_server/models"

	"github.com/google/uuid"
)

// EvaluationService records post-session peer evaluations. The AI
// recommendation predicate reads them back through the request store.
type EvaluationService struct {
	Dynamo *DynamoService
}

// RecordEvaluation stores one 1-5 peer rating
func (es *EvaluationService) RecordEvaluation(ctx context.Context, payload *models.EvaluationPayload) (*models.Evaluation, error) {
	evaluation := &models.Evaluation{
		EvaluationID:    uuid.NewString(),
		EvaluatedUserID: payload.EvaluatedUserID,
		EvaluatorUserID: payload.EvaluatorUserID,
		Rating:          payload.Rating,
		ChannelName:     payload.ChannelName,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	if err := es.Dynamo.PutItem(ctx, models.EvaluationsTable, evaluation); err != nil {
		return nil, fmt.Errorf("failed to record evaluation: %w", err)
	}
	return evaluation, nil
}
