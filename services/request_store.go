package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talkone_server/models"
	"talkone_server/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchRequestStore is the DynamoDB-backed request store. All state the
// engine acts on lives here; every status transition out of "searching"
// is a conditional write so concurrent invocations cannot double-claim a
// request.
type MatchRequestStore struct {
	Dynamo *DynamoService
}

func requestKey(requestID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"requestId": &types.AttributeValueMemberS{Value: requestID},
	}
}

// GetRequest retrieves a match request by id
func (s *MatchRequestStore) GetRequest(ctx context.Context, requestID string) (*models.MatchRequest, error) {
	item, err := s.Dynamo.GetItem(ctx, models.MatchRequestsTable, requestKey(requestID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrRequestNotFound
	}

	var request models.MatchRequest
	if err := attributevalue.UnmarshalMap(item, &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match request: %w", err)
	}
	return &request, nil
}

// PutRequest writes a match request record
func (s *MatchRequestStore) PutRequest(ctx context.Context, request *models.MatchRequest) error {
	return s.Dynamo.PutItem(ctx, models.MatchRequestsTable, request)
}

// QuerySearching returns waiting requests inside [minRating, maxRating],
// excluding the requester and anyone flagged for forced AI matching. The
// page limit keeps search latency bounded.
func (s *MatchRequestStore) QuerySearching(ctx context.Context, excludeUserID string, minRating, maxRating int, limit int32) ([]models.MatchRequest, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(models.MatchRequestsTable),
		IndexName:              aws.String(models.StatusRatingIndex),
		KeyConditionExpression: aws.String("#status = :searching AND userRating BETWEEN :lo AND :hi"),
		FilterExpression:       aws.String("userId <> :self AND (attribute_not_exists(forceAIMatch) OR forceAIMatch = :noForce)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":searching": &types.AttributeValueMemberS{Value: models.StatusSearching},
			":lo":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", minRating)},
			":hi":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", maxRating)},
			":self":      &types.AttributeValueMemberS{Value: excludeUserID},
			":noForce":   &types.AttributeValueMemberBOOL{Value: false},
		},
		Limit: aws.Int32(limit),
	}

	items, err := s.Dynamo.QueryItemsWithQueryInput(ctx, input)
	if err != nil {
		return nil, err
	}

	var requests []models.MatchRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal waiting requests: %w", err)
	}
	return requests, nil
}

// ConditionalAssign claims both requests into one match. Both sides must
// still be searching at commit time; the whole transaction is cancelled
// otherwise and ErrAssignmentConflict is returned with no partial writes.
func (s *MatchRequestStore) ConditionalAssign(ctx context.Context, requester, candidate *models.MatchRequest, match *models.Match) error {
	matchItem, err := attributevalue.MarshalMap(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	items := []types.TransactWriteItem{
		{Update: assignUpdate(requester.RequestID, candidate.UserID, match.ChannelName, now)},
		{Update: assignUpdate(candidate.RequestID, requester.UserID, match.ChannelName, now)},
		{Put: &types.Put{
			TableName: aws.String(models.MatchesTable),
			Item:      matchItem,
		}},
	}

	if err := s.Dynamo.TransactWriteItems(ctx, items); err != nil {
		if isConditionalCancellation(err) {
			return ErrAssignmentConflict
		}
		return err
	}
	return nil
}

// assignUpdate builds the conditional half of an assignment: flip one
// request to matched only if it is still searching.
func assignUpdate(requestID, partnerID, channelName, now string) *types.Update {
	return &types.Update{
		TableName:           aws.String(models.MatchRequestsTable),
		Key:                 requestKey(requestID),
		UpdateExpression:    aws.String("SET #status = :matched, matchedWith = :partner, channelName = :channel, matchedAt = :now"),
		ConditionExpression: aws.String("#status = :searching"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":matched":   &types.AttributeValueMemberS{Value: models.StatusMatched},
			":searching": &types.AttributeValueMemberS{Value: models.StatusSearching},
			":partner":   &types.AttributeValueMemberS{Value: partnerID},
			":channel":   &types.AttributeValueMemberS{Value: channelName},
			":now":       &types.AttributeValueMemberS{Value: now},
		},
	}
}

// AssignAIMatch flips a still-searching request to an AI practice match
// and records the synthetic Match in the same transaction
func (s *MatchRequestStore) AssignAIMatch(ctx context.Context, request *models.MatchRequest, match *models.Match) error {
	matchItem, err := attributevalue.MarshalMap(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	items := []types.TransactWriteItem{
		{Update: &types.Update{
			TableName:           aws.String(models.MatchRequestsTable),
			Key:                 requestKey(request.RequestID),
			UpdateExpression:    aws.String("SET #status = :matched, matchedWith = :partner, channelName = :channel, isAIMatch = :ai, matchedAt = :now"),
			ConditionExpression: aws.String("#status = :searching"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":matched":   &types.AttributeValueMemberS{Value: models.StatusMatched},
				":searching": &types.AttributeValueMemberS{Value: models.StatusSearching},
				":partner":   &types.AttributeValueMemberS{Value: match.Participants[1]},
				":channel":   &types.AttributeValueMemberS{Value: match.ChannelName},
				":ai":        &types.AttributeValueMemberBOOL{Value: true},
				":now":       &types.AttributeValueMemberS{Value: now},
			},
		}},
		{Put: &types.Put{
			TableName: aws.String(models.MatchesTable),
			Item:      matchItem,
		}},
	}

	if err := s.Dynamo.TransactWriteItems(ctx, items); err != nil {
		if isConditionalCancellation(err) {
			return ErrNotSearching
		}
		return err
	}
	return nil
}

// MarkCancelled transitions a searching request to cancelled
func (s *MatchRequestStore) MarkCancelled(ctx context.Context, requestID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.Dynamo.UpdateItem(ctx, models.MatchRequestsTable, requestKey(requestID),
		"SET #status = :cancelled, cancelledAt = :now",
		"#status = :searching",
		map[string]types.AttributeValue{
			":cancelled": &types.AttributeValueMemberS{Value: models.StatusCancelled},
			":searching": &types.AttributeValueMemberS{Value: models.StatusSearching},
			":now":       &types.AttributeValueMemberS{Value: now},
		},
		map[string]string{"#status": "status"},
	)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrNotSearching
		}
		return err
	}
	return nil
}

// MarkError transitions a searching request to error with the failure
// reason recorded. Terminal; the request is not retried.
func (s *MatchRequestStore) MarkError(ctx context.Context, requestID, reason string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.Dynamo.UpdateItem(ctx, models.MatchRequestsTable, requestKey(requestID),
		"SET #status = :error, errorReason = :reason, errorAt = :now",
		"#status = :searching",
		map[string]types.AttributeValue{
			":error":     &types.AttributeValueMemberS{Value: models.StatusError},
			":searching": &types.AttributeValueMemberS{Value: models.StatusSearching},
			":reason":    &types.AttributeValueMemberS{Value: reason},
			":now":       &types.AttributeValueMemberS{Value: now},
		},
		map[string]string{"#status": "status"},
	)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrNotSearching
		}
		return err
	}
	return nil
}

// BumpRetry persists retry bookkeeping for a requeued attempt: the new
// retry count and the widened search window. Status stays searching.
func (s *MatchRequestStore) BumpRetry(ctx context.Context, requestID string, retryCount, ratingRange int) error {
	_, err := s.Dynamo.UpdateItem(ctx, models.MatchRequestsTable, requestKey(requestID),
		"SET retryCount = :rc, preferences.ratingRange = :rr",
		"#status = :searching",
		map[string]types.AttributeValue{
			":rc":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", retryCount)},
			":rr":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ratingRange)},
			":searching": &types.AttributeValueMemberS{Value: models.StatusSearching},
		},
		map[string]string{"#status": "status"},
	)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrNotSearching
		}
		return err
	}
	return nil
}

// CountSearching counts waiting requests. Advisory, used only by the
// queue estimator.
func (s *MatchRequestStore) CountSearching(ctx context.Context) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(models.MatchRequestsTable),
		IndexName:              aws.String(models.StatusRatingIndex),
		KeyConditionExpression: aws.String("#status = :searching"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":searching": &types.AttributeValueMemberS{Value: models.StatusSearching},
		},
	}
	return s.Dynamo.QueryCount(ctx, input)
}

// CountRecentMatches counts matches created since the given time.
// Advisory, used only by the queue estimator.
func (s *MatchRequestStore) CountRecentMatches(ctx context.Context, since time.Time) (int, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(models.MatchesTable),
		FilterExpression: aws.String("createdAt >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":since": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339)},
		},
		Limit: aws.Int32(50),
	}
	return s.Dynamo.ScanCount(ctx, input)
}

// RecentEvaluations returns up to limit of the user's most recent peer
// evaluation ratings, newest first
func (s *MatchRequestStore) RecentEvaluations(ctx context.Context, userID string, limit int32) ([]int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(models.EvaluationsTable),
		IndexName:              aws.String(models.EvaluatedUserIndex),
		KeyConditionExpression: aws.String("evaluatedUserId = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	}

	items, err := s.Dynamo.QueryItemsWithQueryInput(ctx, input)
	if err != nil {
		return nil, err
	}

	ratings := make([]int, 0, len(items))
	for _, item := range items {
		ratings = append(ratings, utils.ExtractInt(item, "rating"))
	}
	return ratings, nil
}

// isConditionalCancellation reports whether a transaction was cancelled
// because a ConditionExpression failed on any item
func isConditionalCancellation(err error) bool {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return false
	}
	for _, reason := range cancelled.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

func isConditionalCheckFailed(err error) bool {
	var conditionFailed *types.ConditionalCheckFailedException
	return errors.As(err, &conditionFailed)
}
