package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talkone_server/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestStore is everything the engine needs from durable state. All
// mutation out of "searching" goes through conditional writes so racing
// invocations settle with exactly one winner.
type RequestStore interface {
	GetRequest(ctx context.Context, requestID string) (*models.MatchRequest, error)
	PutRequest(ctx context.Context, request *models.MatchRequest) error
	QuerySearching(ctx context.Context, excludeUserID string, minRating, maxRating int, limit int32) ([]models.MatchRequest, error)
	ConditionalAssign(ctx context.Context, requester, candidate *models.MatchRequest, match *models.Match) error
	AssignAIMatch(ctx context.Context, request *models.MatchRequest, match *models.Match) error
	MarkCancelled(ctx context.Context, requestID string) error
	MarkError(ctx context.Context, requestID, reason string) error
	BumpRetry(ctx context.Context, requestID string, retryCount, ratingRange int) error
}

// WorkDispatcher schedules delayed match-processing invocations.
// Delivery is at-least-once.
type WorkDispatcher interface {
	EnqueueProcess(ctx context.Context, task models.ProcessTask, delay time.Duration) error
}

// AIRecommender decides whether a user should skip human matchmaking
type AIRecommender interface {
	ShouldRecommendAI(ctx context.Context, userID string, rating int) (bool, error)
}

// MatchNotifier pushes match results to connected clients. Advisory;
// clients can always poll the status endpoint instead.
type MatchNotifier interface {
	MatchFound(userID, partnerID, channelName string, isAIMatch bool)
}

// MatchmakingService is the matching engine. It is stateless between
// invocations; every invocation re-reads the request from the store, so
// concurrent and redelivered invocations stay safe.
type MatchmakingService struct {
	Store       RequestStore
	Dispatcher  WorkDispatcher
	Recommender AIRecommender
	Notifier    MatchNotifier
	Logger      *logrus.Logger
}

// SubmitRequest records a new request as searching and enqueues its
// first processing invocation
func (ms *MatchmakingService) SubmitRequest(ctx context.Context, payload *models.SubmitMatchPayload) (*models.MatchRequest, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	requestID := payload.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	rating := payload.UserRating
	if rating == 0 {
		rating = models.DefaultUserRating
	}
	preferences := payload.Preferences
	if preferences.RatingRange <= 0 {
		preferences.RatingRange = models.DefaultRatingRange
	}

	request := &models.MatchRequest{
		RequestID:       requestID,
		UserID:          payload.UserID,
		UserRating:      rating,
		Status:          models.StatusSearching,
		Preferences:     preferences,
		ForceAIMatch:    payload.ForceAIMatch,
		CreatedAt:       now,
		SearchStartedAt: now,
	}

	if err := ms.Store.PutRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to record match request: %w", err)
	}

	task := models.ProcessTask{RequestID: requestID, UserID: payload.UserID}
	if err := ms.Dispatcher.EnqueueProcess(ctx, task, 0); err != nil {
		return nil, fmt.Errorf("failed to enqueue match processing: %w", err)
	}

	ms.Logger.WithFields(logrus.Fields{
		"requestId":  requestID,
		"userId":     payload.UserID,
		"userRating": rating,
	}).Info("match request accepted")

	return request, nil
}

// ProcessRequest runs one engine invocation for a request. Outcomes:
// matched, ai_fallback, requeued, error, or already_<status> when a
// redelivered task finds the request settled. A returned error means
// the invocation could not act at all and the dispatcher should
// redeliver; store state is unchanged in that case.
func (ms *MatchmakingService) ProcessRequest(ctx context.Context, requestID string) (*models.ProcessOutcome, error) {
	request, err := ms.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusSearching {
		// Redelivered or manually retried task for a settled request
		return &models.ProcessOutcome{Type: "already_" + request.Status, RequestID: requestID}, nil
	}
	if request.UserID == "" {
		return ms.failRequest(ctx, request, "request record has no userId")
	}

	forceAI := request.ForceAIMatch
	if !forceAI {
		recommend, err := ms.Recommender.ShouldRecommendAI(ctx, request.UserID, request.UserRating)
		if err != nil {
			return nil, err
		}
		forceAI = recommend
	}
	if forceAI {
		return ms.createAIMatch(ctx, request)
	}

	candidate, err := ms.findCandidate(ctx, request)
	if err != nil {
		return nil, err
	}
	if candidate != nil {
		outcome, err := ms.assign(ctx, request, candidate)
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, ErrAssignmentConflict) {
			return nil, err
		}
		// Lost the race for this candidate; treat as no candidate
	}

	return ms.requeue(ctx, request)
}

// findCandidate runs the expanding-window search. The window grows from
// the request's ratingRange to the ceiling in fixed steps, so the loop
// is bounded. Returns nil when the whole range is exhausted.
func (ms *MatchmakingService) findCandidate(ctx context.Context, request *models.MatchRequest) (*models.MatchRequest, error) {
	window := request.Preferences.RatingRange
	if window <= 0 {
		window = models.DefaultRatingRange
	}
	now := time.Now()

	for ; window <= models.MaxRatingRange; window += models.RatingRangeStep {
		waiting, err := ms.Store.QuerySearching(ctx, request.UserID,
			request.UserRating-window, request.UserRating+window, models.CandidatePageSize)
		if err != nil {
			return nil, err
		}

		candidates := make([]scoredCandidate, 0, len(waiting))
		for _, other := range waiting {
			candidates = append(candidates, scoredCandidate{
				request:  other,
				score:    CompatibilityScore(request.UserRating, other.UserRating, request.Preferences, other.Preferences),
				waitTime: waitSeconds(other.CreatedAt, now),
			})
		}
		if len(candidates) > 0 {
			rankCandidates(candidates)
			best := candidates[0].request
			return &best, nil
		}
	}
	return nil, nil
}

// assign claims both requests through the store's conditional
// transaction. ErrAssignmentConflict means a concurrent invocation won.
func (ms *MatchmakingService) assign(ctx context.Context, request, candidate *models.MatchRequest) (*models.ProcessOutcome, error) {
	channelName := "talkone_" + uuid.NewString()
	match := &models.Match{
		MatchID:      uuid.NewString(),
		Participants: []string{request.UserID, candidate.UserID},
		RequestIDs:   []string{request.RequestID, candidate.RequestID},
		ChannelName:  channelName,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	if err := ms.Store.ConditionalAssign(ctx, request, candidate, match); err != nil {
		return nil, err
	}

	ms.notify(request.UserID, candidate.UserID, channelName, false)
	ms.notify(candidate.UserID, request.UserID, channelName, false)

	ms.Logger.WithFields(logrus.Fields{
		"requestId":   request.RequestID,
		"matchedWith": candidate.UserID,
		"channelName": channelName,
	}).Info("match created")

	return &models.ProcessOutcome{
		Type:        models.OutcomeMatched,
		RequestID:   request.RequestID,
		MatchedWith: candidate.UserID,
		ChannelName: channelName,
	}, nil
}

// createAIMatch pairs the request with a synthetic practice partner.
// This is a terminal success outcome, never an error.
func (ms *MatchmakingService) createAIMatch(ctx context.Context, request *models.MatchRequest) (*models.ProcessOutcome, error) {
	partnerID := "ai_practice_" + uuid.NewString()
	channelName := "ai_practice_" + uuid.NewString()
	match := &models.Match{
		MatchID:      uuid.NewString(),
		Participants: []string{request.UserID, partnerID},
		RequestIDs:   []string{request.RequestID},
		ChannelName:  channelName,
		IsAIMatch:    true,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	if err := ms.Store.AssignAIMatch(ctx, request, match); err != nil {
		if errors.Is(err, ErrNotSearching) {
			return ms.settledOutcome(ctx, request.RequestID)
		}
		return nil, err
	}

	ms.notify(request.UserID, partnerID, channelName, true)

	ms.Logger.WithFields(logrus.Fields{
		"requestId":   request.RequestID,
		"userId":      request.UserID,
		"channelName": channelName,
	}).Info("ai practice match created")

	return &models.ProcessOutcome{
		Type:        models.OutcomeAIFallback,
		RequestID:   request.RequestID,
		MatchedWith: partnerID,
		ChannelName: channelName,
		IsAIMatch:   true,
	}, nil
}

// requeue handles an unsuccessful attempt: give up to AI fallback after
// the bounded retries, otherwise widen the window, persist the retry and
// schedule a delayed re-invocation.
func (ms *MatchmakingService) requeue(ctx context.Context, request *models.MatchRequest) (*models.ProcessOutcome, error) {
	retry := request.RetryCount + 1
	if retry >= models.MaxRetryCount {
		return ms.createAIMatch(ctx, request)
	}

	base := request.Preferences.RatingRange
	if base <= 0 {
		base = models.DefaultRatingRange
	}
	widened := base + models.RatingRangeStep*retry
	if widened > models.MaxRatingRange {
		widened = models.MaxRatingRange
	}

	if err := ms.Store.BumpRetry(ctx, request.RequestID, retry, widened); err != nil {
		if errors.Is(err, ErrNotSearching) {
			return ms.settledOutcome(ctx, request.RequestID)
		}
		return nil, err
	}

	task := models.ProcessTask{RequestID: request.RequestID, UserID: request.UserID}
	if err := ms.Dispatcher.EnqueueProcess(ctx, task, models.RetryDelaySeconds*time.Second); err != nil {
		return nil, err
	}

	ms.Logger.WithFields(logrus.Fields{
		"requestId":   request.RequestID,
		"retryCount":  retry,
		"ratingRange": widened,
	}).Info("match request requeued")

	return &models.ProcessOutcome{
		Type:       models.OutcomeRequeued,
		RequestID:  request.RequestID,
		RetryCount: retry,
	}, nil
}

// Cancel transitions a searching request to cancelled. Only the owning
// user may cancel; once terminal the cancel is rejected.
func (ms *MatchmakingService) Cancel(ctx context.Context, requestID, userID string) error {
	request, err := ms.Store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.UserID != userID {
		return ErrUnauthorized
	}
	if err := ms.Store.MarkCancelled(ctx, requestID); err != nil {
		return err
	}

	ms.Logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"userId":    userID,
	}).Info("match request cancelled")
	return nil
}

// GetRequest exposes a request snapshot for polling clients
func (ms *MatchmakingService) GetRequest(ctx context.Context, requestID string) (*models.MatchRequest, error) {
	return ms.Store.GetRequest(ctx, requestID)
}

// failRequest marks a request terminally failed and reports the reason
func (ms *MatchmakingService) failRequest(ctx context.Context, request *models.MatchRequest, reason string) (*models.ProcessOutcome, error) {
	if err := ms.Store.MarkError(ctx, request.RequestID, reason); err != nil && !errors.Is(err, ErrNotSearching) {
		return nil, err
	}

	ms.Logger.WithFields(logrus.Fields{
		"requestId": request.RequestID,
		"reason":    reason,
	}).Error("match request failed")

	return &models.ProcessOutcome{
		Type:      models.OutcomeError,
		RequestID: request.RequestID,
		Reason:    reason,
	}, nil
}

// settledOutcome re-reads a request that turned terminal mid-invocation
// (cancelled or claimed elsewhere) and reports the settled status
func (ms *MatchmakingService) settledOutcome(ctx context.Context, requestID string) (*models.ProcessOutcome, error) {
	request, err := ms.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &models.ProcessOutcome{Type: "already_" + request.Status, RequestID: requestID}, nil
}

func (ms *MatchmakingService) notify(userID, partnerID, channelName string, isAIMatch bool) {
	if ms.Notifier != nil {
		ms.Notifier.MatchFound(userID, partnerID, channelName, isAIMatch)
	}
}
