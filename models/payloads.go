package models

// SubmitMatchPayload is the body of POST /api/match/request
type SubmitMatchPayload struct {
	RequestID    string           `json:"requestId"` // Optional, generated when empty
	UserID       string           `json:"userId" validate:"required"`
	UserRating   int              `json:"userRating" validate:"omitempty,gte=0"`
	ForceAIMatch bool             `json:"forceAIMatch"`
	Preferences  MatchPreferences `json:"preferences"`
}

// CancelMatchPayload is the body of POST /api/match/cancel
type CancelMatchPayload struct {
	RequestID string `json:"requestId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

// EvaluationPayload is the body of POST /api/evaluations
type EvaluationPayload struct {
	EvaluatedUserID string `json:"evaluatedUserId" validate:"required"`
	EvaluatorUserID string `json:"evaluatorUserId" validate:"required"`
	Rating          int    `json:"rating" validate:"required,gte=1,lte=5"`
	ChannelName     string `json:"channelName"`
}

// ProcessTask is the payload handed to the work dispatcher for one
// match-processing invocation. Delivery is at-least-once; the engine
// re-checks request status so redelivery is harmless.
type ProcessTask struct {
	RequestID string `json:"requestId" validate:"required"`
	UserID    string `json:"userId"`
}

// ProcessOutcome describes how one processing invocation ended
type ProcessOutcome struct {
	Type        string `json:"type"` // matched | ai_fallback | requeued | error | already_<status>
	RequestID   string `json:"requestId"`
	MatchedWith string `json:"matchedWith,omitempty"`
	ChannelName string `json:"channelName,omitempty"`
	IsAIMatch   bool   `json:"isAIMatch,omitempty"`
	RetryCount  int    `json:"retryCount,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// QueueStats is the advisory queue estimate returned on submit and from
// GET /api/match/queue. It carries no correctness guarantee.
type QueueStats struct {
	Position             int `json:"queuePosition"`
	EstimatedWaitSeconds int `json:"estimatedWaitTime"`
}
