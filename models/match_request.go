package models

// MatchPreferences carries the caller-tunable search criteria for a request
type MatchPreferences struct {
	RatingRange int      `dynamodbav:"ratingRange,omitempty" json:"ratingRange,omitempty"` // Search window, widened on requeue
	Interests   []string `dynamodbav:"interests,omitempty" json:"interests,omitempty"`     // Shared interests raise the compatibility score
	Region      string   `dynamodbav:"region,omitempty" json:"region,omitempty"`           // Same region raises the compatibility score
}

// MatchRequest tracks one user's intent to be paired, from intake
// until a terminal status (matched, cancelled or error)
type MatchRequest struct {
	RequestID       string           `dynamodbav:"requestId" json:"requestId"` // ✅ Partition Key
	UserID          string           `dynamodbav:"userId" json:"userId"`
	UserRating      int              `dynamodbav:"userRating" json:"userRating"`                       // Sort key of StatusRatingIndex
	Status          string           `dynamodbav:"status" json:"status"`                               // Partition key of StatusRatingIndex
	Preferences     MatchPreferences `dynamodbav:"preferences" json:"preferences"`                     // Search criteria
	ForceAIMatch    bool             `dynamodbav:"forceAIMatch,omitempty" json:"forceAIMatch,omitempty"`
	RetryCount      int              `dynamodbav:"retryCount" json:"retryCount"`                       // Unsuccessful attempts so far
	MatchedWith     string           `dynamodbav:"matchedWith,omitempty" json:"matchedWith,omitempty"` // Partner user id, set on match
	ChannelName     string           `dynamodbav:"channelName,omitempty" json:"channelName,omitempty"` // Session channel, set on match
	IsAIMatch       bool             `dynamodbav:"isAIMatch,omitempty" json:"isAIMatch,omitempty"`
	ErrorReason     string           `dynamodbav:"errorReason,omitempty" json:"errorReason,omitempty"`
	CreatedAt       string           `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"` // RFC3339
	SearchStartedAt string           `dynamodbav:"searchStartedAt,omitempty" json:"searchStartedAt,omitempty"`
	MatchedAt       string           `dynamodbav:"matchedAt,omitempty" json:"matchedAt,omitempty"`
	CancelledAt     string           `dynamodbav:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	ErrorAt         string           `dynamodbav:"errorAt,omitempty" json:"errorAt,omitempty"`
}

// MatchRequestsTable is the DynamoDB table name for match requests
const MatchRequestsTable = "MatchRequests"

// StatusRatingIndex is the GSI used to query waiting requests by rating window
const StatusRatingIndex = "StatusRatingIndex"
