package models

// ✅ Match request statuses
const (
	StatusSearching = "searching"
	StatusMatched   = "matched"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// ✅ Processing outcomes reported to callers
const (
	OutcomeMatched    = "matched"
	OutcomeAIFallback = "ai_fallback"
	OutcomeRequeued   = "requeued"
	OutcomeError      = "error"
)

// Matchmaking tuning values
const (
	DefaultUserRating  = 1000
	DefaultRatingRange = 200 // Initial search window (± rating points)
	MaxRatingRange     = 500 // Search window ceiling
	RatingRangeStep    = 100 // Window growth per search iteration
	CandidatePageSize  = 10  // Candidates fetched per query, keeps search latency bounded
	MaxRetryCount      = 3   // Unsuccessful attempts before forced AI fallback
	RetryDelaySeconds  = 10  // Delay before a requeued attempt runs again
	AIRatingThreshold  = 800 // Ratings at or below this go straight to AI practice
)
