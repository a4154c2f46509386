package services

import (
	"math"
	"sort"
	"time"

	"talkone_server/models"
)

// CompatibilityScore rates a candidate pairing from 0 to 100. The base
// score falls with rating distance (one point per 10 rating points),
// shared interests add 10 each and a shared region adds 20, clamped to
// 100. Pure and symmetric in its two sides.
func CompatibilityScore(ratingA, ratingB int, prefsA, prefsB models.MatchPreferences) float64 {
	diff := ratingA - ratingB
	if diff < 0 {
		diff = -diff
	}
	score := math.Max(0, 100-float64(diff)/10)

	shared := make(map[string]struct{}, len(prefsA.Interests))
	for _, interest := range prefsA.Interests {
		shared[interest] = struct{}{}
	}
	for _, interest := range prefsB.Interests {
		if _, ok := shared[interest]; ok {
			score += 10
			delete(shared, interest)
		}
	}

	if prefsA.Region == prefsB.Region {
		score += 20
	}

	return math.Min(100, score)
}

// scoredCandidate pairs a waiting request with its compatibility score
// and how long it has been waiting
type scoredCandidate struct {
	request  models.MatchRequest
	score    float64
	waitTime float64
}

// rankCandidates orders candidates best-first: highest score, then
// longest wait on ties. The order is total, so the head is the unique
// pick for a given snapshot.
func rankCandidates(candidates []scoredCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].waitTime > candidates[j].waitTime
	})
}

// waitSeconds returns how long ago an RFC3339 timestamp was, in seconds.
// Missing or malformed timestamps count as zero wait.
func waitSeconds(createdAt string, now time.Time) float64 {
	if createdAt == "" {
		return 0
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return 0
	}
	return now.Sub(created).Seconds()
}
