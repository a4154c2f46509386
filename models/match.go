package models

// Match records one created session: two humans, or one human and an AI
// practice partner
type Match struct {
	MatchID      string   `dynamodbav:"matchId" json:"matchId"` // ✅ Partition Key
	Participants []string `dynamodbav:"participants" json:"participants"`
	RequestIDs   []string `dynamodbav:"requestIds" json:"requestIds"`
	ChannelName  string   `dynamodbav:"channelName" json:"channelName"`
	IsAIMatch    bool     `dynamodbav:"isAIMatch,omitempty" json:"isAIMatch,omitempty"`
	CreatedAt    string   `dynamodbav:"createdAt" json:"createdAt"` // RFC3339
}

// MatchesTable is the DynamoDB table name for created matches
const MatchesTable = "Matches"
