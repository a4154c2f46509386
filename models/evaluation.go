package models

// Evaluation is a 1-5 peer rating left after a session. The AI
// recommendation predicate reads the most recent ones per user.
type Evaluation struct {
	EvaluationID    string `dynamodbav:"evaluationId" json:"evaluationId"` // ✅ Partition Key
	EvaluatedUserID string `dynamodbav:"evaluatedUserId" json:"evaluatedUserId"` // Partition key of EvaluatedUserIndex
	EvaluatorUserID string `dynamodbav:"evaluatorUserId" json:"evaluatorUserId"`
	Rating          int    `dynamodbav:"rating" json:"rating"` // 1-5
	ChannelName     string `dynamodbav:"channelName,omitempty" json:"channelName,omitempty"` // Session the evaluation refers to
	CreatedAt       string `dynamodbav:"createdAt" json:"createdAt"` // Sort key of EvaluatedUserIndex, RFC3339
}

// EvaluationsTable is the DynamoDB table name for peer evaluations
const EvaluationsTable = "Evaluations"

// EvaluatedUserIndex is the GSI used to read a user's recent evaluations
const EvaluatedUserIndex = "EvaluatedUserIndex"
