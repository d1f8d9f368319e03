package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-calling-agent/internal/metrics"
	"ai-calling-agent/pkg/logger"
)

const (
	conversationConfidence = 0.92
	sentimentConfidence    = 0.85
)

var ErrEmptyMessage = errors.New("assistant: message is required")

var (
	positiveWords = []string{"good", "great", "excellent", "happy", "thanks"}
	negativeWords = []string{"bad", "poor", "unhappy", "problem", "issue"}
)

// Service answers single conversation turns with keyword rules.
// It never calls a model provider; Model is carried for logging only.
type Service struct {
	Model string

	clock func() time.Time
}

func NewService(model string) *Service {
	return &Service{Model: model, clock: time.Now}
}

// Respond classifies the message and returns the canned reply for its intent.
// History and context are accepted but do not influence the answer.
func (s *Service) Respond(ctx context.Context, req ConversationRequest) (ConversationResponse, error) {
	if req.Message == "" {
		return ConversationResponse{}, ErrEmptyMessage
	}

	intent := Classify(req.Message)
	metrics.ConversationIntents.WithLabelValues(string(intent)).Inc()
	logger.From(ctx).Debug("conversation turn classified",
		"intent", intent,
		"history_len", len(req.History),
		"model", s.Model,
	)

	return ConversationResponse{
		Response:   Reply(intent),
		Intent:     intent,
		Confidence: conversationConfidence,
		Timestamp:  s.clock().UTC(),
	}, nil
}

// AnalyzeSentiment compares counts of positive and negative marker words.
func (s *Service) AnalyzeSentiment(text string) Sentiment {
	lower := strings.ToLower(text)
	pos := countMatches(lower, positiveWords)
	neg := countMatches(lower, negativeWords)

	label := SentimentNeutral
	switch {
	case pos > neg:
		label = SentimentPositive
	case neg > pos:
		label = SentimentNegative
	}
	return Sentiment{Sentiment: label, Confidence: sentimentConfidence}
}

func countMatches(s string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(s, w) {
			n++
		}
	}
	return n
}
