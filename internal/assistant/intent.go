package assistant

import "strings"

type Intent string

const (
	IntentBooking      Intent = "booking_request"
	IntentModification Intent = "modification_request"
	IntentSupport      Intent = "support_request"
	IntentGreeting     Intent = "greeting"
	IntentGeneral      Intent = "general_inquiry"
)

type keywordGroup struct {
	intent   Intent
	keywords []string
}

// Order matters: the first group with a matching keyword wins.
// "reschedule" contains "schedule", so it lands on booking.
var intentGroups = []keywordGroup{
	{IntentBooking, []string{"appointment", "book", "schedule"}},
	{IntentModification, []string{"cancel", "reschedule"}},
	{IntentSupport, []string{"help", "support", "problem"}},
	{IntentGreeting, []string{"hello", "hi", "hey"}},
}

var replies = map[Intent]string{
	IntentBooking:      "I'd be happy to help you book an appointment. Could you please tell me your preferred date and time?",
	IntentModification: "I can help you with that. Can you provide your booking reference number?",
	IntentSupport:      "I'm here to help! Please describe the issue you're facing.",
	IntentGreeting:     "Hello! How can I assist you today?",
	IntentGeneral:      "I understand. Let me help you with that.",
}

const fallbackReply = "I'm here to help. Could you please provide more details?"

// Classify maps free text to an intent by case-insensitive substring match.
func Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, g := range intentGroups {
		if containsAny(lower, g.keywords) {
			return g.intent
		}
	}
	return IntentGeneral
}

// Reply returns the canned sentence for an intent.
func Reply(intent Intent) string {
	if r, ok := replies[intent]; ok {
		return r
	}
	return fallbackReply
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
