package service

import (
	"math/rand"
	"strings"

	"comms-service/internal/model"
)

// FallbackReply is returned when no intent clears the match threshold.
const FallbackReply = "Thank you for contacting the consumer portal. An agent will review your message and respond during office hours."

const matchThreshold = 0.3

// Matcher produces automatic replies to inbound messages by scoring
// word overlap between the message and each intent's example phrases.
type Matcher struct {
	intents []model.Intent
}

func NewMatcher(intents []model.Intent) *Matcher {
	return &Matcher{intents: intents}
}

// Reply returns a response for content. The score for an (intent, phrase)
// pair is |words(content) ∩ words(phrase)| / max(|words|), compared with a
// strict > against both the threshold and the running best, so the first
// pair in iteration order wins ties. The winning intent's response is
// picked uniformly at random.
func (m *Matcher) Reply(content string) string {
	contentWords := tokenize(content)
	if len(contentWords) == 0 {
		return FallbackReply
	}

	best := matchThreshold
	var responses []string

	for _, intent := range m.intents {
		for _, phrase := range intent.Phrases {
			score := overlapScore(contentWords, tokenize(phrase))
			if score > best {
				best = score
				responses = intent.Responses
			}
		}
	}

	if len(responses) == 0 {
		return FallbackReply
	}
	return responses[rand.Intn(len(responses))]
}

func overlapScore(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}

	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(shared) / float64(denom)
}

func tokenize(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		words[w] = struct{}{}
	}
	return words
}
