package service

import (
	"testing"

	"comms-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func balanceIntent() model.Intent {
	return model.Intent{
		ID:        1,
		Name:      "balance",
		Phrases:   []string{"what is my balance", "how much do i owe"},
		Responses: []string{"Your balance is {outstandingAmount}."},
	}
}

func TestReplyExactPhrase(t *testing.T) {
	m := NewMatcher([]model.Intent{balanceIntent()})

	reply := m.Reply("what is my balance")
	assert.Equal(t, "Your balance is {outstandingAmount}.", reply)
}

func TestReplyPartialOverlap(t *testing.T) {
	m := NewMatcher([]model.Intent{balanceIntent()})

	// "my balance" shares 2 of 4 phrase words: score 0.5, above threshold.
	reply := m.Reply("my balance")
	assert.Equal(t, "Your balance is {outstandingAmount}.", reply)
}

func TestReplyThresholdIsExclusive(t *testing.T) {
	m := NewMatcher([]model.Intent{{
		ID:        1,
		Name:      "wordy",
		Phrases:   []string{"one two three four five six seven eight nine ten"},
		Responses: []string{"matched"},
	}})

	// 3 shared words over max(3, 10) = 0.3 exactly; must NOT match.
	assert.Equal(t, FallbackReply, m.Reply("one two three"))
	// 4 shared words over max(4, 10) = 0.4; must match.
	assert.Equal(t, "matched", m.Reply("one two three four"))
}

func TestReplyFirstIntentWinsTies(t *testing.T) {
	m := NewMatcher([]model.Intent{
		{ID: 1, Name: "first", Phrases: []string{"pay my account"}, Responses: []string{"first"}},
		{ID: 2, Name: "second", Phrases: []string{"pay my account"}, Responses: []string{"second"}},
	})

	assert.Equal(t, "first", m.Reply("pay my account"))
}

func TestReplyFallback(t *testing.T) {
	m := NewMatcher([]model.Intent{balanceIntent()})

	assert.Equal(t, FallbackReply, m.Reply("completely unrelated gibberish"))
	assert.Equal(t, FallbackReply, m.Reply(""))
	assert.Equal(t, FallbackReply, m.Reply("   "))
}

func TestReplyNoIntents(t *testing.T) {
	m := NewMatcher(nil)
	assert.Equal(t, FallbackReply, m.Reply("what is my balance"))
}

func TestOverlapScoreCaseInsensitive(t *testing.T) {
	m := NewMatcher([]model.Intent{balanceIntent()})
	assert.Equal(t, "Your balance is {outstandingAmount}.", m.Reply("WHAT IS MY BALANCE"))
}
