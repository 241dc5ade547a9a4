package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexiconSentiment(t *testing.T) {
	scorer := NewLexiconScorer()

	tests := []struct {
		name string
		text string
		want func(t *testing.T, got float64)
	}{
		{
			"positive words", "what a great awesome day",
			func(t *testing.T, got float64) { assert.Equal(t, 1.0, got) },
		},
		{
			"negative words", "this is terrible and awful",
			func(t *testing.T, got float64) { assert.Equal(t, -1.0, got) },
		},
		{
			"mixed leans positive", "great great terrible",
			func(t *testing.T, got float64) { assert.InDelta(t, 1.0/3.0, got, 1e-9) },
		},
		{
			"no lexicon hits", "the quarterly report is attached",
			func(t *testing.T, got float64) { assert.Equal(t, 0.0, got) },
		},
		{
			"empty text", "",
			func(t *testing.T, got float64) { assert.Equal(t, 0.0, got) },
		},
		{
			"exclamation amplifies but clamps", "awesome!",
			func(t *testing.T, got float64) { assert.Equal(t, 1.0, got) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, scorer.Sentiment(tt.text))
		})
	}
}

func TestLexiconSentimentExclamationAmplification(t *testing.T) {
	scorer := NewLexiconScorer()

	plain := scorer.Sentiment("great day terrible night great morning")
	amplified := scorer.Sentiment("great day terrible night great morning!")

	assert.InDelta(t, plain*1.2, amplified, 1e-9)
}

func TestLexiconEnergy(t *testing.T) {
	scorer := NewLexiconScorer()

	assert.Equal(t, 0.0, scorer.Energy(""))
	assert.InDelta(t, 0.3, scorer.Energy("quiet message"), 1e-9)
	assert.InDelta(t, 0.45, scorer.Energy("hello!"), 1e-9)

	// Exclamation contribution is capped at three marks
	assert.InDelta(t, 0.75, scorer.Energy("wow!!!!!!!!"), 1e-9)

	// Shouting adds the casing bonus
	shouting := scorer.Energy("THIS IS VERY IMPORTANT NEWS")
	assert.InDelta(t, 0.5, shouting, 1e-9)

	// Long messages add the length bonus
	long := scorer.Energy(strings.Repeat("steady words here ", 15))
	assert.InDelta(t, 0.4, long, 1e-9)
}

func TestLexiconTopics(t *testing.T) {
	scorer := NewLexiconScorer()

	topics := scorer.Topics("Planning the weekend raid schedule with the raid team")
	assert.Equal(t, []string{"planning", "weekend", "raid", "schedule", "team"}, topics)

	// Short and stop words never become topics
	assert.Empty(t, scorer.Topics("so it is and was"))

	// Capped at five topics
	many := scorer.Topics("alpha bravo charlie delta echo foxtrot golf hotel")
	assert.Len(t, many, 5)
}
