package services

import (
	"strings"
	"unicode"
)

// MessageScorer supplies the lexical scores the core consumes. Sentiment and
// topic analysis is deliberately simple keyword scoring; the core's job is
// what happens to the scores over time and over a population, not linguistics.
type MessageScorer interface {
	// Sentiment scores the message in [-1,1]
	Sentiment(text string) float64

	// Energy scores how energetic the message reads, in [0,1]
	Energy(text string) float64

	// Topics extracts keyword topics from the message
	Topics(text string) []string
}

// LexiconScorer is the default MessageScorer: fixed positive/negative word
// lists plus punctuation and casing heuristics.
type LexiconScorer struct {
	positive  map[string]bool
	negative  map[string]bool
	stopWords map[string]bool
}

// NewLexiconScorer creates a scorer with the built-in English lexicon
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		positive:  wordSet(positiveWords),
		negative:  wordSet(negativeWords),
		stopWords: wordSet(stopWords),
	}
}

// Sentiment scores the message by the balance of positive and negative words
func (s *LexiconScorer) Sentiment(text string) float64 {
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	var hits int
	for _, word := range words {
		if s.positive[word] {
			score++
			hits++
		} else if s.negative[word] {
			score--
			hits++
		}
	}
	if hits == 0 {
		return 0
	}

	// Normalize against matched words so long neutral messages don't dilute
	sentiment := score / float64(hits)

	// Exclamation marks amplify whatever direction the words point
	if strings.Contains(text, "!") && sentiment != 0 {
		sentiment *= 1.2
	}
	return clamp(sentiment, -1, 1)
}

// Energy scores message energy from length, punctuation and casing
func (s *LexiconScorer) Energy(text string) float64 {
	if text == "" {
		return 0
	}

	energy := 0.3

	exclamations := strings.Count(text, "!")
	if exclamations > 3 {
		exclamations = 3
	}
	energy += float64(exclamations) * 0.15

	var upper, letters int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters > 10 && float64(upper)/float64(letters) > 0.5 {
		energy += 0.2
	}

	if len(text) > 200 {
		energy += 0.1
	}

	return clamp(energy, 0, 1)
}

// Topics extracts significant non-stop words as keyword topics
func (s *LexiconScorer) Topics(text string) []string {
	words := tokenize(text)
	seen := make(map[string]bool)
	topics := make([]string, 0)
	for _, word := range words {
		if len(word) > 3 && !s.stopWords[word] && !seen[word] {
			topics = append(topics, word)
			seen[word] = true
		}
	}
	if len(topics) > 5 {
		topics = topics[:5]
	}
	return topics
}

// tokenize splits text into lowercase word tokens
func tokenize(text string) []string {
	text = strings.ToLower(text)
	words := make([]string, 0)

	var current strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var positiveWords = []string{
	"love", "great", "awesome", "amazing", "happy", "excited", "wonderful",
	"fantastic", "excellent", "good", "nice", "fun", "thanks", "thank",
	"congrats", "congratulations", "yay", "woo", "best", "glad", "enjoy",
	"beautiful", "perfect", "win", "winning", "celebrate", "proud",
}

var negativeWords = []string{
	"hate", "terrible", "awful", "sad", "angry", "upset", "horrible",
	"bad", "worst", "annoying", "frustrated", "frustrating", "tired",
	"exhausted", "lonely", "alone", "stressed", "stress", "anxious",
	"worried", "depressed", "cry", "crying", "sorry", "lost", "fail",
	"failing", "sick", "hurt", "pain",
}

var stopWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i",
	"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
	"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
	"or", "an", "will", "my", "one", "all", "would", "there", "their",
	"what", "so", "up", "out", "if", "about", "who", "get", "which",
	"go", "me", "when", "make", "can", "like", "just", "is", "was",
	"are", "been", "has", "had", "were", "said", "did", "very", "really",
	"them", "some", "then", "than", "into", "over", "also", "your",
}
