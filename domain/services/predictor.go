package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
)

// SocialPredictor turns pattern statistics and mood history into posting-time
// and mood-shift predictions. Pure computation: "no data" returns empty or nil
// results, never an error.
type SocialPredictor struct {
	cfg      *config.DomainConfig
	analyzer *PatternAnalyzer
}

// NewSocialPredictor creates a predictor with the given tunables
func NewSocialPredictor(cfg *config.DomainConfig) *SocialPredictor {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SocialPredictor{
		cfg:      cfg,
		analyzer: NewPatternAnalyzer(),
	}
}

// AnalyzePatterns exposes the underlying pattern grouping
func (p *SocialPredictor) AnalyzePatterns(history []entities.ActivityDataPoint) *Patterns {
	return p.analyzer.Analyze(history)
}

// PredictOptimalPostingTimes ranks each hour of the horizon by expected
// activity, blending hourly and daily means with an exponential time decay
// that favors near-term slots. Empty patterns yield an empty ranking.
func (p *SocialPredictor) PredictOptimalPostingTimes(patterns *Patterns, now time.Time) []entities.PostingTimeSlot {
	if patterns == nil || patterns.SampleCount == 0 {
		return nil
	}

	confidence := math.Min(0.9, float64(patterns.HourBucketsObserved())/24.0*0.9)

	slots := make([]entities.PostingTimeSlot, 0, p.cfg.PostingHorizonHours)
	for h := 1; h <= p.cfg.PostingHorizonHours; h++ {
		slotTime := now.Add(time.Duration(h) * time.Hour)

		hourly, ok := patterns.HourlyMeans[slotTime.Hour()]
		if !ok {
			hourly = p.cfg.MissingBucketScore
		}
		daily, ok := patterns.DailyMeans[slotTime.Weekday()]
		if !ok {
			daily = p.cfg.MissingBucketScore
		}

		base := hourly*p.cfg.HourlyWeight + daily*p.cfg.DailyWeight
		score := base * math.Pow(p.cfg.HourDecayBase, float64(h))

		slots = append(slots, entities.PostingTimeSlot{
			Time:       slotTime,
			Hour:       slotTime.Hour(),
			Score:      score,
			Confidence: confidence,
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Score > slots[j].Score
	})
	return slots
}

// PredictMoodShift inspects the community's recent mood snapshot window and
// emits a prediction only when the trend is strong and the mood volatile.
// Fewer than the minimum samples means no prediction, not an error. The trend
// and volatility thresholds are read from the state so hot-reloaded overrides
// apply per community. Runs under the community lock.
func (p *SocialPredictor) PredictMoodShift(state *aggregates.CommunityState, now time.Time) *entities.SocialPrediction {
	cutoff := now.Add(-p.cfg.MoodShiftWindow)
	history := state.MoodHistory()
	values := make([]float64, 0, len(history))
	for _, snap := range history {
		if snap.Timestamp.After(cutoff) {
			values = append(values, snap.MoodState.Numeric())
		}
	}
	if len(values) < p.cfg.MoodShiftMinPoints {
		return nil
	}

	trend := mean(values[len(values)-3:]) - mean(values[:3])
	volatility := stdev(values)

	if math.Abs(trend) <= state.Config().MoodTrendThreshold || volatility <= state.Config().VolatilityThreshold {
		return nil
	}

	direction := "improving"
	actions := []string{
		"ride the positive momentum with a community event",
		"highlight recent wins in announcements",
	}
	if trend < 0 {
		direction = "declining"
		actions = []string{
			"check in with active members",
			"surface lighter discussion topics",
			"review recent conflicts for unresolved tension",
		}
	}

	confidence := math.Min(0.9, float64(len(values))/24.0*0.8+0.1)

	prediction := entities.NewSocialPrediction(
		state.CommunityID(),
		entities.PredictionMoodShift,
		confidence,
		now.Add(p.cfg.MoodShiftWindow/4),
		fmt.Sprintf("community mood is %s", direction),
	)
	prediction.ContributingFactors = []string{
		fmt.Sprintf("trend %.2f over %d snapshots", trend, len(values)),
		fmt.Sprintf("volatility %.2f", volatility),
	}
	prediction.SuggestedActions = actions
	return prediction
}

// PredictTopicTrend emits a topic-trend prediction for the currently most
// engaging topic, when one exists.
func (p *SocialPredictor) PredictTopicTrend(communityID string, patterns *Patterns, now time.Time) *entities.SocialPrediction {
	if patterns == nil {
		return nil
	}
	trending := p.analyzer.TrendingTopics(patterns, 1)
	if len(trending) == 0 {
		return nil
	}
	topic := trending[0]
	points := patterns.TopicEngagement[topic]
	if len(points) < 3 {
		return nil
	}

	confidence := math.Min(0.8, float64(len(points))/20.0*0.8)

	prediction := entities.NewSocialPrediction(
		communityID,
		entities.PredictionTopicTrend,
		confidence,
		now.Add(12*time.Hour),
		fmt.Sprintf("topic %q is gathering engagement", topic),
	)
	prediction.ContributingFactors = []string{
		fmt.Sprintf("%d engagement observations", len(points)),
	}
	prediction.SuggestedActions = []string{
		fmt.Sprintf("seed a discussion thread about %q", topic),
	}
	return prediction
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
