package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"sage-backend/application/ports"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	"sage-backend/domain/services"
)

// MemoryHighlight is one fragment surfaced in the insights payload
type MemoryHighlight struct {
	FragmentID string   `json:"fragmentId"`
	Kind       string   `json:"kind"`
	Importance float64  `json:"importance"`
	Tags       []string `json:"tags,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

// MoodAnalysis summarizes the community's current emotional trajectory
type MoodAnalysis struct {
	CurrentMood   string  `json:"currentMood"`
	MoodValue     float64 `json:"moodValue"`
	Trend         string  `json:"trend"`
	SnapshotCount int     `json:"snapshotCount"`
	AvgSentiment  float64 `json:"avgSentiment"`
}

// PredictiveInsights bundles forward-looking output for the insights payload
type PredictiveInsights struct {
	OptimalPostingTimes []entities.PostingTimeSlot `json:"optimalPostingTimes,omitempty"`
	TrendingTopics      []string                   `json:"trendingTopics,omitempty"`
	PeakHours           []int                      `json:"peakHours,omitempty"`
}

// CommunityInsights is the full aggregated intelligence view of a community
type CommunityInsights struct {
	CommunityID        string                    `json:"communityId"`
	GeneratedAt        time.Time                 `json:"generatedAt"`
	HealthScore        float64                   `json:"healthScore"`
	MoodAnalysis       MoodAnalysis              `json:"moodAnalysis"`
	MemoryHighlights   []MemoryHighlight         `json:"memoryHighlights,omitempty"`
	PredictiveInsights PredictiveInsights        `json:"predictiveInsights"`
	WellnessOverview   services.WellnessOverview `json:"wellnessOverview"`
	SageWisdom         string                    `json:"sageWisdom"`
}

// CrossCommunityPatterns is the anonymized aggregate over all resident
// communities. No community or user identifier appears in it.
type CrossCommunityPatterns struct {
	GeneratedAt      time.Time `json:"generatedAt"`
	CommunityCount   int       `json:"communityCount"`
	AvgMoodValue     float64   `json:"avgMoodValue"`
	AvgHealthScore   float64   `json:"avgHealthScore"`
	CommonTopics     []string  `json:"commonTopics,omitempty"`
	TotalFragments   int       `json:"totalFragments"`
	ProfilesTracked  int       `json:"profilesTracked"`
}

const (
	healthMoodWeight     = 0.4
	healthWellnessWeight = 0.3
	healthActivityWeight = 0.3
)

// insightsTTL bounds how stale a cached insights payload may be
const insightsTTL = 30 * time.Second

// GetInsights aggregates the community's state into one insights payload and
// queues it for persistence. Recent results are served from cache so insight
// dashboards polling the API do not contend for community locks.
func (o *IntelligenceOrchestrator) GetInsights(ctx context.Context, communityID string) (*CommunityInsights, error) {
	if o.insights != nil {
		if cached, ok := o.insights.Get(communityID); ok {
			return cached.(*CommunityInsights), nil
		}
	}

	now := time.Now()
	insights := &CommunityInsights{
		CommunityID: communityID,
		GeneratedAt: now,
	}

	o.registry.Snapshot(communityID, func(state *aggregates.CommunityState) {
		insights.MoodAnalysis = o.analyzeMood(state)
		insights.MemoryHighlights = o.topHighlights(state, 5)
		insights.WellnessOverview = o.monitor.Overview(state)

		patterns := o.predictor.AnalyzePatterns(state.Activity())
		insights.PredictiveInsights = PredictiveInsights{
			OptimalPostingTimes: o.predictor.PredictOptimalPostingTimes(patterns, now),
			TrendingTopics:      o.analyzer.TrendingTopics(patterns, 5),
		}
		if patterns != nil {
			insights.PredictiveInsights.PeakHours = patterns.PeakHours
		}

		insights.HealthScore = healthScore(state, insights.WellnessOverview)
	})

	insights.SageWisdom = o.advisor.Wisdom(insights.HealthScore)

	if o.insights != nil {
		o.insights.Set(communityID, insights, insightsTTL)
	}

	if o.sink != nil {
		record, err := encodeRecord(ports.TableCommunityInsights, communityID+"/latest", communityID, insights)
		if err != nil {
			o.logger.Warn("failed to encode insights record", zap.Error(err))
		} else {
			o.sink.Enqueue(record)
		}
	}

	return insights, nil
}

// MoodHistory returns a copy of the community's retained mood snapshots,
// oldest first.
func (o *IntelligenceOrchestrator) MoodHistory(ctx context.Context, communityID string) ([]entities.MoodSnapshot, error) {
	var history []entities.MoodSnapshot
	o.registry.Snapshot(communityID, func(state *aggregates.CommunityState) {
		history = state.MoodHistory()
	})
	return history, nil
}

// Advise returns deterministic moderator guidance for a described situation
func (o *IntelligenceOrchestrator) Advise(ctx context.Context, communityID, situation string) (*services.GuidancePlan, error) {
	adviceCtx := services.AdviceContext{}
	o.registry.Snapshot(communityID, func(state *aggregates.CommunityState) {
		overview := o.monitor.Overview(state)
		adviceCtx.CommunitySize = overview.ProfilesTracked
		adviceCtx.HealthScore = healthScore(state, overview)
	})

	return o.advisor.Advise(situation, adviceCtx), nil
}

// GlobalPatterns aggregates anonymized signals across every resident
// community. Communities are visited one at a time; the aggregation never
// holds two community locks at once.
func (o *IntelligenceOrchestrator) GlobalPatterns(ctx context.Context) (*CrossCommunityPatterns, error) {
	result := &CrossCommunityPatterns{GeneratedAt: time.Now()}
	topicCounts := make(map[string]int)
	var moodSum, healthSum float64

	for _, communityID := range o.registry.CommunityIDs() {
		o.registry.Snapshot(communityID, func(state *aggregates.CommunityState) {
			result.CommunityCount++
			result.TotalFragments += state.FragmentCount()

			overview := o.monitor.Overview(state)
			result.ProfilesTracked += overview.ProfilesTracked
			moodSum += state.MoodValue()
			healthSum += healthScore(state, overview)

			patterns := o.predictor.AnalyzePatterns(state.Activity())
			for _, topic := range o.analyzer.TrendingTopics(patterns, 3) {
				topicCounts[topic]++
			}
		})
	}

	if result.CommunityCount > 0 {
		result.AvgMoodValue = moodSum / float64(result.CommunityCount)
		result.AvgHealthScore = healthSum / float64(result.CommunityCount)
	}
	result.CommonTopics = topTopics(topicCounts, 5)

	if o.sink != nil {
		record, err := encodeRecord(ports.TableCrossServerPatterns, "global/latest", "global", result)
		if err != nil {
			o.logger.Warn("failed to encode cross-community record", zap.Error(err))
		} else {
			o.sink.Enqueue(record)
		}
	}

	return result, nil
}

func (o *IntelligenceOrchestrator) analyzeMood(state *aggregates.CommunityState) MoodAnalysis {
	history := state.MoodHistory()
	analysis := MoodAnalysis{
		CurrentMood:   string(state.MoodState()),
		MoodValue:     state.MoodValue(),
		Trend:         "stable",
		SnapshotCount: len(history),
	}
	if len(history) == 0 {
		return analysis
	}

	var sentimentSum float64
	for _, snapshot := range history {
		sentimentSum += snapshot.AvgSentiment
	}
	analysis.AvgSentiment = sentimentSum / float64(len(history))

	if len(history) >= 6 {
		recent := history[len(history)-3:]
		earlier := history[len(history)-6 : len(history)-3]
		var recentSum, earlierSum float64
		for i := range recent {
			recentSum += recent[i].AvgSentiment
			earlierSum += earlier[i].AvgSentiment
		}
		delta := (recentSum - earlierSum) / 3
		switch {
		case delta > 0.1:
			analysis.Trend = "improving"
		case delta < -0.1:
			analysis.Trend = "declining"
		}
	}

	return analysis
}

// topHighlights returns the community's most important fragments without
// touching access statistics; insights reads must not distort recall ranking.
func (o *IntelligenceOrchestrator) topHighlights(state *aggregates.CommunityState, limit int) []MemoryHighlight {
	fragments := state.Fragments()
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Importance() > fragments[j].Importance()
	})
	if len(fragments) > limit {
		fragments = fragments[:limit]
	}

	highlights := make([]MemoryHighlight, 0, len(fragments))
	for _, f := range fragments {
		highlights = append(highlights, MemoryHighlight{
			FragmentID: f.ID().String(),
			Kind:       string(f.Kind()),
			Importance: f.Importance(),
			Tags:       f.Tags(),
			CreatedAt:  f.CreatedAt().UTC().Format(time.RFC3339),
		})
	}
	return highlights
}

// healthScore blends mood, wellness and activity into one [0,1] score
func healthScore(state *aggregates.CommunityState, overview services.WellnessOverview) float64 {
	moodComponent := (state.MoodValue() + 1) / 2

	wellnessComponent := 1 - overview.AvgStressLevel

	// Activity component saturates at one datapoint per hour over the last day
	cutoff := time.Now().Add(-24 * time.Hour)
	recent := 0
	for _, point := range state.Activity() {
		if point.Timestamp.After(cutoff) {
			recent++
		}
	}
	activityComponent := float64(recent) / 24
	if activityComponent > 1 {
		activityComponent = 1
	}

	return moodComponent*healthMoodWeight +
		wellnessComponent*healthWellnessWeight +
		activityComponent*healthActivityWeight
}

func topTopics(counts map[string]int, limit int) []string {
	topics := make([]string, 0, len(counts))
	for topic := range counts {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}
