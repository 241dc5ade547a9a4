package services

import (
	"sort"
	"time"

	"sage-backend/domain/core/entities"
)

// TopicPoint is one (timestamp, engagement) observation for a topic
type TopicPoint struct {
	Timestamp  time.Time
	Engagement float64
}

// Patterns is the grouped-statistics view over a community's activity history
type Patterns struct {
	HourlyMeans     map[int]float64
	DailyMeans      map[time.Weekday]float64
	TopicEngagement map[string][]TopicPoint
	PeakHours       []int
	PeakDays        []time.Weekday
	SampleCount     int
}

// HourBucketsObserved returns how many distinct hour-of-day buckets have data
func (p *Patterns) HourBucketsObserved() int {
	return len(p.HourlyMeans)
}

// PatternAnalyzer groups activity data points by hour-of-day, day-of-week and
// topic, and ranks the peak buckets. Pure computation over an immutable
// history slice.
type PatternAnalyzer struct{}

// NewPatternAnalyzer creates a pattern analyzer
func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{}
}

// Analyze computes grouped means and peak buckets over the history
func (a *PatternAnalyzer) Analyze(history []entities.ActivityDataPoint) *Patterns {
	patterns := &Patterns{
		HourlyMeans:     map[int]float64{},
		DailyMeans:      map[time.Weekday]float64{},
		TopicEngagement: map[string][]TopicPoint{},
		SampleCount:     len(history),
	}
	if len(history) == 0 {
		return patterns
	}

	hourSums := map[int]float64{}
	hourCounts := map[int]int{}
	daySums := map[time.Weekday]float64{}
	dayCounts := map[time.Weekday]int{}

	for _, point := range history {
		hour := point.Timestamp.Hour()
		day := point.Timestamp.Weekday()

		hourSums[hour] += point.ActivityScore
		hourCounts[hour]++
		daySums[day] += point.ActivityScore
		dayCounts[day]++

		for _, topic := range point.Topics {
			patterns.TopicEngagement[topic] = append(patterns.TopicEngagement[topic], TopicPoint{
				Timestamp:  point.Timestamp,
				Engagement: point.EngagementScore,
			})
		}
	}

	for hour, sum := range hourSums {
		patterns.HourlyMeans[hour] = sum / float64(hourCounts[hour])
	}
	for day, sum := range daySums {
		patterns.DailyMeans[day] = sum / float64(dayCounts[day])
	}

	patterns.PeakHours = topHours(patterns.HourlyMeans, 3)
	patterns.PeakDays = topDays(patterns.DailyMeans, 2)

	return patterns
}

// TrendingTopics ranks topics by mean engagement, most engaging first
func (a *PatternAnalyzer) TrendingTopics(patterns *Patterns, limit int) []string {
	type topicScore struct {
		topic string
		mean  float64
	}

	scores := make([]topicScore, 0, len(patterns.TopicEngagement))
	for topic, points := range patterns.TopicEngagement {
		var sum float64
		for _, p := range points {
			sum += p.Engagement
		}
		scores = append(scores, topicScore{topic: topic, mean: sum / float64(len(points))})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].mean != scores[j].mean {
			return scores[i].mean > scores[j].mean
		}
		return scores[i].topic < scores[j].topic
	})

	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	topics := make([]string, len(scores))
	for i, s := range scores {
		topics[i] = s.topic
	}
	return topics
}

func topHours(means map[int]float64, limit int) []int {
	hours := make([]int, 0, len(means))
	for h := range means {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if means[hours[i]] != means[hours[j]] {
			return means[hours[i]] > means[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > limit {
		hours = hours[:limit]
	}
	return hours
}

func topDays(means map[time.Weekday]float64, limit int) []time.Weekday {
	days := make([]time.Weekday, 0, len(means))
	for d := range means {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		if means[days[i]] != means[days[j]] {
			return means[days[i]] > means[days[j]]
		}
		return days[i] < days[j]
	})
	if len(days) > limit {
		days = days[:limit]
	}
	return days
}
