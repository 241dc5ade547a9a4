package services

import (
	"strings"
)

// AdviceContext carries the situational inputs the advisor conditions on
type AdviceContext struct {
	CommunitySize int     `json:"communitySize"`
	HealthScore   float64 `json:"healthScore,omitempty"`
}

// GuidancePlan is the advisor's deterministic output for a situation
type GuidancePlan struct {
	Category        string   `json:"category"`
	PrimaryGuidance string   `json:"primaryGuidance"`
	Recommendations []string `json:"recommendations"`
	Insight         string   `json:"insight"`
	PracticalStep   string   `json:"practicalStep"`
}

// guidanceEntry is one row of the static situation table
type guidanceEntry struct {
	keywords        []string
	primaryGuidance string
	recommendations []string
	insight         string
}

// AdviceAdvisor maps situation text to guidance via a static lookup table.
// This is intentionally not a learning system: the same situation always
// yields the same plan, which keeps moderator guidance predictable.
type AdviceAdvisor struct {
	table    []guidanceEntry
	fallback guidanceEntry
}

// NewAdviceAdvisor creates an advisor with the built-in guidance table
func NewAdviceAdvisor() *AdviceAdvisor {
	return &AdviceAdvisor{
		table: []guidanceEntry{
			{
				keywords:        []string{"conflict", "argument", "fight", "drama", "toxic", "ban"},
				primaryGuidance: "Address the disagreement early, in private, and with both sides heard.",
				recommendations: []string{
					"move the heated thread to a private channel with a neutral moderator",
					"restate each side's position back to them before judging",
					"agree on one concrete rule change that prevents a repeat",
					"follow up with both parties within 48 hours",
				},
				insight: "Most community conflict is two people protecting the same thing from different directions.",
			},
			{
				keywords:        []string{"growth", "grow", "new members", "invite", "onboarding", "engagement"},
				primaryGuidance: "Grow through the members you already have before chasing new ones.",
				recommendations: []string{
					"give your most active members a visible role in welcoming newcomers",
					"schedule recurring events so there is always a next thing to join",
					"prune channels that have gone quiet to concentrate conversation",
				},
				insight: "A community grows at the speed its existing members feel proud to share it.",
			},
			{
				keywords:        []string{"wellness", "burnout", "stress", "quiet", "lonely", "support", "mental"},
				primaryGuidance: "Treat quietness as a signal, not an absence.",
				recommendations: []string{
					"check privately on members whose tone has shifted",
					"keep at least one low-pressure channel where lurking is welcome",
					"rotate moderation duties before anyone has to ask for a break",
				},
				insight: "People rarely announce that they are struggling; they just get quieter.",
			},
		},
		fallback: guidanceEntry{
			primaryGuidance: "Watch, listen, and change one thing at a time.",
			recommendations: []string{
				"write down what outcome you actually want before acting",
				"ask two or three trusted members what they are seeing",
				"make the smallest change that could help and revisit in a week",
			},
			insight: "Communities are gardens, not machines; they respond to tending, not commands.",
		},
	}
}

// Advise selects the guidance plan for a situation. Matching is
// case-insensitive keyword lookup against the fixed categories.
func (a *AdviceAdvisor) Advise(situation string, ctx AdviceContext) *GuidancePlan {
	lowered := strings.ToLower(situation)

	entry := a.fallback
	category := "general"
	for i, row := range a.table {
		if matchesAny(lowered, row.keywords) {
			entry = a.table[i]
			category = []string{"conflict", "growth", "wellness"}[i]
			break
		}
	}

	return &GuidancePlan{
		Category:        category,
		PrimaryGuidance: entry.primaryGuidance,
		Recommendations: entry.recommendations,
		Insight:         entry.insight,
		PracticalStep:   practicalStep(ctx.CommunitySize),
	}
}

// Wisdom returns the philosophical line for the community's current situation,
// used by the insights aggregation.
func (a *AdviceAdvisor) Wisdom(healthScore float64) string {
	switch {
	case healthScore >= 0.7:
		return "A healthy community is one where silence feels comfortable, not ominous."
	case healthScore >= 0.4:
		return "Steady communities are built in the unremarkable weeks, not the dramatic ones."
	default:
		return "When a community struggles, the first repair is always attention."
	}
}

// practicalStep conditions one concrete step on community size
func practicalStep(size int) string {
	switch {
	case size > 0 && size < 50:
		return "With a community this small, leverage intimacy: address members by name and handle things one conversation at a time."
	case size > 500:
		return "At this scale, create sub-groups: smaller spaces where members can actually know each other."
	default:
		return "Identify your ten most connected members and work through them."
	}
}

func matchesAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
