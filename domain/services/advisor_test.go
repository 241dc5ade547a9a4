package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdviseCategories(t *testing.T) {
	advisor := NewAdviceAdvisor()

	tests := []struct {
		name      string
		situation string
		category  string
	}{
		{"conflict keyword", "Two mods are in a huge argument over the rules", "conflict"},
		{"conflict case-insensitive", "DRAMA in the general channel again", "conflict"},
		{"growth keyword", "How do we improve onboarding for new members?", "growth"},
		{"wellness keyword", "A regular has gone really quiet lately", "wellness"},
		{"no keyword falls back", "Thinking about changing the server icon", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := advisor.Advise(tt.situation, AdviceContext{})
			require.NotNil(t, plan)
			assert.Equal(t, tt.category, plan.Category)
			assert.NotEmpty(t, plan.PrimaryGuidance)
			assert.NotEmpty(t, plan.Recommendations)
			assert.NotEmpty(t, plan.Insight)
		})
	}
}

func TestAdviseIsDeterministic(t *testing.T) {
	advisor := NewAdviceAdvisor()

	first := advisor.Advise("conflict brewing", AdviceContext{CommunitySize: 100})
	second := advisor.Advise("conflict brewing", AdviceContext{CommunitySize: 100})

	assert.Equal(t, first, second)
}

func TestAdvisePracticalStepBySize(t *testing.T) {
	advisor := NewAdviceAdvisor()

	small := advisor.Advise("growth plans", AdviceContext{CommunitySize: 20})
	assert.Contains(t, small.PracticalStep, "intimacy")

	large := advisor.Advise("growth plans", AdviceContext{CommunitySize: 2000})
	assert.Contains(t, large.PracticalStep, "sub-groups")

	mid := advisor.Advise("growth plans", AdviceContext{CommunitySize: 100})
	assert.Contains(t, mid.PracticalStep, "connected members")
}

func TestWisdomTiers(t *testing.T) {
	advisor := NewAdviceAdvisor()

	assert.NotEqual(t, advisor.Wisdom(0.9), advisor.Wisdom(0.5))
	assert.NotEqual(t, advisor.Wisdom(0.5), advisor.Wisdom(0.1))
}
