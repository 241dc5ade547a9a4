package services

import (
	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	pkgerrors "sage-backend/pkg/errors"
)

// moodDeltaFactor scales how hard a single message moves community mood
const moodDeltaFactor = 0.1

// InfluenceProvider supplies a user's influence weight in [0,1]. The default
// constant provider stands in until a richer influence model is plugged in.
type InfluenceProvider interface {
	UserInfluence(communityID, userID string) float64
}

// ConstantInfluence is the default provider returning one fixed weight
type ConstantInfluence struct {
	Weight float64
}

// UserInfluence returns the fixed weight regardless of user
func (c ConstantInfluence) UserInfluence(communityID, userID string) float64 {
	return c.Weight
}

// InfluenceSpreadSimulator updates community mood from single events and
// simulates multi-wave propagation of an emotional event across a weighted
// social graph ("mood contagion").
type InfluenceSpreadSimulator struct {
	cfg       *config.DomainConfig
	scorer    MessageScorer
	influence InfluenceProvider
}

// NewInfluenceSpreadSimulator creates a simulator with the given collaborators
func NewInfluenceSpreadSimulator(cfg *config.DomainConfig, scorer MessageScorer, influence InfluenceProvider) *InfluenceSpreadSimulator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if scorer == nil {
		scorer = NewLexiconScorer()
	}
	if influence == nil {
		influence = ConstantInfluence{Weight: cfg.DefaultUserInfluence}
	}
	return &InfluenceSpreadSimulator{
		cfg:       cfg,
		scorer:    scorer,
		influence: influence,
	}
}

// TrackEvent scores one message, decays the community's running mood toward
// zero and nudges it by sentiment times user influence, appends a snapshot to
// the bounded history, and records the user's influence sample. The decay is
// what makes sustained neutral traffic converge the mood back to Neutral.
// Runs under the community lock.
func (s *InfluenceSpreadSimulator) TrackEvent(state *aggregates.CommunityState, event *entities.CommunityEvent) (entities.MoodSnapshot, error) {
	if !event.HasMessage() {
		return entities.MoodSnapshot{}, pkgerrors.NewValidationError("event carries no message data")
	}

	sentiment := s.scorer.Sentiment(event.MessageText)
	energy := s.scorer.Energy(event.MessageText)
	influence := s.influence.UserInfluence(event.CommunityID, event.UserID)

	moodDelta := sentiment * influence * moodDeltaFactor
	state.SetMoodValue(state.MoodValue()*(1-state.Contagion().DecayRate) + moodDelta)

	topics := event.Topics
	if len(topics) == 0 {
		topics = s.scorer.Topics(event.MessageText)
	}

	snapshot := entities.MoodSnapshot{
		CommunityID:      event.CommunityID,
		Timestamp:        event.Timestamp,
		MoodState:        state.MoodState(),
		Intensity:        energy,
		DominantEmotions: dominantEmotions(sentiment, energy),
		ActiveUsers:      len(state.Contagion().InfluenceHistory) + 1,
		AvgSentiment:     sentiment,
		Topics:           topics,
		InfluencerIDs:    []string{event.UserID},
	}
	state.AppendSnapshot(snapshot)

	state.Contagion().RecordInfluence(event.UserID, entities.InfluenceSample{
		Timestamp: event.Timestamp,
		Sentiment: sentiment,
		MoodDelta: moodDelta,
	})

	return snapshot, nil
}

// SimulateSpread runs a bounded breadth-first contagion over the social
// graph. The fixed wave cap guarantees termination regardless of graph size,
// density or cycles.
func (s *InfluenceSpreadSimulator) SimulateSpread(model *entities.ContagionModel, sourceUserID string, graph entities.SocialGraph) (*entities.SpreadResult, error) {
	if sourceUserID == "" {
		return nil, pkgerrors.NewValidationError("sourceUserId cannot be empty")
	}

	affected := map[string]float64{sourceUserID: 1.0}
	frontier := map[string]float64{sourceUserID: 1.0}
	waves := make([]entities.SpreadWave, 0, s.cfg.MaxSpreadWaves)

	for wave := 1; wave <= s.cfg.MaxSpreadWaves; wave++ {
		newly := map[string]float64{}

		for userID, influence := range frontier {
			if influence < s.cfg.MinSpreaderInfluence {
				continue
			}
			for _, neighbor := range graph[userID] {
				if _, hit := affected[neighbor.UserID]; hit {
					continue
				}
				if _, hit := newly[neighbor.UserID]; hit {
					continue
				}
				transmitted := influence * neighbor.Weight * model.TransmissionRate
				if transmitted > s.cfg.MinTransmission {
					newly[neighbor.UserID] = transmitted
				}
			}
		}

		if len(newly) == 0 {
			break
		}
		for userID, influence := range newly {
			affected[userID] = influence
		}
		waves = append(waves, entities.SpreadWave{Wave: wave, Affected: newly})
		frontier = newly
	}

	return &entities.SpreadResult{
		CommunityID:            model.CommunityID,
		SourceUserID:           sourceUserID,
		TotalAffected:          len(affected),
		Waves:                  waves,
		EstimatedDurationHours: len(waves) * 2,
	}, nil
}

// dominantEmotions derives a coarse emotion mix from the lexical scores
func dominantEmotions(sentiment, energy float64) map[string]float64 {
	emotions := map[string]float64{}
	switch {
	case sentiment > 0.3 && energy > 0.5:
		emotions["excitement"] = clamp(sentiment*energy, 0, 1)
		emotions["joy"] = clamp(sentiment, 0, 1)
	case sentiment > 0.3:
		emotions["contentment"] = clamp(sentiment, 0, 1)
	case sentiment < -0.3 && energy > 0.5:
		emotions["frustration"] = clamp(-sentiment*energy, 0, 1)
	case sentiment < -0.3:
		emotions["sadness"] = clamp(-sentiment, 0, 1)
	default:
		emotions["calm"] = 1 - clamp(energy, 0, 1)
	}
	return emotions
}
