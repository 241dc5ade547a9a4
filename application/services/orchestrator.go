package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sage-backend/application/ports"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	"sage-backend/domain/events"
	"sage-backend/domain/services"
	"sage-backend/pkg/cache"
	apperrors "sage-backend/pkg/errors"
	"sage-backend/pkg/extensions"
	"sage-backend/pkg/observability"
)

// Pipeline stage names, used for error attribution and metrics labels
const (
	StageContagion  = "contagion"
	StageWellness   = "wellness"
	StageMemory     = "memory"
	StagePrediction = "prediction"
)

// topPostingSlots bounds how many ranked posting-time slots an event result
// carries
const topPostingSlots = 3

// ProcessResult reports what one event produced. StageErrors maps a failed
// stage to its error message; a failed stage never blocks the others.
type ProcessResult struct {
	CommunityID  string                        `json:"communityId"`
	Snapshot     *entities.MoodSnapshot        `json:"snapshot,omitempty"`
	FragmentID   string                        `json:"fragmentId,omitempty"`
	Alert        *entities.AlertKind           `json:"alert,omitempty"`
	Intervention *entities.InterventionPlan    `json:"intervention,omitempty"`
	Predictions  []*entities.SocialPrediction  `json:"predictions,omitempty"`
	PostingTimes []entities.PostingTimeSlot    `json:"postingTimes,omitempty"`
	StageErrors  map[string]string             `json:"stageErrors,omitempty"`
}

// IntelligenceOrchestrator coordinates the per-event pipeline: contagion
// tracking, wellness monitoring, memory formation and prediction, in that
// order, all under one community's lock. Persistence and alert fan-out happen
// after the lock is released so storage latency never serializes communities.
type IntelligenceOrchestrator struct {
	registry  *CommunityRegistry
	scorer    services.MessageScorer
	simulator *services.InfluenceSpreadSimulator
	monitor   *services.WellnessMonitor
	memory    *services.FragmentMemoryGraph
	predictor *services.SocialPredictor
	analyzer  *services.PatternAnalyzer
	advisor   *services.AdviceAdvisor

	sink     ports.RecordSink
	alerts   ports.AlertPublisher
	hooks    *extensions.HookManager
	insights *cache.TTLCache
	metrics  *observability.Collector
	logger   *zap.Logger
}

// OrchestratorDeps bundles the orchestrator's collaborators for construction
type OrchestratorDeps struct {
	Registry      *CommunityRegistry
	Scorer        services.MessageScorer
	Simulator     *services.InfluenceSpreadSimulator
	Monitor       *services.WellnessMonitor
	Memory        *services.FragmentMemoryGraph
	Predictor     *services.SocialPredictor
	Analyzer      *services.PatternAnalyzer
	Advisor       *services.AdviceAdvisor
	Sink          ports.RecordSink
	Alerts        ports.AlertPublisher
	Hooks         *extensions.HookManager
	InsightsCache *cache.TTLCache
	Metrics       *observability.Collector
	Logger        *zap.Logger
}

// NewIntelligenceOrchestrator creates the orchestrator
func NewIntelligenceOrchestrator(deps OrchestratorDeps) *IntelligenceOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntelligenceOrchestrator{
		registry:  deps.Registry,
		scorer:    deps.Scorer,
		simulator: deps.Simulator,
		monitor:   deps.Monitor,
		memory:    deps.Memory,
		predictor: deps.Predictor,
		analyzer:  deps.Analyzer,
		advisor:   deps.Advisor,
		sink:      deps.Sink,
		alerts:    deps.Alerts,
		hooks:     deps.Hooks,
		insights:  deps.InsightsCache,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// ProcessEvent runs one event through the full pipeline. Only event
// validation fails the call; stage failures are isolated, recorded in the
// result, and leave the remaining stages running.
func (o *IntelligenceOrchestrator) ProcessEvent(ctx context.Context, event *entities.CommunityEvent) (*ProcessResult, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.EventsProcessed.WithLabelValues(string(event.Kind)).Inc()
	}

	result := &ProcessResult{
		CommunityID: event.CommunityID,
		StageErrors: make(map[string]string),
	}
	var pending []ports.Record

	err := o.registry.WithCommunity(event.CommunityID, func(state *aggregates.CommunityState) error {
		o.runStage(StageContagion, result, func() error {
			return o.trackContagion(state, event, result, &pending)
		})
		o.runStage(StageWellness, result, func() error {
			return o.observeWellness(state, event, result, &pending)
		})
		o.runStage(StageMemory, result, func() error {
			return o.formMemory(state, event, result, &pending)
		})
		o.runStage(StagePrediction, result, func() error {
			return o.predict(state, event, result, &pending)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Persistence and fan-out happen strictly after lock release
	if o.sink != nil && len(pending) > 0 {
		o.sink.Enqueue(pending...)
	}
	o.publishAlerts(ctx, result)
	o.fireHooks(ctx, event, result)

	if len(result.StageErrors) == 0 {
		result.StageErrors = nil
	}
	return result, nil
}

// runStage executes one pipeline stage, converting panics to errors and
// recording failures without propagating them.
func (o *IntelligenceOrchestrator) runStage(name string, result *ProcessResult, fn func() error) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("stage panic: %v", r)
			}
		}()
		return fn()
	}()

	if o.metrics != nil {
		o.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		result.StageErrors[name] = err.Error()
		if o.metrics != nil {
			o.metrics.StageErrors.WithLabelValues(name).Inc()
		}
		o.logger.Warn("pipeline stage failed",
			zap.String("stage", name),
			zap.String("communityID", result.CommunityID),
			zap.Error(err),
		)
	}
}

func (o *IntelligenceOrchestrator) trackContagion(state *aggregates.CommunityState, event *entities.CommunityEvent, result *ProcessResult, pending *[]ports.Record) error {
	if !event.HasMessage() {
		return nil
	}

	snapshot, err := o.simulator.TrackEvent(state, event)
	if err != nil {
		return err
	}
	result.Snapshot = &snapshot

	state.RecordActivity(entities.ActivityDataPoint{
		Timestamp:       event.Timestamp,
		ActivityScore:   snapshot.Intensity,
		Topics:          snapshot.Topics,
		EngagementScore: event.Significance,
	})

	record, err := encodeRecord(ports.TableMoodSnapshots,
		fmt.Sprintf("%s/%d", event.CommunityID, event.Timestamp.UnixNano()),
		event.CommunityID, snapshot)
	if err != nil {
		return err
	}
	*pending = append(*pending, record)
	return nil
}

func (o *IntelligenceOrchestrator) observeWellness(state *aggregates.CommunityState, event *entities.CommunityEvent, result *ProcessResult, pending *[]ports.Record) error {
	if !event.HasMessage() {
		// Non-message events still count as contact for isolation tracking
		if len(event.Participants) > 0 {
			state.Profile(event.UserID).MarkInteraction(event.Timestamp)
		}
		return nil
	}

	sentiment := o.scorer.Sentiment(event.MessageText)
	alert := o.monitor.Observe(state, event, sentiment)
	if alert != nil {
		result.Alert = alert
		if o.metrics != nil {
			o.metrics.AlertsRaised.WithLabelValues(string(*alert)).Inc()
		}

		plan, err := o.monitor.SuggestIntervention(state, event.UserID, *alert)
		if err != nil {
			// An active cooldown is expected backpressure, not a failure
			if apperrors.IsCooldownActive(err) {
				o.logger.Debug("intervention suppressed by cooldown",
					zap.String("communityID", event.CommunityID),
					zap.String("userID", event.UserID),
				)
				return nil
			}
			return err
		}
		result.Intervention = plan
	}

	record, err := encodeRecord(ports.TableWellnessProfiles,
		fmt.Sprintf("%s/%s", event.CommunityID, event.UserID),
		event.CommunityID, state.Profile(event.UserID))
	if err != nil {
		return err
	}
	*pending = append(*pending, record)
	return nil
}

func (o *IntelligenceOrchestrator) formMemory(state *aggregates.CommunityState, event *entities.CommunityEvent, result *ProcessResult, pending *[]ports.Record) error {
	if event.Significance <= state.Config().SignificanceThreshold {
		return nil
	}

	content := map[string]interface{}{
		"kind":      string(event.Kind),
		"timestamp": event.Timestamp.UTC().Format(time.RFC3339),
	}
	if event.MessageText != "" {
		content["text"] = event.MessageText
	}

	emotionalWeight := 0.0
	tags := event.Topics
	if event.HasMessage() {
		emotionalWeight = o.scorer.Sentiment(event.MessageText)
		if len(tags) == 0 {
			tags = o.scorer.Topics(event.MessageText)
		}
	}

	fragment, err := entities.NewMemoryFragment(
		event.CommunityID,
		fragmentKindFor(event),
		content,
		emotionalWeight,
		event.Participants,
		tags,
	)
	if err != nil {
		return err
	}

	id, err := o.memory.Store(state, fragment)
	if err != nil {
		return err
	}
	result.FragmentID = id
	if o.metrics != nil {
		o.metrics.FragmentsStored.Inc()
	}

	record, err := encodeRecord(ports.TableMemoryFragments,
		fmt.Sprintf("%s/%s", event.CommunityID, id),
		event.CommunityID, fragmentSnapshot(fragment))
	if err != nil {
		return err
	}
	*pending = append(*pending, record)
	return nil
}

func (o *IntelligenceOrchestrator) predict(state *aggregates.CommunityState, event *entities.CommunityEvent, result *ProcessResult, pending *[]ports.Record) error {
	now := event.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	patterns := o.predictor.AnalyzePatterns(state.Activity())

	var predictions []*entities.SocialPrediction
	if p := o.predictor.PredictMoodShift(state, now); p != nil {
		predictions = append(predictions, p)
	}
	if p := o.predictor.PredictTopicTrend(state.CommunityID(), patterns, now); p != nil {
		predictions = append(predictions, p)
	}

	// Every processed event also refreshes the posting-time ranking; only the
	// top slots travel with the result, the full ranking stays on demand
	if slots := o.predictor.PredictOptimalPostingTimes(patterns, now); len(slots) > 0 {
		if len(slots) > topPostingSlots {
			slots = slots[:topPostingSlots]
		}
		result.PostingTimes = slots
	}

	for _, p := range predictions {
		if o.metrics != nil {
			o.metrics.PredictionsEmitted.WithLabelValues(string(p.Kind)).Inc()
		}
		record, err := encodeRecord(ports.TablePredictions,
			fmt.Sprintf("%s/%s", p.CommunityID, p.ID),
			p.CommunityID, p)
		if err != nil {
			return err
		}
		*pending = append(*pending, record)
	}

	result.Predictions = predictions
	return nil
}

// publishAlerts fans this event's alerts out to the bus. Publish failures are
// logged, never surfaced: alerting is advisory, not part of the pipeline.
func (o *IntelligenceOrchestrator) publishAlerts(ctx context.Context, result *ProcessResult) {
	if o.alerts == nil || result.Intervention == nil {
		return
	}
	if err := o.alerts.PublishAlert(ctx, "wellness."+string(result.Intervention.AlertKind), result.Intervention); err != nil {
		o.logger.Error("failed to publish wellness alert",
			zap.String("communityID", result.CommunityID),
			zap.Error(err),
		)
	}
}

// fireHooks publishes the event's conclusions as domain events to any
// registered observers. Hooks run asynchronously off the request path.
func (o *IntelligenceOrchestrator) fireHooks(ctx context.Context, event *entities.CommunityEvent, result *ProcessResult) {
	if o.hooks == nil {
		return
	}
	now := event.Timestamp

	o.hooks.ExecuteAsync(ctx, extensions.HookEventProcessed, result)
	if result.Snapshot != nil {
		o.hooks.ExecuteAsync(ctx, extensions.HookMoodShifted,
			events.NewMoodShifted(event.CommunityID, *result.Snapshot, now))
	}
	if result.FragmentID != "" {
		o.hooks.ExecuteAsync(ctx, extensions.HookMemoryFormed,
			events.NewMemoryFormed(event.CommunityID, result.FragmentID, now))
	}
	if result.Alert != nil {
		o.hooks.ExecuteAsync(ctx, extensions.HookAlertRaised,
			events.NewWellnessAlertRaised(event.CommunityID, event.UserID, *result.Alert, now))
	}
	for _, p := range result.Predictions {
		o.hooks.ExecuteAsync(ctx, extensions.HookPredictionEmitted,
			events.NewPredictionEmitted(event.CommunityID, p, now))
	}
}

// Recall returns the fragments most relevant to the given context. Runs under
// the community lock because recall updates fragment access statistics.
func (o *IntelligenceOrchestrator) Recall(ctx context.Context, communityID string, recallCtx services.RecallContext, limit int) ([]services.ScoredFragment, error) {
	var scored []services.ScoredFragment
	err := o.registry.WithCommunity(communityID, func(state *aggregates.CommunityState) error {
		var err error
		scored, err = o.memory.Recall(state, recallCtx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return scored, nil
}

// SimulateSpread runs a what-if contagion simulation from one user over the
// supplied social graph.
func (o *IntelligenceOrchestrator) SimulateSpread(ctx context.Context, communityID, sourceUserID string, graph entities.SocialGraph) (*entities.SpreadResult, error) {
	var spread *entities.SpreadResult
	err := o.registry.WithCommunity(communityID, func(state *aggregates.CommunityState) error {
		var err error
		spread, err = o.simulator.SimulateSpread(state.Contagion(), sourceUserID, graph)
		return err
	})
	if err != nil {
		return nil, err
	}
	return spread, nil
}

// PredictPostingTimes ranks the best hours to post over the configured horizon
func (o *IntelligenceOrchestrator) PredictPostingTimes(ctx context.Context, communityID string, now time.Time) ([]entities.PostingTimeSlot, error) {
	var slots []entities.PostingTimeSlot
	err := o.registry.WithCommunity(communityID, func(state *aggregates.CommunityState) error {
		patterns := o.predictor.AnalyzePatterns(state.Activity())
		slots = o.predictor.PredictOptimalPostingTimes(patterns, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, apperrors.NewInsufficientDataError("activity history for posting time prediction")
	}
	return slots, nil
}

// fragmentKindFor maps an event to the fragment kind it memorializes
func fragmentKindFor(event *entities.CommunityEvent) entities.FragmentKind {
	switch event.Kind {
	case entities.EventJoin:
		return entities.FragmentMilestone
	case entities.EventReaction:
		return entities.FragmentCelebration
	default:
		return entities.FragmentConversation
	}
}

// fragmentSnapshot flattens a fragment into its persisted shape
func fragmentSnapshot(f *entities.MemoryFragment) map[string]interface{} {
	return map[string]interface{}{
		"id":              f.ID().String(),
		"communityId":     f.CommunityID(),
		"kind":            string(f.Kind()),
		"content":         f.Content(),
		"emotionalWeight": f.EmotionalWeight(),
		"importance":      f.Importance(),
		"participants":    f.Participants(),
		"tags":            f.Tags(),
		"connections":     f.Connections(),
		"createdAt":       f.CreatedAt().UTC().Format(time.RFC3339),
		"accessCount":     f.AccessCount(),
	}
}

// encodeRecord wraps a payload in the versioned envelope as one sink record
func encodeRecord(table, key, communityID string, payload interface{}) (ports.Record, error) {
	encoded, err := ports.EncodePayload(table, payload)
	if err != nil {
		return ports.Record{}, err
	}
	return ports.Record{
		Table:       table,
		Key:         key,
		CommunityID: communityID,
		Payload:     encoded,
		UpdatedAt:   time.Now(),
	}, nil
}
