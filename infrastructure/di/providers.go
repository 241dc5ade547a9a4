package di

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sage-backend/application/ports"
	appservices "sage-backend/application/services"
	domaincfg "sage-backend/domain/config"
	"sage-backend/domain/events"
	"sage-backend/domain/services"
	"sage-backend/infrastructure/config"
	"sage-backend/infrastructure/messaging/eventbridge"
	dynamostore "sage-backend/infrastructure/persistence/dynamodb"
	memorystore "sage-backend/infrastructure/persistence/memory"
	"sage-backend/infrastructure/persistence/writebehind"
	"sage-backend/pkg/cache"
	"sage-backend/pkg/extensions"
	"sage-backend/pkg/observability"
	"sage-backend/pkg/ratelimit"
)

// IPLimiter and CommunityLimiter are distinct types for wire so both limits
// can coexist in one container.
type IPLimiter ratelimit.Limiter

// CommunityLimiter throttles event ingestion per community
type CommunityLimiter ratelimit.Limiter

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideDomainConfig creates the domain tunables for the environment
func ProvideDomainConfig(cfg *config.Config) *domaincfg.DomainConfig {
	return domaincfg.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("sage")
}

// ProvideRecordStore selects the record store backend. Development runs on
// the in-memory store so no AWS credentials are needed locally.
func ProvideRecordStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.RecordStore {
	if cfg.IsDevelopment() {
		logger.Info("using in-memory record store")
		return memorystore.NewRecordStore()
	}
	return dynamostore.NewRecordStore(client, cfg.DynamoDBTable, logger)
}

// ProvideWriter creates the write-behind persistence writer
func ProvideWriter(store ports.RecordStore, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *writebehind.Writer {
	return writebehind.NewWriter(store, writebehind.Options{
		QueueSize:  cfg.WriteQueueSize,
		RetryLimit: cfg.WriteRetryLimit,
	}, logger, metrics)
}

// ProvideAlertOutbox creates the transactional alert outbox
func ProvideAlertOutbox(cfg *config.Config, client *awsdynamodb.Client) *dynamostore.AlertOutbox {
	return dynamostore.NewAlertOutbox(client, cfg.DynamoDBTable)
}

// ProvideAlertPublisher selects the alert write path. Production stages
// alerts in the outbox; the relay owns actual bus delivery.
func ProvideAlertPublisher(cfg *config.Config, outbox *dynamostore.AlertOutbox, logger *zap.Logger) ports.AlertPublisher {
	if cfg.IsDevelopment() {
		return eventbridge.NewNopPublisher(logger)
	}
	return dynamostore.NewOutboxPublisher(outbox)
}

// ProvideOutboxRelay creates the background relay draining the outbox to
// EventBridge. Development returns nil: alerts are logged, never staged.
func ProvideOutboxRelay(
	cfg *config.Config,
	outbox *dynamostore.AlertOutbox,
	dynamoClient *awsdynamodb.Client,
	busClient *awseventbridge.Client,
	logger *zap.Logger,
) *dynamostore.OutboxRelay {
	if cfg.IsDevelopment() {
		return nil
	}

	hostname, _ := os.Hostname()
	ownerID := hostname + "-" + uuid.NewString()

	bus := eventbridge.NewPublisher(busClient, cfg.EventBusName, logger)
	lock := dynamostore.NewDistributedLock(dynamoClient, cfg.DynamoDBTable, logger)
	return dynamostore.NewOutboxRelay(outbox, bus, lock, ownerID, logger)
}

// ProvideIPLimiter creates the per-client request limiter
func ProvideIPLimiter(cfg *config.Config, client *awsdynamodb.Client) IPLimiter {
	if cfg.IPRateLimit <= 0 {
		return nil
	}
	if cfg.IsDevelopment() {
		return ratelimit.NewSlidingWindowLimiter(cfg.IPRateLimit, time.Minute)
	}
	return ratelimit.NewDynamoLimiter(client, cfg.DynamoDBTable, "ip", cfg.IPRateLimit, time.Minute)
}

// ProvideCommunityLimiter creates the per-community ingestion limiter
func ProvideCommunityLimiter(cfg *config.Config, client *awsdynamodb.Client) CommunityLimiter {
	if cfg.CommunityRateLimit <= 0 {
		return nil
	}
	if cfg.IsDevelopment() {
		return ratelimit.NewTokenBucketLimiter(cfg.CommunityRateLimit, time.Minute/time.Duration(cfg.CommunityRateLimit))
	}
	return ratelimit.NewDynamoLimiter(client, cfg.DynamoDBTable, "community", cfg.CommunityRateLimit, time.Minute)
}

// ProvideHooks creates the extension hook manager with the built-in
// observability hooks registered.
func ProvideHooks(logger *zap.Logger) *extensions.HookManager {
	hooks := extensions.NewHookManager()

	hooks.Register(extensions.HookAlertRaised, func(ctx context.Context, data interface{}) error {
		if alert, ok := data.(events.WellnessAlertRaised); ok {
			logger.Info("wellness alert raised",
				zap.String("communityId", alert.CommunityID()),
				zap.String("kind", string(alert.Kind)),
			)
		}
		return nil
	})

	hooks.Register(extensions.HookMemoryFormed, func(ctx context.Context, data interface{}) error {
		if formed, ok := data.(events.MemoryFormed); ok {
			logger.Debug("memory fragment formed",
				zap.String("communityId", formed.CommunityID()),
				zap.String("fragmentId", formed.FragmentID),
			)
		}
		return nil
	})

	return hooks
}

// ProvideInsightsCache creates the short-lived insights response cache
func ProvideInsightsCache() *cache.TTLCache {
	return cache.NewTTLCache()
}

// ProvideRegistry creates the per-community state registry
func ProvideRegistry(domainCfg *domaincfg.DomainConfig, logger *zap.Logger) *appservices.CommunityRegistry {
	return appservices.NewCommunityRegistry(domainCfg, logger)
}

// ProvideScorer creates the lexical message scorer
func ProvideScorer() services.MessageScorer {
	return services.NewLexiconScorer()
}

// ProvideInfluenceProvider creates the default constant influence provider
func ProvideInfluenceProvider(domainCfg *domaincfg.DomainConfig) services.InfluenceProvider {
	return services.ConstantInfluence{Weight: domainCfg.DefaultUserInfluence}
}

// ProvideSimulator creates the contagion simulator
func ProvideSimulator(domainCfg *domaincfg.DomainConfig, scorer services.MessageScorer, influence services.InfluenceProvider) *services.InfluenceSpreadSimulator {
	return services.NewInfluenceSpreadSimulator(domainCfg, scorer, influence)
}

// ProvideMonitor creates the wellness monitor
func ProvideMonitor(domainCfg *domaincfg.DomainConfig) *services.WellnessMonitor {
	return services.NewWellnessMonitor(domainCfg)
}

// ProvideMemoryGraph creates the fragment memory graph service
func ProvideMemoryGraph(domainCfg *domaincfg.DomainConfig) *services.FragmentMemoryGraph {
	return services.NewFragmentMemoryGraph(domainCfg)
}

// ProvidePredictor creates the social predictor
func ProvidePredictor(domainCfg *domaincfg.DomainConfig) *services.SocialPredictor {
	return services.NewSocialPredictor(domainCfg)
}

// ProvideAnalyzer creates the pattern analyzer
func ProvideAnalyzer() *services.PatternAnalyzer {
	return services.NewPatternAnalyzer()
}

// ProvideAdvisor creates the guidance advisor
func ProvideAdvisor() *services.AdviceAdvisor {
	return services.NewAdviceAdvisor()
}

// ProvideOrchestrator wires the intelligence pipeline together
func ProvideOrchestrator(
	registry *appservices.CommunityRegistry,
	scorer services.MessageScorer,
	simulator *services.InfluenceSpreadSimulator,
	monitor *services.WellnessMonitor,
	memory *services.FragmentMemoryGraph,
	predictor *services.SocialPredictor,
	analyzer *services.PatternAnalyzer,
	advisor *services.AdviceAdvisor,
	writer *writebehind.Writer,
	alerts ports.AlertPublisher,
	hooks *extensions.HookManager,
	insightsCache *cache.TTLCache,
	metrics *observability.Collector,
	logger *zap.Logger,
) *appservices.IntelligenceOrchestrator {
	return appservices.NewIntelligenceOrchestrator(appservices.OrchestratorDeps{
		Registry:      registry,
		Scorer:        scorer,
		Simulator:     simulator,
		Monitor:       monitor,
		Memory:        memory,
		Predictor:     predictor,
		Analyzer:      analyzer,
		Advisor:       advisor,
		Sink:          writer,
		Alerts:        alerts,
		Hooks:         hooks,
		InsightsCache: insightsCache,
		Metrics:       metrics,
		Logger:        logger,
	})
}

// Shutdown releases the container's long-lived resources: the registry's
// janitor first, then the write-behind queue so queued records still flush.
// The outbox relay is started and stopped by the caller that started it.
func (c *Container) Shutdown(ctx context.Context) error {
	c.Registry.Close()
	c.InsightsCache.Close()

	for _, limiter := range []ratelimit.Limiter{c.IPLimiter, c.CommunityLimiter} {
		if closer, ok := limiter.(interface{ Close() }); ok {
			closer.Close()
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.Writer.Close(drainCtx)
}
