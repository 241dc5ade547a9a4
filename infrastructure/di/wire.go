//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	appservices "sage-backend/application/services"
	domaincfg "sage-backend/domain/config"
	"sage-backend/infrastructure/config"
	dynamostore "sage-backend/infrastructure/persistence/dynamodb"
	"sage-backend/infrastructure/persistence/writebehind"
	"sage-backend/pkg/cache"
	"sage-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	DomainConfig     *domaincfg.DomainConfig
	Logger           *zap.Logger
	Metrics          *observability.Collector
	Registry         *appservices.CommunityRegistry
	Writer           *writebehind.Writer
	InsightsCache    *cache.TTLCache
	Relay            *dynamostore.OutboxRelay
	IPLimiter        IPLimiter
	CommunityLimiter CommunityLimiter
	Orchestrator     *appservices.IntelligenceOrchestrator
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideMetrics,
	ProvideRecordStore,
	ProvideWriter,
	ProvideAlertOutbox,
	ProvideAlertPublisher,
	ProvideOutboxRelay,
	ProvideIPLimiter,
	ProvideCommunityLimiter,
	ProvideHooks,
	ProvideInsightsCache,
	ProvideRegistry,
	ProvideScorer,
	ProvideInfluenceProvider,
	ProvideSimulator,
	ProvideMonitor,
	ProvideMemoryGraph,
	ProvidePredictor,
	ProvideAnalyzer,
	ProvideAdvisor,
	ProvideOrchestrator,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
