package config

import "time"

// DomainConfig holds all configurable business rules and tunables for the
// intelligence core. Defaults match the calibrated production values.
type DomainConfig struct {
	// History bounds
	MoodHistoryCap        int
	SentimentWindowCap    int
	InfluenceHistoryCap   int
	ActivityRetention     time.Duration
	ActivityRetentionCap  int

	// Memory graph constraints
	MaxConnectionsPerFragment int
	MaxTagsPerFragment        int
	TemporalConnectionWindow  time.Duration
	RecencyHalfLife           time.Duration
	SignificanceThreshold     float64

	// Contagion model
	DefaultTransmissionRate float64
	DefaultDecayRate        float64
	DefaultUserInfluence    float64
	MaxSpreadWaves          int
	MinSpreaderInfluence    float64
	MinTransmission         float64

	// Prediction tunables
	PostingHorizonHours int
	HourlyWeight        float64
	DailyWeight         float64
	HourDecayBase       float64
	MissingBucketScore  float64
	MoodShiftWindow     time.Duration
	MoodShiftMinPoints  int
	MoodTrendThreshold  float64
	VolatilityThreshold float64

	// Wellness thresholds
	StressAlertThreshold    float64
	IsolationAlertThreshold float64
	IsolationAfter          time.Duration
	StressRatchetStep       float64
	IsolationRatchetStep    float64

	// State registry
	CommunityIdleTTL   time.Duration
	RegistryShardCount int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// History bounds
		MoodHistoryCap:       100,
		SentimentWindowCap:   50,
		InfluenceHistoryCap:  20,
		ActivityRetention:    30 * 24 * time.Hour,
		ActivityRetentionCap: 5000,

		// Memory graph constraints
		MaxConnectionsPerFragment: 5,
		MaxTagsPerFragment:        10,
		TemporalConnectionWindow:  24 * time.Hour,
		RecencyHalfLife:           30 * 24 * time.Hour,
		SignificanceThreshold:     0.5,

		// Contagion model
		DefaultTransmissionRate: 0.3,
		DefaultDecayRate:        0.1,
		DefaultUserInfluence:    0.5,
		MaxSpreadWaves:          5,
		MinSpreaderInfluence:    0.1,
		MinTransmission:         0.05,

		// Prediction tunables
		PostingHorizonHours: 48,
		HourlyWeight:        0.7,
		DailyWeight:         0.3,
		HourDecayBase:       0.98,
		MissingBucketScore:  0.3,
		MoodShiftWindow:     24 * time.Hour,
		MoodShiftMinPoints:  5,
		MoodTrendThreshold:  0.3,
		VolatilityThreshold: 0.2,

		// Wellness thresholds
		StressAlertThreshold:    0.7,
		IsolationAlertThreshold: 0.6,
		IsolationAfter:          72 * time.Hour,
		StressRatchetStep:       0.1,
		IsolationRatchetStep:    0.1,

		// State registry
		CommunityIdleTTL:   6 * time.Hour,
		RegistryShardCount: 16,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter memory bounds for long-running fleets with many communities
	config.ActivityRetentionCap = 2000
	config.CommunityIdleTTL = 2 * time.Hour

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Looser eviction so local state survives a debugging session
	config.CommunityIdleTTL = 24 * time.Hour

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
