package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Fusion weights. Magic-looking defaults are intentional tuning knobs,
	// kept configurable rather than baked into the ranker.
	KeywordWeight  float64 `env:"RANK_KEYWORD_WEIGHT" envDefault:"0.45"`
	VectorWeight   float64 `env:"RANK_VECTOR_WEIGHT" envDefault:"0.25"`
	JournalWeight  float64 `env:"RANK_JOURNAL_WEIGHT" envDefault:"0.1"`
	UserPrefWeight float64 `env:"RANK_USER_PREF_WEIGHT" envDefault:"0.1"`
	TitleBonus     float64 `env:"RANK_TITLE_BONUS" envDefault:"0.2"`

	// Curated top-venue set for the journal weight's highest tier.
	TopVenues []string `env:"RANK_TOP_VENUES" envSeparator:"," envDefault:"经济研究,管理世界,journal of finance,journal of political economy,american economic review"`

	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"5s"`

	// Feature extraction resources.
	EmbeddingAPIKey     string        `env:"EMBEDDING_API_KEY"`
	EmbeddingModel      string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int           `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	EmbeddingRateLimit  int           `env:"EMBEDDING_RATE_LIMIT_RPS" envDefault:"1"`
	FeatureInitTimeout  time.Duration `env:"FEATURE_INIT_TIMEOUT" envDefault:"45s"`

	// Analytics.
	ClusterCount          int `env:"CLUSTER_COUNT" envDefault:"5"`
	CooccurrenceMinWeight int `env:"COOCCURRENCE_MIN_WEIGHT" envDefault:"1"`

	// Discovery.
	FeedURLs            []string      `env:"DISCOVERY_FEED_URLS" envSeparator:","`
	DiscoveryInterval   time.Duration `env:"DISCOVERY_INTERVAL" envDefault:"1h"`
	DiscoveryFetchLimit int           `env:"DISCOVERY_FETCH_LIMIT" envDefault:"100"`

	// Database pool.
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
