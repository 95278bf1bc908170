package config

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database    *dbConfig
	Service     *svcConfig
	Coordinator *coordinatorConfig
	Agents      *agentsConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"sourcing"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"SOURCING_ENGINE_ADDRESS" default:":3443"`
	MetricsAddress string `envconfig:"SOURCING_ENGINE_METRICS_ADDRESS" default:":8080"`
	BaseUrl        string `envconfig:"SOURCING_ENGINE_BASE_URL" default:"https://localhost:3443"`
	LogLevel       string `envconfig:"SOURCING_ENGINE_LOG_LEVEL" default:"info"`
	Kafka          kafkaConfig
}

type kafkaConfig struct {
	Brokers     []string            `envconfig:"SOURCING_ENGINE_KAFKA_BROKERS" default:""`
	GroupPrefix string              `envconfig:"SOURCING_ENGINE_KAFKA_GROUP_PREFIX" default:"sourcing-engine"`
	Version     sarama.KafkaVersion `envconfig:"SOURCING_ENGINE_KAFKA_VERSION" default:""`
	ClientID    string              `envconfig:"SOURCING_ENGINE_KAFKA_CLIENT_ID" default:"sourcing-engine"`

	SaramaConfig *sarama.Config
}

type coordinatorConfig struct {
	PromotionThreshold  int           `envconfig:"SOURCING_ENGINE_PROMOTION_THRESHOLD" default:"70"`
	QuiescenceWindow    time.Duration `envconfig:"SOURCING_ENGINE_QUIESCENCE_WINDOW" default:"5m"`
	SettleCheckInterval time.Duration `envconfig:"SOURCING_ENGINE_SETTLE_CHECK_INTERVAL" default:"30s"`
}

type agentsConfig struct {
	PingInterval     time.Duration `envconfig:"SOURCING_ENGINE_AGENT_PING_INTERVAL" default:"30s"`
	UnreachableAfter int           `envconfig:"SOURCING_ENGINE_AGENT_UNREACHABLE_AFTER" default:"3"`
	RetryAttempts    int           `envconfig:"SOURCING_ENGINE_AGENT_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff     time.Duration `envconfig:"SOURCING_ENGINE_AGENT_RETRY_BACKOFF" default:"2s"`
	PoolSize         int           `envconfig:"SOURCING_ENGINE_AGENT_POOL_SIZE" default:"4"`
	QuestionCount    int           `envconfig:"SOURCING_ENGINE_INTERVIEW_QUESTIONS" default:"5"`
	AnswerTimeout    time.Duration `envconfig:"SOURCING_ENGINE_INTERVIEW_ANSWER_TIMEOUT" default:"2m"`
	GeminiApiKey     string        `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel      string        `envconfig:"SOURCING_ENGINE_GEMINI_MODEL" default:"gemini-1.5-flash"`
	SimulationSeed   int64         `envconfig:"SOURCING_ENGINE_SIMULATION_SEED" default:"1"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration suitable for tests and standalone runs:
// sqlite in-memory database, in-process bus and short timing windows.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			LogLevel:       "info",
		},
		Coordinator: &coordinatorConfig{
			PromotionThreshold:  70,
			QuiescenceWindow:    100 * time.Millisecond,
			SettleCheckInterval: 50 * time.Millisecond,
		},
		Agents: &agentsConfig{
			PingInterval:     50 * time.Millisecond,
			UnreachableAfter: 3,
			RetryAttempts:    3,
			RetryBackoff:     time.Millisecond,
			PoolSize:         4,
			QuestionCount:    5,
			AnswerTimeout:    time.Second,
			GeminiModel:      "gemini-1.5-flash",
			SimulationSeed:   1,
		},
	}
}
