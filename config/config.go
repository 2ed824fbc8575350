package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultPath = "./config/config.yaml"

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	PolicyLenient = "lenient"
	PolicyStrict  = "strict"
)

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p Postgres) ConnStr() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s", p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

type Nats struct {
	Enabled                bool   `mapstructure:"enabled"`
	Host                   string `mapstructure:"host"`
	Port                   string `mapstructure:"port"`
	Stream                 string `mapstructure:"stream"`
	RecommendationsSubject string `mapstructure:"recommendationsSubject"`
}

func (n Nats) ConnStr() string {
	return fmt.Sprintf("nats://%s:%s", n.Host, n.Port)
}

type Maps struct {
	APIKey       string        `mapstructure:"apiKey"`
	BaseURL      string        `mapstructure:"baseURL"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxPriceTier int           `mapstructure:"maxPriceTier"`
}

type Generator struct {
	Provider    string        `mapstructure:"provider"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ParsePolicy string        `mapstructure:"parsePolicy"`
}

type Gemini struct {
	APIKey  string `mapstructure:"apiKey"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"baseURL"`
}

type Ollama struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Model string `mapstructure:"model"`
}

func (o *Ollama) Address() string {
	return fmt.Sprintf("http://%s:%s", o.Host, o.Port)
}

type Server struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	RateLimit      float64       `mapstructure:"rateLimit"`
	RateLimitBurst int           `mapstructure:"rateLimitBurst"`
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Recorder struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queueSize"`
}

type Config struct {
	Server    Server    `mapstructure:"server"`
	Maps      Maps      `mapstructure:"maps"`
	Generator Generator `mapstructure:"generator"`
	Gemini    Gemini    `mapstructure:"gemini"`
	Ollama    Ollama    `mapstructure:"ollama"`
	Postgres  Postgres  `mapstructure:"postgres"`
	Nats      Nats      `mapstructure:"nats"`
	Recorder  Recorder  `mapstructure:"recorder"`
}

// Validate reports the settings without which no request can be served.
func (c *Config) Validate() error {
	if c.Maps.APIKey == "" {
		return apperrors.New(apperrors.CodeConfig, "maps.apiKey (MAPS_APIKEY) is not set")
	}

	switch c.Generator.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return apperrors.New(apperrors.CodeConfig, "gemini.apiKey (GEMINI_APIKEY) is not set")
		}
	case ProviderOllama:
		if c.Ollama.Host == "" || c.Ollama.Model == "" {
			return apperrors.New(apperrors.CodeConfig, "ollama.host and ollama.model are required")
		}
	default:
		return apperrors.NewWithContext(apperrors.CodeConfig, "unknown generator provider",
			map[string]any{"provider": c.Generator.Provider})
	}

	if c.Generator.ParsePolicy != PolicyLenient && c.Generator.ParsePolicy != PolicyStrict {
		return apperrors.NewWithContext(apperrors.CodeConfig, "unknown parse policy",
			map[string]any{"parsePolicy": c.Generator.ParsePolicy})
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second)
	v.SetDefault("server.rateLimit", 10)
	v.SetDefault("server.rateLimitBurst", 20)

	v.SetDefault("maps.apiKey", "")
	v.SetDefault("maps.baseURL", "https://maps.googleapis.com")
	v.SetDefault("maps.timeout", 10*time.Second)
	v.SetDefault("maps.maxPriceTier", 1)

	v.SetDefault("generator.provider", ProviderGemini)
	v.SetDefault("generator.timeout", 30*time.Second)
	v.SetDefault("generator.parsePolicy", PolicyLenient)

	v.SetDefault("gemini.apiKey", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.baseURL", "")

	v.SetDefault("ollama.host", "localhost")
	v.SetDefault("ollama.port", "11434")
	v.SetDefault("ollama.model", "llama3.2")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.database", "food_recs")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.host", "localhost")
	v.SetDefault("nats.port", "4222")
	v.SetDefault("nats.stream", "RECOMMENDATIONS")
	v.SetDefault("nats.recommendationsSubject", "recs.served")

	v.SetDefault("recorder.workers", 2)
	v.SetDefault("recorder.queueSize", 100)
}

// Load reads the yaml file at path (a missing file is fine), then lets
// environment variables override it: maps.apiKey becomes MAPS_APIKEY.
func Load(path string) (*Config, error) {
	for _, f := range []string{".env", ".env.local"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load env file", "file", f, "error", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		slog.Warn("config file not found, using defaults and environment", "path", path)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

// Path returns CONFIG_FILE, falling back to DefaultPath.
func Path() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}

	return DefaultPath
}

// LoadConfig loads and validates the configuration, exiting the process when
// it is unusable.
func LoadConfig() *Config {
	cfg, err := Load(Path())
	if err != nil {
		log.Fatal(err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	return cfg
}
