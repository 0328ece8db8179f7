package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/studyhall-ai/studyhall/pkg/ai/openai"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	conf.RAG.applyDefaults()
	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.RAG.applyDefaults()
	return c
}

type CoreConfig struct {
	Addr     string        `toml:"addr"`
	Log      Log           `toml:"log"`
	Postgres PGConfig      `toml:"postgres"`
	Redis    RedisConfig   `toml:"redis"`
	AI       openai.Config `toml:"ai"`
	RAG      RAGConfig     `toml:"rag"`
	Prompt   Prompt        `toml:"prompt"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("STUDYHALL_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
	c.AI.FromENV()
}

// Prompt overrides the built-in prompts when set.
type Prompt struct {
	Base        string `toml:"base"`
	SessionName string `toml:"session_name"`
}

// RAGConfig holds the retrieval and generation tunables. Zero values
// fall back to defaults, see applyDefaults.
type RAGConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`

	TokenBudget int     `toml:"token_budget"`
	ChunkRatio  float64 `toml:"chunk_ratio"`

	TopK     uint64  `toml:"top_k"`
	MinScore float64 `toml:"min_score"`

	HistoryLimit uint64 `toml:"history_limit"`

	SessionIdleTimeoutSecond int64 `toml:"session_idle_timeout_second"`

	QuizMaxRetries int `toml:"quiz_max_retries"`

	IngestWorkers          int `toml:"ingest_workers"`
	IngestMaxRetryTimes    int `toml:"ingest_max_retry_times"`
	EmbeddingMaxConcurrent int `toml:"embedding_max_concurrent"`
}

func (c *RAGConfig) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = 200
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = 4000
	}
	if c.ChunkRatio <= 0 || c.ChunkRatio >= 1 {
		c.ChunkRatio = 0.6
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.MinScore <= 0 {
		c.MinScore = 0.5
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 20
	}
	if c.SessionIdleTimeoutSecond <= 0 {
		c.SessionIdleTimeoutSecond = 1800
	}
	if c.QuizMaxRetries <= 0 {
		c.QuizMaxRetries = 2
	}
	if c.IngestWorkers <= 0 {
		c.IngestWorkers = 4
	}
	if c.IngestMaxRetryTimes <= 0 {
		c.IngestMaxRetryTimes = 3
	}
	if c.EmbeddingMaxConcurrent <= 0 {
		c.EmbeddingMaxConcurrent = 10
	}
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("STUDYHALL_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	PoolSize     int `toml:"pool_size"`
	MinIdleConns int `toml:"min_idle_conns"`
	MaxRetries   int `toml:"max_retries"`

	KeyPrefix string `toml:"key_prefix"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("STUDYHALL_REDIS_ADDR")
	r.Password = os.Getenv("STUDYHALL_REDIS_PASSWORD")
	if dbStr := os.Getenv("STUDYHALL_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("STUDYHALL_LOG_LEVEL")
	l.Path = os.Getenv("STUDYHALL_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
