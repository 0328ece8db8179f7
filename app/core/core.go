package core

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/studyhall-ai/studyhall/app/core/srv"
	"github.com/studyhall-ai/studyhall/app/store"
	"github.com/studyhall-ai/studyhall/app/store/sqlstore"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores     func() store.Provider
	httpClient *http.Client
	httpEngine *gin.Engine

	metrics *Metrics

	sessionLocks  *SingleLock
	documentLocks *SingleLock
	embedSem      Semaphore

	redisClient redis.UniversalClient
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28,   //days
				Compress:   true, // disabled by default
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	utils.SetupIDWorker(1)

	core := &Core{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: time.Second * 3},
		metrics:       NewMetrics("studyhall", "core"),
		httpEngine:    gin.New(),
		sessionLocks:  NewSingleLock(),
		documentLocks: NewSingleLock(),
	}

	setupSqlStore(core)
	setupSemaphore(core)

	core.srv = srv.SetupSrvs(srv.ApplyAI(cfg.AI))

	return core
}

// SetupTestCore wires a Core around injected stores and services,
// skipping postgres and redis. Used by logic tests.
func SetupTestCore(cfg CoreConfig, provider store.Provider, applies ...srv.ApplyFunc) *Core {
	cfg.RAG.applyDefaults()
	utils.SetupIDWorker(1)

	core := &Core{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: time.Second * 3},
		metrics:       NewMetrics("studyhall", "core"),
		httpEngine:    gin.New(),
		sessionLocks:  NewSingleLock(),
		documentLocks: NewSingleLock(),
		embedSem:      newLocalSemaphore(cfg.RAG.EmbeddingMaxConcurrent),
	}
	core.stores = func() store.Provider { return provider }
	core.srv = srv.SetupSrvs(applies...)

	return core
}

func setupSqlStore(core *Core) {
	provider := sqlstore.MustSetup(core.cfg.Postgres)
	if err := provider().Install(); err != nil {
		panic(err)
	}
	core.stores = func() store.Provider { return provider() }
	fmt.Println("setupSqlStore done")
}

func setupSemaphore(core *Core) {
	if core.cfg.Redis.Addr == "" {
		core.embedSem = newLocalSemaphore(core.cfg.RAG.EmbeddingMaxConcurrent)
		return
	}

	core.redisClient = redis.NewClient(&redis.Options{
		Addr:         core.cfg.Redis.Addr,
		Password:     core.cfg.Redis.Password,
		DB:           core.cfg.Redis.DB,
		PoolSize:     core.cfg.Redis.PoolSize,
		MinIdleConns: core.cfg.Redis.MinIdleConns,
		MaxRetries:   core.cfg.Redis.MaxRetries,
	})

	key := core.cfg.Redis.KeyPrefix + "semaphore:embedding"
	core.embedSem = NewDistributedSemaphore(core.redisClient, key, core.cfg.RAG.EmbeddingMaxConcurrent, time.Minute*5)
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() store.Provider {
	return s.stores()
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

// SessionLocks serializes turns per chat session.
func (s *Core) SessionLocks() *SingleLock {
	return s.sessionLocks
}

// DocumentLocks serializes writers per document.
func (s *Core) DocumentLocks() *SingleLock {
	return s.documentLocks
}

// EmbeddingSemaphore bounds concurrent embedding work.
func (s *Core) EmbeddingSemaphore() Semaphore {
	return s.embedSem
}
