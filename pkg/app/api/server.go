// Package api implements app.Runner for the tracker server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/pkg/app/httpserver"
	"github.com/magnetchain/bridge-tracker/pkg/bridge"
	"github.com/magnetchain/bridge-tracker/pkg/config"
	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
	"github.com/magnetchain/bridge-tracker/pkg/ledger"
	"github.com/magnetchain/bridge-tracker/pkg/pgutil"
	"github.com/magnetchain/bridge-tracker/pkg/tracker"
)

const defaultRequestTimeout = 60 * time.Second

// Server holds cfg to init the tracker server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new tracker server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run assembles the service and blocks until shutdown.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("tracker server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bridge tracker",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database))

	magnetClient, err := ethereum.NewClient(&cfg.Magnet, logger)
	if err != nil {
		return fmt.Errorf("connect magnet chain: %w", err)
	}
	defer magnetClient.Close()

	bscClient, err := ethereum.NewClient(&cfg.BSC, logger)
	if err != nil {
		return fmt.Errorf("connect bsc chain: %w", err)
	}
	defer bscClient.Close()

	ledgerStore := ledger.NewStore(db)
	cache := s.openCache(logger)
	ledgr := ledger.New(ledgerStore, cache, logger)

	reader := bridge.NewReader(bscClient,
		common.HexToAddress(cfg.Bridge.BSCBridgeContract), logger)
	s.warmParameterSnapshot(ctx, reader, logger)

	trk, err := tracker.New(&cfg.Bridge, magnetClient, bscClient, ledgr, reader, logger)
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}

	router := s.setupRouter(db, trk, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return httpserver.ServeAndWait(ctx, logger, srv, cfg.Shutdown.Timeout)
}

// openCache builds the optional redis-backed ledger cache. An empty
// addr disables it.
func (s *Server) openCache(logger *zap.Logger) *ledger.Cache {
	if s.cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	logger.Info("Ledger cache enabled", zap.String("addr", s.cfg.Redis.Addr))
	return ledger.NewCache(rdb, s.cfg.Redis.TTL, logger)
}

// warmParameterSnapshot primes the bridge parameter snapshot so the
// first submissions see live limits. Failure is tolerated; the reader
// serves stale-or-absent until the next fetch.
func (s *Server) warmParameterSnapshot(ctx context.Context, reader *bridge.Reader, logger *zap.Logger) {
	warmCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if _, err := reader.Fetch(warmCtx); err != nil {
		logger.Warn("Initial bridge parameter fetch failed", zap.Error(err))
	}
}

func (s *Server) setupRouter(db *bun.DB, trk *tracker.Tracker, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		tracker.RegisterRoutes(r, trk, logger)
	})

	return r
}
