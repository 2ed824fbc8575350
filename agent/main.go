package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imkonsowa/food-recs/config"
	"github.com/imkonsowa/food-recs/events"
	"github.com/imkonsowa/food-recs/generator"
	"github.com/imkonsowa/food-recs/maps"
	"github.com/imkonsowa/food-recs/recommend"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type Agent struct {
	config  *config.Config
	handler *Handler
}

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := generator.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	mapsClient := maps.NewClient(cfg.Maps)

	service := recommend.NewService(mapsClient, mapsClient, gen,
		recommend.WithPolicy(recommend.Policy(cfg.Generator.ParsePolicy)),
		recommend.WithMaxPriceTier(cfg.Maps.MaxPriceTier),
	)

	var (
		nc        *events.Client
		publisher eventPublisher
	)
	if cfg.Nats.Enabled {
		nc, err = events.Connect(cfg.Nats)
		if err != nil {
			log.Fatal(err)
		}
		defer nc.Close()

		publisher = nc
		slog.Info("publishing recommendation events", "subject", cfg.Nats.RecommendationsSubject)
	}

	agent := &Agent{
		config:  cfg,
		handler: NewHandler(service, publisher, cfg.Maps.MaxPriceTier),
	}

	if err := agent.Run(ctx); err != nil {
		log.Fatalf("failed to run the agent: %v", err)
	}

	if nc != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := nc.Flush(flushCtx); err != nil {
			slog.Warn("recommendation events still pending at exit", "error", err)
		}
	}
}

func (a *Agent) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), requestLogger(), gin.Recovery(), observe())

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/", rateLimit(a.config.Server.RateLimit, a.config.Server.RateLimitBurst))
	api.POST("/recs", a.handler.Recommendations)
	api.GET("/recs/ws", a.handler.StreamRecommendations)
	api.POST("/recs/restaurant", a.handler.RestaurantSuggestion)
	api.GET("/groceries", a.handler.Groceries)
	api.GET("/recipes", a.handler.Recipe)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *Agent) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.config.Server.Address(),
		Handler:      a.Router(),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting agent", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
