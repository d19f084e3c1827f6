package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/70ki8suda/my-new-gear/configs"
	"github.com/70ki8suda/my-new-gear/internal/feed"
	"github.com/70ki8suda/my-new-gear/internal/kafka"
	"github.com/70ki8suda/my-new-gear/internal/migrate"
	"github.com/70ki8suda/my-new-gear/internal/shared/httpx"
	"github.com/70ki8suda/my-new-gear/internal/shared/redisx"
	"github.com/70ki8suda/my-new-gear/pkg/di"
)

func initOTEL(ctx context.Context) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "otel-collector:4318"
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		log.Fatalf("otel exporter: %v", err)
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(os.Getenv("OTEL_SERVICE_NAME")),
		attribute.String("deployment.environment", os.Getenv("ENV")),
	))
	ratio := 1.0
	if s := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown
}

func main() {
	ctx := context.Background()
	cfg := configs.LoadConfig()

	shutdown := initOTEL(ctx)
	defer func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdown(c)
	}()

	rdb := redisx.Open(cfg)
	if rdb != nil {
		defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
	}

	container, err := di.BuildContainer(cfg, rdb)
	if err != nil {
		log.Fatalf("build container: %v", err)
	}

	if cfg.AutoMigrate {
		if err := migrate.AutoMigrateAll(container.DB); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
	}

	// Cache invalidation: post events bump the cache version so no cached
	// page survives a write.
	if rdb != nil && cfg.KafkaBootstrap != "" {
		cache := container.FeedCache
		go func() {
			err := kafka.StartConsumer(ctx, cfg.KafkaBootstrap, cfg.PostsTopic, cfg.KafkaGroupID,
				func(ctx context.Context, _ kafka.PostEvent) error {
					return cache.Invalidate(ctx)
				})
			if err != nil {
				log.Errorf("kafka consumer stopped: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	h := feed.NewHandler(container.FeedService)

	protect := func(pattern string, handler http.Handler) {
		mux.Handle(pattern, httpx.AuthMiddleware(handler))
	}
	protect("GET /feed", httpx.Wrap(h.GetCombinedFeed))
	protect("GET /feed/following", httpx.Wrap(h.GetUsersFeed))
	protect("GET /feed/tags", httpx.Wrap(h.GetTagsFeed))

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           otelhttp.NewHandler(mux, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	log.Infof("feed service listening on %s", cfg.AppPort)
	log.Fatal(srv.ListenAndServe())
}
