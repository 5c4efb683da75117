package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"arq/internal/admin"
	"arq/internal/ai"
	"arq/internal/auth/credentials"
	authHandler "arq/internal/auth/handler"
	authMetrics "arq/internal/auth/metrics"
	"arq/internal/auth/session"
	"arq/internal/chat"
	contentHandler "arq/internal/content/handler"
	contentMetrics "arq/internal/content/metrics"
	contentService "arq/internal/content/service"
	contentMemory "arq/internal/content/store/memory"
	contentPostgres "arq/internal/content/store/postgres"
	keywordsClient "arq/internal/keywords/client"
	keywordsHandler "arq/internal/keywords/handler"
	keywordsMetrics "arq/internal/keywords/metrics"
	keywordsService "arq/internal/keywords/service"
	keywordsMemory "arq/internal/keywords/store/memory"
	keywordsPostgres "arq/internal/keywords/store/postgres"
	"arq/internal/leads/analysis"
	leadsHandler "arq/internal/leads/handler"
	leadsMetrics "arq/internal/leads/metrics"
	leadsService "arq/internal/leads/service"
	leadsMemory "arq/internal/leads/store/memory"
	leadsPostgres "arq/internal/leads/store/postgres"
	"arq/internal/notify"
	"arq/internal/platform/config"
	"arq/internal/platform/database"
	"arq/internal/platform/health"
	"arq/internal/platform/logger"
	"arq/internal/platform/metrics"
	"arq/internal/platform/tracer"
	rateLimitConfig "arq/internal/ratelimit/config"
	rateLimitMetrics "arq/internal/ratelimit/metrics"
	rateLimitMW "arq/internal/ratelimit/middleware"
	rateLimitService "arq/internal/ratelimit/service"
	"arq/internal/ratelimit/store/window"
	"arq/internal/ratelimit/workers/sweep"
	httptransport "arq/internal/transport/http"
	"arq/pkg/platform/middleware/metadata"
	"arq/pkg/platform/middleware/request"
)

// app is the assembled process: the router plus the pieces main drives.
type app struct {
	router  http.Handler
	sweeper *sweep.Worker
	leads   *leadsService.Service
	pool    *database.Pool
	log     *slog.Logger
}

func (a *app) close() {
	if err := a.pool.Close(); err != nil {
		a.log.Error("failed to close database pool", "error", err)
	}
}

// stores picks Postgres when a pool exists and in-memory stores otherwise.
// Validate already refuses production without DATABASE_URL.
type stores struct {
	leads    leadsService.Store
	content  contentService.Store
	keywords keywordsService.Cache
}

func newStores(pool *database.Pool) stores {
	if db := pool.DB(); db != nil {
		return stores{
			leads:    leadsPostgres.New(db),
			content:  contentPostgres.New(db),
			keywords: keywordsPostgres.New(db),
		}
	}
	return stores{
		leads:    leadsMemory.New(),
		content:  contentMemory.New(),
		keywords: keywordsMemory.New(),
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	reg := metrics.NewRegistry()
	tr := tracer.NewOTel()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if pool == nil {
		log.Warn("DATABASE_URL not set; using in-memory stores")
	}
	st := newStores(pool)

	// Rate limiting
	policies := rateLimitConfig.DefaultConfig()
	policies.SweepInterval = cfg.RateLimitSweepInterval
	if cfg.RateLimitPolicies != "" {
		if err := policies.ApplyOverrides(cfg.RateLimitPolicies); err != nil {
			return nil, fmt.Errorf("rate limit policies: %w", err)
		}
	}
	rlMetrics := rateLimitMetrics.New(reg)
	limiter, err := rateLimitService.New(window.New(),
		rateLimitService.WithConfig(policies),
		rateLimitService.WithLogger(log),
		rateLimitService.WithMetrics(rlMetrics),
	)
	if err != nil {
		return nil, err
	}
	sweeper := sweep.New(limiter,
		sweep.WithInterval(policies.SweepInterval),
		sweep.WithLogger(log),
		sweep.WithMetrics(rlMetrics),
	)

	proxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	if proxies.TrustAll {
		log.Warn("trusting forwarding headers from every peer; rate limits are only as strong as the edge proxy")
	}

	// Admin sessions
	secret, ephemeral, err := session.ResolveSecret(cfg.AdminSessionSecret, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	if ephemeral {
		logger.Critical(ctx, log, "ADMIN_SESSION_SECRET not set; using a per-process secret, sessions end on restart")
	}
	authority, err := session.New(secret)
	if err != nil {
		return nil, err
	}
	entries, err := credentials.Parse(cfg.AdminCredentials)
	if err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}
	creds, err := credentials.New(entries)
	if err != nil {
		return nil, err
	}
	if creds.Len() == 0 {
		logger.Critical(ctx, log, "ADMIN_CREDENTIALS not set; admin login is disabled")
	}
	aMetrics := authMetrics.New(reg)

	// Outbound collaborators
	aiClient := ai.New(ai.Config{
		APIURL: cfg.AI.APIURL,
		APIKey: cfg.AI.APIKey,
		Model:  cfg.AI.Model,
	}, ai.WithTracer(tr), ai.WithLogger(log))
	if !aiClient.Configured() {
		log.Warn("AI_API_KEY not set; lead analysis, content generation and chat are disabled")
	}

	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.Email.Configured() {
		sender = notify.NewHTTPSender(notify.EmailConfig{
			APIURL: cfg.Email.APIURL,
			APIKey: cfg.Email.APIKey,
		}, notify.WithTracer(tr))
	} else {
		log.Warn("email not configured; notifications are logged only")
	}

	kwClient := keywordsClient.New(keywordsClient.Config{
		APIURL: cfg.Keywords.APIURL,
		APIKey: cfg.Keywords.APIKey,
	}, keywordsClient.WithTracer(tr), keywordsClient.WithLogger(log))

	// Services
	content := contentService.New(st.content,
		contentService.WithGenerator(aiClient),
		contentService.WithMetrics(contentMetrics.New(reg)),
		contentService.WithLogger(log),
	)
	notifier, err := notify.New(notify.Config{
		From:     cfg.Email.From,
		NotifyTo: cfg.Email.NotifyTo,
	}, sender, notify.WithResources(content), notify.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	leads := leadsService.New(st.leads,
		leadsService.WithAnalyzer(analysis.New(aiClient)),
		leadsService.WithNotifier(notifier),
		leadsService.WithResources(content),
		leadsService.WithMetrics(leadsMetrics.New(reg)),
		leadsService.WithLogger(log),
	)
	keywords := keywordsService.New(st.keywords, kwClient,
		keywordsService.WithMetrics(keywordsMetrics.New(reg)),
		keywordsService.WithTracer(tr),
		keywordsService.WithLogger(log),
	)
	dashboard := admin.NewService(leads, content, policies, log)

	healthHandler := health.New(cfg.Environment, log)
	if pool != nil {
		healthHandler.RegisterCheck("database", pool.Health)
	}
	healthHandler.ReportFeature("ai", aiClient.Configured())
	healthHandler.ReportFeature("email", cfg.Email.Configured())
	healthHandler.ReportFeature("keywords", kwClient.Configured())

	cookieCfg := authHandler.Config{Secure: cfg.IsProduction()}
	router := httptransport.NewRouter(httptransport.Handlers{
		Leads:    leadsHandler.New(leads, log),
		Content:  contentHandler.New(content, log),
		Keywords: keywordsHandler.New(keywords, log),
		Chat:     chat.New(aiClient, log),
		Auth:     authHandler.New(creds, authority, cookieCfg, aMetrics, log),
		Admin:    admin.New(dashboard, log),
		Health:   healthHandler,
	}, httptransport.Config{
		RateLimit:      rateLimitMW.New(limiter, log),
		Sessions:       authority,
		AuthMetrics:    aMetrics,
		RequestMetrics: request.NewMetrics(reg),
		Metadata:       proxies,
		MetricsHandler: metrics.Handler(reg),
	}, log)

	return &app{
		router:  router,
		sweeper: sweeper,
		leads:   leads,
		pool:    pool,
		log:     log,
	}, nil
}
