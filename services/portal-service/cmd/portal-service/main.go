package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arafat-hossain/doctors-portal/libs/config"
	"github.com/arafat-hossain/doctors-portal/libs/db"
	"github.com/arafat-hossain/doctors-portal/libs/httpx"
	"github.com/arafat-hossain/doctors-portal/libs/kafkax"
	"github.com/arafat-hossain/doctors-portal/libs/otelx"
	"github.com/arafat-hossain/doctors-portal/libs/runtime"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/handlers"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/outbox"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/storage"
)

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	service := config.String("SERVICE_NAME", "portal-service")
	port, err := config.Port("PORT", "5000")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	tokenTTL := time.Duration(config.Int("TOKEN_TTL_HOURS", 24)) * time.Hour

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema setup failed", "err", err)
		panic(err)
	}

	treatments := storage.NewTreatmentRepository(pool)
	bookings := storage.NewBookingRepository(pool)
	users := storage.NewUserRepository(pool)
	doctors := storage.NewDoctorRepository(pool)
	payments := storage.NewPaymentRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	tokenHandler := handlers.NewTokenHandler(users, logger, jwtSecret, tokenTTL)
	availabilityHandler := handlers.NewAvailabilityHandler(treatments, bookings, logger)
	bookingHandler := handlers.NewBookingHandler(bookings, treatments, outboxRepo, logger,
		config.Bool("BOOKING_ENFORCE_SLOT_CAPACITY", false))
	paymentHandler := handlers.NewPaymentHandler(payments, bookings, outboxRepo, logger,
		config.String("STRIPE_SECRET_KEY", ""))
	userHandler := handlers.NewUserHandler(users, outboxRepo, logger)
	doctorHandler := handlers.NewDoctorHandler(doctors, logger)

	authed := func(h http.HandlerFunc) http.Handler {
		return handlers.Authenticated(jwtSecret, h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return handlers.AdminOnly(jwtSecret, users, h)
	}

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	// No brokers means the outbox publisher is disabled; readiness must not
	// hinge on a dependency the deployment opted out of.
	if brokers := strings.TrimSpace(config.String("KAFKA_BROKERS", "")); brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMux(readyChecks...)
	mux.HandleFunc("GET /api/v1/token", tokenHandler.Issue)
	mux.HandleFunc("GET /api/v1/appointment-options", availabilityHandler.Options)
	mux.HandleFunc("GET /api/v1/appointment-specialties", availabilityHandler.Specialties)
	mux.HandleFunc("POST /api/v1/bookings", bookingHandler.Create)
	mux.Handle("GET /api/v1/bookings", authed(bookingHandler.ListMine))
	mux.Handle("GET /api/v1/bookings/{id}", authed(bookingHandler.Get))
	mux.HandleFunc("POST /api/v1/users", userHandler.Register)
	mux.Handle("GET /api/v1/users", adminOnly(userHandler.List))
	mux.HandleFunc("GET /api/v1/users/admin/{email}", userHandler.IsAdmin)
	mux.Handle("PUT /api/v1/users/admin/{id}", adminOnly(userHandler.Promote))
	mux.Handle("GET /api/v1/doctors", adminOnly(doctorHandler.List))
	mux.Handle("POST /api/v1/doctors", adminOnly(doctorHandler.Create))
	mux.Handle("DELETE /api/v1/doctors/{id}", adminOnly(doctorHandler.Delete))
	mux.HandleFunc("POST /api/v1/payment-intent", paymentHandler.CreateIntent)
	mux.HandleFunc("POST /api/v1/payments", paymentHandler.Record)
	mux.Handle("GET /api/v1/payments", authed(paymentHandler.ListMine))

	bodyLimit := int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))
	requestTimeout := time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "portal")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
