package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/aq2208/gorder-seed/configs"
	"github.com/aq2208/gorder-seed/internal/adapter/cache"
	"github.com/aq2208/gorder-seed/internal/adapter/http"
	"github.com/aq2208/gorder-seed/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-seed/internal/adapter/kafka"
	"github.com/aq2208/gorder-seed/internal/adapter/observ"
	"github.com/aq2208/gorder-seed/internal/adapter/queue"
	"github.com/aq2208/gorder-seed/internal/adapter/repo"
	"github.com/aq2208/gorder-seed/internal/logging"
	"github.com/aq2208/gorder-seed/internal/security"
	"github.com/aq2208/gorder-seed/internal/usecase"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg     configs.Config
	log     *slog.Logger
	repo    *repo.SQLSeedRepo
	seeder  *usecase.SeedRun
	metrics *observ.RunMetrics
	history usecase.RunHistory
	amqp    *amqp.Connection
}

// InitWithConfig connects the database and every optional backend the config
// enables. The returned cleanup closes them in reverse order.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	log := logging.New("app")
	a := &App{cfg: cfg, log: log}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("cleanup", "error", err)
			}
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	// init database
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fail(fmt.Errorf("open db: %w", err))
	}
	closers = append(closers, db.Close)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fail(fmt.Errorf("ping db (try -init-db against an existing database): %w", err))
	}
	log.Info("database connected", "driver", cfg.Database.Driver)

	a.repo, err = repo.NewSQLSeedRepo(db, cfg.Database.Driver, cfg.Database.BatchSize)
	if err != nil {
		return fail(err)
	}

	a.metrics = observ.NewRunMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	opts := []usecase.Option{usecase.WithMetrics(a.metrics), usecase.WithAnchor(cfg.Anchor())}
	var pubs usecase.Publishers

	// init redis: distributed lock + last-run record
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		closers = append(closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
		last := cache.NewRedisLastRun(rdb, 0)
		opts = append(opts, usecase.WithLock(cache.NewRedisRunLock(rdb, cfg.Redis.LockTTL)))
		pubs = append(pubs, last)
		a.history = last
		log.Info("redis enabled", "addr", cfg.Redis.Addr)
	}

	// init kafka producer
	if len(cfg.Kafka.Brokers) > 0 {
		sp, err := kafka.NewSyncProducer(cfg.Kafka.Brokers, cfg.App.Name)
		if err != nil {
			return fail(fmt.Errorf("kafka producer: %w", err))
		}
		p := kafka.NewRunCompletedProducer(sp, cfg.Kafka.Topic)
		closers = append(closers, p.Close)
		pubs = append(pubs, p)
		log.Info("kafka enabled", "topic", cfg.Kafka.Topic)
	}

	// init rabbitmq producer
	if cfg.Rabbit.URL != "" {
		conn, err := amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			return fail(fmt.Errorf("rabbitmq dial: %w", err))
		}
		closers = append(closers, conn.Close)
		a.amqp = conn

		ch, err := conn.Channel()
		if err != nil {
			return fail(fmt.Errorf("rabbitmq channel: %w", err))
		}
		if err := queue.DeclareTopology(ch, cfg.Rabbit.Exchange, cfg.Rabbit.RequestQueue); err != nil {
			return fail(err)
		}
		pubs = append(pubs, queue.NewRabbitProducer(ch, cfg.Rabbit.Exchange, cfg.Rabbit.RoutingKey))
		log.Info("rabbitmq enabled", "exchange", cfg.Rabbit.Exchange)
	}

	if len(pubs) > 0 {
		opts = append(opts, usecase.WithPublisher(pubs))
	}
	a.seeder = usecase.NewSeedRun(a.repo, opts...)
	return a, cleanup, nil
}

func (a *App) Defaults() usecase.Params {
	g := a.cfg.Generate
	return usecase.Params{
		Customers:        g.Customers,
		Products:         g.Products,
		Orders:           g.Orders,
		MaxItemsPerOrder: g.MaxItemsPerOrder,
		Days:             g.Days,
		StartDate:        a.cfg.StartDate(),
		Seed:             g.Seed,
	}
}

// Run executes the mode selected by f. Schema flags apply first, in the order
// init, then drop-recreate or truncate.
func (a *App) Run(ctx context.Context, f Flags, out io.Writer) error {
	if f.InitDB {
		if err := a.repo.Migrate(ctx); err != nil {
			return err
		}
		a.log.Info("schema ready")
	}
	switch {
	case f.DropRecreate:
		if err := a.repo.DropAndRecreate(ctx); err != nil {
			return err
		}
		a.log.Warn("tables dropped and recreated")
	case f.Truncate:
		if err := a.repo.Truncate(ctx); err != nil {
			return err
		}
		a.log.Warn("all tables truncated")
	}

	switch {
	case f.StatsOnly:
		return a.printStats(ctx, out)
	case f.Serve:
		return a.serve(ctx)
	default:
		return a.runOnce(ctx, out)
	}
}

func (a *App) printStats(ctx context.Context, out io.Writer) error {
	stats, err := a.repo.Stats(ctx)
	if err != nil {
		return err
	}
	for _, s := range stats {
		a.log.Info("table stats", "table", s.Table, "rows", s.Rows, "latest_created_at", s.Latest)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func (a *App) runOnce(ctx context.Context, out io.Writer) error {
	runCtx := ctx
	if d := a.cfg.HTTP.RunTimeout; d > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	rep, runErr := a.seeder.Execute(runCtx, a.Defaults())
	if rep.RunID != "" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			a.log.Warn("print report", "error", err)
		}
	}

	if url := a.cfg.Metrics.PushgatewayURL; url != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := a.metrics.Push(pushCtx, url, a.cfg.Metrics.Job); err != nil {
			a.log.Warn("push metrics", "error", err)
		}
	}
	return runErr
}

func (a *App) serve(ctx context.Context) error {
	if err := a.cfg.ValidateServe(); err != nil {
		return err
	}
	sec := a.cfg.Security

	clients := make([]security.Client, 0, len(sec.Clients))
	for _, c := range sec.Clients {
		clients = append(clients, security.Client{ID: c.ID, Secret: c.Secret, Perms: c.Perms, Enabled: !c.Disabled})
	}
	th := http.NewTokenHandler(security.NewRegistry(clients...), http.TokenConfig{
		Secret: sec.JWTSecret, Issuer: sec.Issuer, Audience: sec.Audience, TTL: sec.TTL,
	})
	h := http.NewSeedHandler(a.seeder, a.repo, a.Defaults(), a.cfg.HTTP.RunTimeout)
	if a.history != nil {
		h.WithHistory(a.history)
	}
	router := http.NewRouter(h, th, middleware.NewAuthz(sec.JWTSecret, sec.Issuer, sec.Audience), logging.New("http"))

	if a.amqp != nil && a.cfg.Rabbit.RequestQueue != "" {
		if err := a.consumeRunRequests(ctx); err != nil {
			return err
		}
	}

	srv := &nethttp.Server{
		Addr:              a.cfg.App.HTTPAddr,
		Handler:           router,
		ReadTimeout:       a.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.cfg.HTTP.WriteTimeout,
		IdleTimeout:       a.cfg.HTTP.IdleTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("order-seed listening", "addr", srv.Addr, "env", a.cfg.App.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) consumeRunRequests(ctx context.Context) error {
	ch, err := a.amqp.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq consumer channel: %w", err)
	}
	h := queue.NewRunRequestHandler(a.seeder, a.Defaults())
	router := queue.NewRouter(ch, queue.WithTimeout(a.cfg.HTTP.RunTimeout))
	router.Register(a.cfg.Rabbit.RequestQueue, queue.JSONHandler[usecase.RunRequest]{HandleFunc: h.HandleRunRequest})

	ctx = logging.WithCtx(ctx, logging.New("queue"))
	if err := router.Start(ctx); err != nil {
		return fmt.Errorf("start run-request consumer: %w", err)
	}
	a.log.Info("consuming run requests", "queue", a.cfg.Rabbit.RequestQueue)
	return nil
}
