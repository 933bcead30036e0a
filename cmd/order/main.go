package main

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ariefcatur/go-microshop/internal/config"
	"github.com/ariefcatur/go-microshop/internal/control"
	"github.com/ariefcatur/go-microshop/internal/httpx"
	"github.com/ariefcatur/go-microshop/internal/orders"
	"github.com/ariefcatur/go-microshop/internal/postgres"
	"github.com/ariefcatur/go-microshop/internal/redisx"
	"github.com/ariefcatur/go-microshop/internal/svcclient"
	"github.com/ariefcatur/go-microshop/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load(config.ServiceOrder)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.Workers)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis is optional
	var cache orders.Cache
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		cache = &redisx.OrderCache{Redis: rdb}
	}

	iscs := svcclient.New(cfg.RouterURL, cfg.ClientTimeout, cfg.Workers)
	defer iscs.Close()

	coord := orders.NewCoordinator(&orders.Repo{DB: db}, iscs, cache)
	signals := control.NewBroadcaster(iscs, cfg.Stores, cfg.ClientTimeout)

	stop := make(chan struct{})
	var once sync.Once
	plane := control.NewPlane(coord, signals, cfg.ShutdownGrace, func() {
		once.Do(func() { close(stop) })
	})
	gate := control.NewGate(plane)

	router := httpx.NewRouter(cfg.Workers, gate.Middleware)
	oh := &httpx.OrdersHandler{
		Orders: coord,
		Plane:  plane,
		Router: iscs,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	httpx.Serve(srv, stop)

	signals.Wait()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := shutdownTelemetry(ctx2); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}
