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
	"github.com/ariefcatur/go-microshop/internal/postgres"
	"github.com/ariefcatur/go-microshop/internal/telemetry"
	"github.com/ariefcatur/go-microshop/internal/products"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load(config.ServiceProduct)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.Workers)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	repo := &products.Repo{DB: db}
	stop := make(chan struct{})
	var once sync.Once
	plane := control.NewPlane(repo, nil, cfg.ShutdownGrace, func() {
		once.Do(func() { close(stop) })
	})

	router := httpx.NewRouter(cfg.Workers)
	(&products.Handler{Store: repo}).Register(router)
	router.Post("/product/internal/{command}", httpx.InternalHandler(plane))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	httpx.Serve(srv, stop)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = shutdownTelemetry(ctx2)
}
