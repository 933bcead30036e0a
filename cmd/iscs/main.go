package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/ariefcatur/go-microshop/internal/config"
	"github.com/ariefcatur/go-microshop/internal/httpx"
	"github.com/ariefcatur/go-microshop/internal/iscs"
	"github.com/ariefcatur/go-microshop/internal/svcclient"
	"github.com/ariefcatur/go-microshop/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load(config.ServiceRouter)
	shutdownTelemetry, err := telemetry.Setup(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	users := svcclient.New(cfg.UserServiceURL, cfg.ClientTimeout, cfg.Workers)
	defer users.Close()
	products := svcclient.New(cfg.ProductServiceURL, cfg.ClientTimeout, cfg.Workers)
	defer products.Close()

	rt := iscs.NewRouter(
		iscs.Route{Prefix: "/user", Backend: users},
		iscs.Route{Prefix: "/product", Backend: products},
	)
	log.Printf("routes: /user -> %s, /product -> %s", cfg.UserServiceURL, cfg.ProductServiceURL)

	router := httpx.NewRouter(cfg.Workers)
	router.Handle("/*", rt)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	httpx.Serve(srv, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shutdownTelemetry(ctx)
}
