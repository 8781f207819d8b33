package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dkhalitov/pos-terminal-sync/internal/allocator"
	"github.com/dkhalitov/pos-terminal-sync/internal/config"
	"github.com/dkhalitov/pos-terminal-sync/internal/database"
	"github.com/dkhalitov/pos-terminal-sync/internal/handler"
	"github.com/dkhalitov/pos-terminal-sync/internal/hub"
	"github.com/dkhalitov/pos-terminal-sync/internal/order"
	"github.com/dkhalitov/pos-terminal-sync/internal/queue"
	"github.com/dkhalitov/pos-terminal-sync/internal/registry"
	"github.com/dkhalitov/pos-terminal-sync/internal/repository"
	"github.com/dkhalitov/pos-terminal-sync/internal/router"
	"github.com/dkhalitov/pos-terminal-sync/internal/sale"
	"github.com/dkhalitov/pos-terminal-sync/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tableRepo := repository.NewTableRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)

	tables, err := tableRepo.LoadAll(ctx)
	if err != nil {
		log.Fatalf("load tables: %v", err)
	}
	activeOrders, err := orderRepo.ListActive(ctx)
	if err != nil {
		log.Fatalf("load active orders: %v", err)
	}
	log.Printf("loaded %d tables and %d active orders", len(tables), len(activeOrders))

	reg := registry.New()
	broadcast := hub.New(reg)
	alloc := allocator.New(tableRepo, tables)
	active := order.NewActiveStore(activeOrders)
	executor := sale.NewExecutor(sale.SQLRunner{DB: db}, productRepo, saleRepo)

	var notifier service.Notifier = service.LogNotifier{}
	if cfg.AMQPURL != "" {
		notifier = &service.AMQPNotifier{URL: cfg.AMQPURL}
	}

	facade := service.NewFacade(active, orderRepo, alloc, executor, broadcast, notifier)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Terminal: handler.NewTerminalHandler(reg, broadcast, time.Duration(cfg.HeartbeatSecs)*time.Second),
		Orders:   handler.NewOrderHandler(facade),
		Tables:   handler.NewTableHandler(facade),
		Sales:    handler.NewSaleHandler(facade),
	}, cfg.JWTSecret, config.LoadRateLimitConfig(), config.NewRedisClient())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		return e.Start(addr)
	})

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return queue.StartNotificationWorker(gctx, cfg.AMQPURL, cfg.PlatformURL)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Printf("shutdown: %v", err)
	}
}
