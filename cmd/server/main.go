package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/config"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/httpserver"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/khalti"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/mykafka"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/search"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/service"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/db"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/logging"
	loggingmw "github.com/SiddharthaDhakal2/Agri-Backend/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	producer := mykafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	products := &repo.ProductRepo{DB: gdb}
	orders := &repo.OrderRepo{DB: gdb}
	users := &repo.UserRepo{DB: gdb}

	searchSvc := &search.Service{Index: cfg.ES_INDEX, Products: products}
	if cfg.ES_URL != "" {
		es, err := search.NewClient(cfg.ES_URL, cfg.ES_USER, cfg.ES_PASSWORD)
		if err != nil {
			logger.Warn("elasticsearch unavailable, falling back to database search", "error", err)
		} else {
			searchSvc.ES = es
		}
	}

	catalogSvc := &service.CatalogService{Products: products}
	orderSvc := &service.OrderService{DB: gdb, Orders: orders, Products: products}
	authSvc := &service.AuthService{Users: users, JWTSecret: cfg.JWTSecret, RefreshSecret: cfg.RefreshSecret}
	paymentSvc := &service.PaymentService{
		Orders: orderSvc,
		Gateway: khalti.NewClient(khalti.Config{
			SecretKey:  cfg.KhaltiSecretKey,
			BaseURL:    cfg.KhaltiBaseURL,
			ReturnURL:  cfg.KhaltiReturnURL,
			WebsiteURL: cfg.KhaltiWebsiteURL,
		}),
		Producer: producer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:      &httpserver.AuthHTTP{Svc: authSvc},
		Products:  &httpserver.ProductHTTP{Svc: catalogSvc, Search: searchSvc, Producer: producer},
		Orders:    &httpserver.OrderHTTP{Svc: orderSvc, Producer: producer},
		Payments:  &httpserver.PaymentHTTP{Svc: paymentSvc},
		JWTSecret: cfg.JWTSecret,
	})

	logger.Info("starting server", "service", cfg.ServiceName, "port", cfg.ServerPort)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.ServerPort)))
}
