package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	appInventory "github.com/Karthik36929/oms-v6/internal/application/inventory"
	appOrder "github.com/Karthik36929/oms-v6/internal/application/order"
	appPayment "github.com/Karthik36929/oms-v6/internal/application/payment"
	appReport "github.com/Karthik36929/oms-v6/internal/application/report"
	"github.com/Karthik36929/oms-v6/internal/infrastructure/gateway"
	httptransport "github.com/Karthik36929/oms-v6/internal/infrastructure/http"
	"github.com/Karthik36929/oms-v6/internal/infrastructure/memory"
	"github.com/Karthik36929/oms-v6/internal/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "oms")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("HTTP_ADDR", ":8080")

	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	if env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := memory.NewStore()
	inventoryRepo := memory.NewInventoryRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	paymentRepo := memory.NewPaymentRepository(store)

	gw := gateway.NewClient(
		os.Getenv("GATEWAY_BASE_URL"),
		time.Duration(getenvInt("GATEWAY_TIMEOUT_MS", 2000))*time.Millisecond,
	)

	inventoryService := appInventory.NewService(inventoryRepo, store)
	orderService := appOrder.NewService(orderRepo, paymentRepo, inventoryService, gw, store)
	paymentService := appPayment.NewService(paymentRepo, orderRepo, orderService, gw, store)
	reportService := appReport.NewService(orderRepo, paymentRepo, inventoryRepo)

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)
	httpDurations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	prometheus.MustRegister(httpRequests, httpDurations)

	srv := httptransport.NewServer(
		inventoryService,
		orderService,
		paymentService,
		reportService,
		httptransport.RequestTelemetry(baseLogger, httpRequests, httpDurations),
	)
	srv.Engine().GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:    addr,
		Handler: srv.Engine(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
