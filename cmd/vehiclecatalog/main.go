package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davicafu/vehiclecatalog/internal/config"
	sharedEvents "github.com/davicafu/vehiclecatalog/internal/shared/infra/events"
	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/cache"
	vehicleApp "github.com/davicafu/vehiclecatalog/internal/vehicle/application"
	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
	vehicleEvents "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/inbound/events"
	vehicleHttp "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/inbound/http"
	vehicleAnalytics "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/outbound/analytics/clickhouse"
	vehicleCache "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/outbound/cache"
	vehicleOrders "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/outbound/events"
	vehicleRepo "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/outbound/repository"
	"github.com/davicafu/vehiclecatalog/pkg/logger"
)

const (
	inMemoryBusBuffer = 100
	shutdownTimeout   = 10 * time.Second
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()    // obtiene logger estructurado
	defer log.Sync()          // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open vehicle store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = vehicleCache.NewInMemoryCache()
	} else {
		cacheInstance = vehicleCache.NewRedisCache(rdb)
		log.Info("✅ Redis conectado, cache habilitado")
	}
	defer rdb.Close()

	repo := vehicleRepo.NewCachedVehicleRepository(store, cacheInstance, log)

	// ---------------- Analytics ----------------
	// Se declara como interfaz: un *TransitionLogClickHouse nil no debe llegar al servicio.
	var recorder vehicleDomain.TransitionRecorder
	if cfg.ClickHouseAddr != "" {
		transitionLog, err := vehicleAnalytics.NewTransitionLogClickHouse(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err == nil {
			err = transitionLog.InitSchema(ctx)
		}
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, sin histórico de transiciones", zap.Error(err))
		} else {
			recorder = transitionLog
			log.Info("📊 Histórico de transiciones en ClickHouse")
		}
	}

	// ---------------- Events ---------------
	var (
		writer    sharedEvents.MessageWriter
		readerFor func(topic string) sharedEvents.MessageReader
		orderSink *sharedEvents.Consumer[vehicleDomain.CreateOrderRequest]
	)

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		// Sin Topic: cada mensaje lleva el suyo.
		kafkaWriter := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
		defer kafkaWriter.Close()
		writer = kafkaWriter

		readerFor = func(topic string) sharedEvents.MessageReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:  cfg.KafkaBrokers,
				Topic:    topic,
				GroupID:  cfg.KafkaGroupID,
				MinBytes: 10e3, // 10KB
				MaxBytes: 10e6, // 10MB
			})
		}
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		bus := sharedEvents.NewInMemoryBus(inMemoryBusBuffer)
		defer bus.Close()
		writer = bus
		readerFor = bus.Reader

		// En local no hay sistema de pedidos: se drena car-reserved para que el bus no se llene.
		orderSink = sharedEvents.NewConsumer[vehicleDomain.CreateOrderRequest](
			bus.Reader(cfg.TopicCarReserved), cfg.TopicCarReserved,
			func() sharedEvents.Handler[vehicleDomain.CreateOrderRequest] {
				return sharedEvents.HandlerFunc[vehicleDomain.CreateOrderRequest](
					func(_ context.Context, env sharedBus.Envelope[vehicleDomain.CreateOrderRequest]) error {
						log.Info("📦 Order request received (local)",
							zap.String("order_id", env.Value.OrderID.String()),
							zap.String("vehicle_id", env.Value.VehicleID.String()))
						return nil
					})
			},
			log, cfg.HandlerTimeout,
		)
	}

	orderProducer := sharedEvents.NewProducer[vehicleDomain.CreateOrderRequest](writer, log)
	orders := vehicleOrders.NewKafkaOrderPublisher(orderProducer, cfg.TopicCarReserved, log)

	// --------------- Servicio --------------
	vehicleService := vehicleApp.NewVehicleService(repo, orders, recorder, log)

	vehicleConsumer := vehicleEvents.NewVehicleConsumer(vehicleService, log)
	sellConsumer := sharedEvents.NewConsumer(
		readerFor(cfg.TopicOrderFinalized), cfg.TopicOrderFinalized,
		vehicleConsumer.SellHandlerFactory(), log, cfg.HandlerTimeout,
	)
	releaseConsumer := sharedEvents.NewConsumer(
		readerFor(cfg.TopicOrderCanceled), cfg.TopicOrderCanceled,
		vehicleConsumer.ReleaseHandlerFactory(), log, cfg.HandlerTimeout,
	)

	// ---------------- HTTP ----------------
	router := gin.Default()
	vehicleHttp.RegisterVehicleRoutes(router, vehicleHttp.NewVehicleHandler(vehicleService, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// El primero que falle cancela al resto.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sellConsumer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		releaseConsumer.Run(gctx)
		return nil
	})
	if orderSink != nil {
		g.Go(func() error {
			orderSink.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("vehiclecatalog stopped with error", zap.Error(err))
		return
	}
	log.Info("👋 vehiclecatalog stopped")
}
