package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/vehiclecatalog/internal/config"
	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
	vehicleMongo "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/outbound/db/mongodb"
	vehiclePostgres "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/outbound/db/postgre"
	vehicleSQLite "github.com/davicafu/vehiclecatalog/internal/vehicle/infra/outbound/db/sqlite"
	"github.com/davicafu/vehiclecatalog/pkg/utils"

	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

const (
	connectAttempts = 5
	connectDelay    = 500 * time.Millisecond
)

// openStore abre el store durable según STORE_DRIVER. El closer libera la conexión.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (vehicleDomain.VehicleStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		// SQLite serializa las escrituras; una conexión evita SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if err := vehicleSQLite.InitSQLite(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		log.Info("🗄️ Store SQLite listo", zap.String("path", cfg.SQLitePath))
		return vehicleSQLite.NewVehicleRepoSQLite(db), func() { db.Close() }, nil

	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open Postgres: %w", err)
		}
		err = utils.Retry(ctx, connectAttempts, connectDelay, func(ctx context.Context) error {
			return db.PingContext(ctx)
		})
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping Postgres: %w", err)
		}
		if err := vehiclePostgres.InitPostgres(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("🗄️ Store Postgres listo")
		return vehiclePostgres.NewVehicleRepoPostgres(db), func() { db.Close() }, nil

	case config.DriverMongoDB:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		closer := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}

		var repo *vehicleMongo.VehicleRepoMongoDB
		err = utils.Retry(ctx, connectAttempts, connectDelay, func(ctx context.Context) error {
			var err error
			repo, err = vehicleMongo.NewVehicleRepoMongoDB(ctx, client, cfg.MongoDB)
			return err
		})
		if err != nil {
			closer()
			return nil, nil, err
		}
		log.Info("🗄️ Store MongoDB listo", zap.String("db", cfg.MongoDB))
		return repo, closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
