package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

// TransitionLogClickHouse guarda cada cambio de estado de venta para analítica.
type TransitionLogClickHouse struct {
	db *sql.DB
}

// Verificación estática de la interfaz.
var _ vehicleDomain.TransitionRecorder = (*TransitionLogClickHouse)(nil)

// NewTransitionLogClickHouse abre la conexión y comprueba que responde.
func NewTransitionLogClickHouse(addr string, dbName string) (*TransitionLogClickHouse, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return NewTransitionLogFromDB(conn), nil
}

// NewTransitionLogFromDB reutiliza una conexión ya abierta.
func NewTransitionLogFromDB(db *sql.DB) *TransitionLogClickHouse {
	return &TransitionLogClickHouse{db: db}
}

// Record inserta una fila. ClickHouse prefiere lotes, pero aquí el volumen
// es de una fila por caso de uso.
func (r *TransitionLogClickHouse) Record(ctx context.Context, t vehicleDomain.VehicleTransition) error {
	occurredAt := t.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicle_transitions_log (vehicle_id, from_status, to_status, price, event_time) VALUES (?, ?, ?, ?, ?)`,
		t.VehicleID, string(t.From), string(t.To), t.Price, occurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record transition for vehicle %s: %w", t.VehicleID, err)
	}
	return nil
}

// InitSchema crea la tabla en ClickHouse si no existe.
// Se particiona por mes y se ordena por vehículo y tiempo.
func (r *TransitionLogClickHouse) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vehicle_transitions_log (
			vehicle_id  UUID,
			from_status LowCardinality(String),
			to_status   LowCardinality(String),
			price       Decimal(18, 2),
			event_time  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (vehicle_id, event_time)
	`)
	return err
}
