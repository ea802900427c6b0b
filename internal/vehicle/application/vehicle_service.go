package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/vehiclecatalog/internal/shared/domain"
	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

// compensationTimeout acota la escritura que deshace una reserva no publicada.
const compensationTimeout = 5 * time.Second

// VehicleService coordina los casos de uso del catálogo: alta, listado y el
// ciclo de venta Available -> Reserved -> Sold / Reserved -> Available.
type VehicleService struct {
	repo     vehicleDomain.VehicleRepository
	orders   vehicleDomain.OrderPublisher
	recorder vehicleDomain.TransitionRecorder
	log      *zap.Logger
}

// NewVehicleService es el constructor. recorder puede ser nil.
func NewVehicleService(repo vehicleDomain.VehicleRepository, orders vehicleDomain.OrderPublisher, recorder vehicleDomain.TransitionRecorder, log *zap.Logger) *VehicleService {
	return &VehicleService{
		repo:     repo,
		orders:   orders,
		recorder: recorder,
		log:      log,
	}
}

// RegisterVehicle valida el alta y guarda el vehículo como Available.
func (s *VehicleService) RegisterVehicle(ctx context.Context, cmd RegisterVehicleCommand) (*sharedDomain.QueryOutput[int64], error) {
	output := sharedDomain.NewQueryOutput[int64]()

	if msgs := cmd.Validate(); len(msgs) > 0 {
		for _, msg := range msgs {
			output.AddFault(sharedDomain.ValidationError, msg)
		}
		return output, nil
	}

	vehicle := vehicleDomain.NewVehicle(cmd.toAttributes())
	id, err := s.repo.Insert(ctx, vehicle)
	if err != nil {
		s.log.Error("Failed to register vehicle", zap.Error(err))
		return nil, err
	}

	output.Result = id
	output.AddMessage(fmt.Sprintf("vehicle added with id: %d", id))
	return output, nil
}

// ListVehicles devuelve el catálogo ordenado por precio descendente.
// El filtro por estado se aplica después de ordenar.
func (s *VehicleService) ListVehicles(ctx context.Context, q ListVehiclesQuery) (*sharedDomain.QueryOutput[[]VehicleView], error) {
	output := sharedDomain.NewQueryOutput[[]VehicleView]()
	output.Result = []VehicleView{}

	vehicles, err := s.repo.GetAll(ctx)
	if err != nil {
		s.log.Error("Failed to list vehicles", zap.Error(err))
		return nil, err
	}
	if len(vehicles) == 0 {
		return output, nil
	}

	sort.SliceStable(vehicles, func(i, j int) bool {
		return vehicles[i].Price.GreaterThan(vehicles[j].Price)
	})

	for _, v := range vehicles {
		if q.Status != nil && v.Status() != *q.Status {
			continue
		}
		output.Result = append(output.Result, toVehicleView(v))
	}

	output.AddMessage("vehicles found with success")
	return output, nil
}

// ---------- Ciclo de venta ----------

// transitionRule describe un caso de uso del ciclo de venta.
type transitionRule struct {
	name     string
	required vehicleDomain.SaleStatus
	target   vehicleDomain.SaleStatus

	alreadyMsg  string
	notAllowMsg string
	failedMsg   string
	successMsg  string
}

var (
	reserveRule = transitionRule{
		name:        "reserve",
		required:    vehicleDomain.StatusAvailable,
		target:      vehicleDomain.StatusReserved,
		alreadyMsg:  "Vehicle with ID %s is already reserved.",
		notAllowMsg: "Vehicle with ID %s is not available for reservation.",
		failedMsg:   "Failed to reserve the vehicle with ID %s.",
		successMsg:  "Vehicle with ID %s successfully reserved.",
	}
	sellRule = transitionRule{
		name:        "sell",
		required:    vehicleDomain.StatusReserved,
		target:      vehicleDomain.StatusSold,
		alreadyMsg:  "Vehicle with ID %s is already marked as sold.",
		notAllowMsg: "Vehicle with ID %s is not available for marked as sold.",
		failedMsg:   "Failed to mark the vehicle with ID %s as sold.",
		successMsg:  "Vehicle with ID %s has been marked as sold.",
	}
	releaseRule = transitionRule{
		name:        "release",
		required:    vehicleDomain.StatusReserved,
		target:      vehicleDomain.StatusAvailable,
		alreadyMsg:  "Vehicle with ID %s is already available.",
		notAllowMsg: "Vehicle with ID %s is not available for release.",
		failedMsg:   "Failed to release the vehicle with ID %s.",
		successMsg:  "Vehicle with ID %s successfully released.",
	}
)

// ReserveVehicle reserva el vehículo y, una vez persistida la reserva, pide
// la creación del pedido. Si el pedido no se puede publicar la reserva se
// deshace y se devuelve un error que envuelve ErrOrderNotPublished.
func (s *VehicleService) ReserveVehicle(ctx context.Context, cmd ReserveVehicleCommand) (*sharedDomain.Output, error) {
	return s.transition(ctx, cmd.VehicleID, reserveRule, func(v *vehicleDomain.Vehicle) error {
		return s.createOrder(ctx, v, cmd.CustomerDocument)
	})
}

// SellVehicle marca como vendido un vehículo reservado.
func (s *VehicleService) SellVehicle(ctx context.Context, cmd SellVehicleCommand) (*sharedDomain.Output, error) {
	return s.transition(ctx, cmd.VehicleID, sellRule, nil)
}

// ReleaseVehicle devuelve a disponible un vehículo reservado.
func (s *VehicleService) ReleaseVehicle(ctx context.Context, cmd ReleaseVehicleCommand) (*sharedDomain.Output, error) {
	return s.transition(ctx, cmd.VehicleID, releaseRule, nil)
}

// transition: cargar, comprobar estado, mutar, persistir y, si hay, ejecutar
// el efecto posterior. Los fallos de negocio van en el Output.
func (s *VehicleService) transition(ctx context.Context, vehicleID uuid.UUID, rule transitionRule, afterPersist func(*vehicleDomain.Vehicle) error) (*sharedDomain.Output, error) {
	output := sharedDomain.NewOutput()
	log := s.log.With(zap.String("use_case", rule.name), zap.String("vehicle_id", vehicleID.String()))

	vehicle, err := s.repo.GetByVehicleID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, vehicleDomain.ErrVehicleNotFound) {
			output.AddFault(sharedDomain.ResourceNotFound, fmt.Sprintf("Vehicle with ID %s not found.", vehicleID))
			return output, nil
		}
		log.Error("Failed to load vehicle", zap.Error(err))
		return nil, err
	}

	from := vehicle.Status()
	if from == rule.target {
		output.AddFault(sharedDomain.InvalidOperation, fmt.Sprintf(rule.alreadyMsg, vehicleID))
		return output, nil
	}
	if from != rule.required {
		output.AddFault(sharedDomain.InvalidOperation, fmt.Sprintf(rule.notAllowMsg, vehicleID))
		return output, nil
	}

	if err := vehicle.TransitionTo(rule.target); err != nil {
		output.AddFault(sharedDomain.InvalidOperation, fmt.Sprintf(rule.notAllowMsg, vehicleID))
		return output, nil
	}

	updated, err := s.repo.Update(ctx, vehicle)
	if err != nil {
		log.Error("Failed to persist vehicle", zap.Error(err))
		return nil, err
	}
	if !updated {
		log.Warn("Vehicle update was not applied", zap.String("from", string(from)), zap.String("to", string(rule.target)))
		output.AddFault(sharedDomain.InvalidOperation, fmt.Sprintf(rule.failedMsg, vehicleID))
		return output, nil
	}

	if afterPersist != nil {
		if err := afterPersist(vehicle); err != nil {
			s.compensate(ctx, vehicle, from, log)
			return nil, err
		}
	}

	s.record(ctx, vehicle, from, log)

	log.Info("Vehicle status changed", zap.String("from", string(from)), zap.String("to", string(rule.target)))
	output.AddMessage(fmt.Sprintf(rule.successMsg, vehicleID))
	return output, nil
}

func (s *VehicleService) createOrder(ctx context.Context, v *vehicleDomain.Vehicle, customerDocument string) error {
	if s.orders == nil {
		return fmt.Errorf("%w: no order publisher configured", vehicleDomain.ErrOrderNotPublished)
	}

	order := vehicleDomain.NewCreateOrderRequest(uuid.New(), v, customerDocument)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return fmt.Errorf("%w: order %s for vehicle %s: %w", vehicleDomain.ErrOrderNotPublished, order.OrderID, v.VehicleID, err)
	}
	return nil
}

// compensate devuelve el vehículo al estado previo. Corre aunque ctx esté
// cancelado: la reserva ya es durable y nadie más la va a deshacer.
func (s *VehicleService) compensate(ctx context.Context, v *vehicleDomain.Vehicle, previous vehicleDomain.SaleStatus, log *zap.Logger) {
	if err := v.TransitionTo(previous); err != nil {
		log.Error("Compensation not possible", zap.String("to", string(previous)), zap.Error(err))
		return
	}

	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	ok, err := s.repo.Update(compCtx, v)
	switch {
	case err != nil:
		log.Error("Compensation failed, vehicle is still persisted as changed", zap.Error(err))
	case !ok:
		log.Error("Compensation not applied, vehicle changed concurrently")
	default:
		log.Warn("Compensation applied", zap.String("status", string(previous)))
	}
}

// record es best effort: un fallo de analítica nunca tumba el caso de uso.
func (s *VehicleService) record(ctx context.Context, v *vehicleDomain.Vehicle, from vehicleDomain.SaleStatus, log *zap.Logger) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, vehicleDomain.VehicleTransition{
		VehicleID:  v.VehicleID,
		From:       from,
		To:         v.Status(),
		Price:      v.Price,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn("Failed to record vehicle transition", zap.Error(err))
	}
}
