package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

const vehicleSequence = "vehicles"

// VehicleRepoMongoDB implementa VehicleStore para MongoDB.
// El ID sustituto sale de un contador atómico en la colección "counters".
type VehicleRepoMongoDB struct {
	vehiclesColl *mongo.Collection
	countersColl *mongo.Collection
}

var _ vehicleDomain.VehicleStore = (*VehicleRepoMongoDB)(nil)

// NewVehicleRepoMongoDB comprueba la conexión y asegura el índice único de vehicleId.
func NewVehicleRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*VehicleRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	r := &VehicleRepoMongoDB{
		vehiclesColl: db.Collection("vehicles"),
		countersColl: db.Collection("counters"),
	}

	_, err := r.vehiclesColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "vehicleId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create vehicleId index: %w", err)
	}
	return r, nil
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.
// Los importes se guardan como string para no perder precisión.

type mongoVehicle struct {
	ID            int64      `bson:"_id"`
	VehicleID     string     `bson:"vehicleId"`
	CarName       string     `bson:"carName"`
	Brand         string     `bson:"brand"`
	Model         string     `bson:"model"`
	Year          int        `bson:"year"`
	Color         string     `bson:"color"`
	FuelType      string     `bson:"fuelType"`
	NumberOfDoors int        `bson:"numberOfDoors"`
	Mileage       string     `bson:"mileage"`
	Price         string     `bson:"price"`
	SaleDate      *time.Time `bson:"saleDate,omitempty"`
	Status        string     `bson:"status"`
	IsReserved    bool       `bson:"isReserved"`
	Version       int64      `bson:"version"`
}

type mongoCounter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// --- Lectura ---

func (r *VehicleRepoMongoDB) GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var mv mongoVehicle
	err := r.vehiclesColl.FindOne(ctx, bson.M{"vehicleId": vehicleID.String()}).Decode(&mv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, vehicleDomain.ErrVehicleNotFound
		}
		return nil, err
	}
	return fromMongoVehicle(&mv)
}

func (r *VehicleRepoMongoDB) GetAll(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	cursor, err := r.vehiclesColl.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vehicles := []*vehicleDomain.Vehicle{}
	for cursor.Next(ctx) {
		var mv mongoVehicle
		if err := cursor.Decode(&mv); err != nil {
			return nil, err
		}
		v, err := fromMongoVehicle(&mv)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, cursor.Err()
}

// --- Escritura ---

func (r *VehicleRepoMongoDB) Insert(ctx context.Context, v *vehicleDomain.Vehicle) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not allocate vehicle id: %w", err)
	}

	mv := toMongoVehicle(v)
	mv.ID = id
	if _, err := r.vehiclesColl.InsertOne(ctx, mv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %s", vehicleDomain.ErrVehicleAlreadyExists, v.VehicleID)
		}
		return 0, err
	}

	v.ID = id
	return id, nil
}

// Update filtra por _id y versión; MatchedCount == 0 significa fila inexistente o versión obsoleta.
func (r *VehicleRepoMongoDB) Update(ctx context.Context, v *vehicleDomain.Vehicle) (bool, error) {
	mv := toMongoVehicle(v)
	mv.Version = v.Version + 1

	filter := bson.M{"_id": v.ID, "version": v.Version}
	update := bson.M{"$set": mv}
	if mv.SaleDate == nil {
		// omitempty no borra un campo existente
		update["$unset"] = bson.M{"saleDate": ""}
	}

	res, err := r.vehiclesColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, nil
	}
	v.Version = mv.Version
	return true, nil
}

// nextID incrementa atómicamente la secuencia de vehículos (upsert en el primer uso).
func (r *VehicleRepoMongoDB) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c mongoCounter
	err := r.countersColl.FindOneAndUpdate(ctx,
		bson.M{"_id": vehicleSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, err
	}
	return c.Seq, nil
}

// --- Helpers de Mapeo y Conversión ---

func toMongoVehicle(v *vehicleDomain.Vehicle) *mongoVehicle {
	s := v.Snapshot()
	return &mongoVehicle{
		ID: s.ID, VehicleID: s.VehicleID.String(), CarName: s.CarName, Brand: s.Brand, Model: s.Model,
		Year: s.Year, Color: s.Color, FuelType: s.FuelType, NumberOfDoors: s.NumberOfDoors,
		Mileage: s.Mileage.String(), Price: s.Price.String(), SaleDate: s.SaleDate,
		Status: string(s.Status), IsReserved: s.IsReserved, Version: s.Version,
	}
}

func fromMongoVehicle(mv *mongoVehicle) (*vehicleDomain.Vehicle, error) {
	vehicleID, err := uuid.Parse(mv.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicleId in document %d: %w", mv.ID, err)
	}
	mileage, err := decimal.NewFromString(mv.Mileage)
	if err != nil {
		return nil, fmt.Errorf("invalid mileage in document %d: %w", mv.ID, err)
	}
	price, err := decimal.NewFromString(mv.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price in document %d: %w", mv.ID, err)
	}

	return vehicleDomain.RestoreVehicle(vehicleDomain.VehicleSnapshot{
		ID: mv.ID, VehicleID: vehicleID, CarName: mv.CarName, Brand: mv.Brand, Model: mv.Model,
		Year: mv.Year, Color: mv.Color, FuelType: mv.FuelType, NumberOfDoors: mv.NumberOfDoors,
		Mileage: mileage, Price: price, SaleDate: mv.SaleDate,
		Status: vehicleDomain.SaleStatus(mv.Status), IsReserved: mv.IsReserved, Version: mv.Version,
	})
}
