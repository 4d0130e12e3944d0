package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVehicleNotFound is returned when no registry document matches a
// registration number under any of the historical field-naming schemes.
var ErrVehicleNotFound = errors.New("vehicle not found")

// Field spellings the registry has accumulated for the registration number.
// The resolver owns normalization; this layer only has to find the document.
var registrationFields = []string{"registrationNumber", "registration_number", "RegistrationNumber"}

// VehicleCollection defines the interface for fleet-registry lookups. The
// registry is external master data: this layer reads raw documents and
// never writes them.
type VehicleCollection interface {
	FindByRegistration(ctx context.Context, registration string) (bson.M, error)
	FindAll(ctx context.Context) ([]bson.M, error)
}

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// FindByRegistration finds the raw registry document for a registration
// number, matching case-insensitively under every known field spelling.
func (c *MongoVehicleCollection) FindByRegistration(ctx context.Context, registration string) (bson.M, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	pattern := primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(registration) + "$",
		Options: "i",
	}
	or := make([]bson.M, 0, len(registrationFields))
	for _, field := range registrationFields {
		or = append(or, bson.M{field: pattern})
	}

	var doc bson.M
	err := c.Collection.FindOne(ctx, bson.M{"$or": or}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return doc, nil
}

// FindAll returns every raw registry document.
func (c *MongoVehicleCollection) FindAll(ctx context.Context) ([]bson.M, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
