// Command seed populates the fleet registry with sample vehicles and a
// default admin account. Half of the vehicles are written under the legacy
// field-naming scheme so the resolver's normalization path can be exercised
// against a realistic registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evzone/fleet-backoffice/internal/auth"
	"github.com/evzone/fleet-backoffice/internal/config"
	"github.com/evzone/fleet-backoffice/internal/db"
	"github.com/evzone/fleet-backoffice/internal/models"
)

var hubs = []string{"Whitefield", "HSR Layout", "Indiranagar", "Koramangala", "Electronic City"}

var evModels = []struct {
	Brand string
	Model string
}{
	{"Tata", "Tigor EV"},
	{"Tata", "Xpres-T"},
	{"MG", "ZS EV"},
	{"Mahindra", "e-Verito"},
	{"BYD", "e6"},
}

func main() {
	count := flag.Int("vehicles", 20, "number of vehicles to seed")
	drop := flag.Bool("drop", false, "drop the vehicles collection first")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client, err := db.ConnectMongoURI(cfg.Mongo.URI)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	ctx := context.Background()
	defer client.Disconnect(ctx)

	database := client.Database(cfg.Mongo.Database)
	vehicles := database.Collection(db.CollVehicles)

	if *drop {
		if err := vehicles.Drop(ctx); err != nil {
			log.Fatalf("failed to drop vehicles: %v", err)
		}
	}

	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	for i := 0; i < *count; i++ {
		spec := evModels[rand.Intn(len(evModels))]
		registration := fmt.Sprintf("KA%02d EV %04d", 1+rand.Intn(60), 1000+i)
		vehicleID := fmt.Sprintf("EVZ-%04d", 1000+i)
		hub := hubs[rand.Intn(len(hubs))]

		var doc bson.M
		if i%2 == 0 {
			// Current camel-case scheme.
			doc = bson.M{
				"registrationNumber": registration,
				"vehicleId":          vehicleID,
				"brand":              spec.Brand,
				"model":              spec.Model,
				"currentHub":         hub,
				"status":             models.VehicleActive,
				"created_at":         time.Now(),
			}
		} else {
			// Legacy snake-case scheme still present in the registry.
			doc = bson.M{
				"registration_number": registration,
				"vehicle_id":          vehicleID,
				"Brand":               spec.Brand,
				"Model":               spec.Model,
				"current_hub":         hub,
				"Status":              models.VehicleActive,
				"created_at":          time.Now(),
			}
		}

		if _, err := vehicles.InsertOne(ctx, doc); err != nil {
			log.WithError(err).WithField("registration", registration).Warn("failed to seed vehicle")
			continue
		}
		log.WithFields(log.Fields{
			"registration": registration,
			"legacy":       i%2 != 0,
		}).Info("seeded vehicle")
	}

	seedAdmin(ctx, database)
}

// seedAdmin creates the default admin account if it does not exist yet.
func seedAdmin(ctx context.Context, database *mongo.Database) {
	users := &db.MongoUserCollection{Collection: database.Collection(db.CollUsers)}
	if _, err := users.FindUserByUsername(ctx, "admin"); err == nil {
		log.Info("admin account already present")
		return
	}

	authService, err := auth.NewService()
	if err != nil {
		log.Fatalf("failed to create auth service: %v", err)
	}
	hash, err := authService.HashPassword("change-me-now")
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	admin := models.User{
		Username:     "admin",
		Email:        "admin@evzone.local",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		EmployeeID:   "EMP-0001",
		FirstName:    "Fleet",
		LastName:     "Admin",
	}
	if err := users.InsertUser(ctx, admin); err != nil {
		log.WithError(err).Warn("failed to seed admin account")
		return
	}
	log.Info("seeded admin account")
}
