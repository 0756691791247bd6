package testhelpers

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"natours/internal/models"
	"natours/internal/repositories"
	"natours/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestDB holds a throwaway database for one test run
type TestDB struct {
	Client  *mongo.Client
	DB      *mongo.Database
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL and creates a uniquely named
// database. Tests are skipped when no test server is configured.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	uri := os.Getenv("TEST_DATABASE_URL")
	if uri == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	client, err := database.ConnectMongo(context.Background(), uri)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	name := "natours_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	db := client.Database(name)

	return &TestDB{
		Client: client,
		DB:     db,
		Cleanup: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := db.Drop(ctx)
			database.DisconnectMongo(client)
			return err
		},
	}
}

// SetupTestUser stores an active user with the given role and password
func SetupTestUser(t *testing.T, db *TestDB, role models.Role, password string) *models.User {
	t.Helper()

	user := &models.User{
		Name:  "Test " + string(role),
		Email: string(role) + "-" + uuid.NewString()[:8] + "@example.com",
		Role:  role,
	}
	if err := user.SetPassword(password, password); err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	created, err := repositories.NewUserRepo(db.DB).Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return created
}

// SetupTestTour stores a minimal valid tour led by the given guides
func SetupTestTour(t *testing.T, db *TestDB, name string, guides ...primitive.ObjectID) *models.Tour {
	t.Helper()

	tour := &models.Tour{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   models.DifficultyEasy,
		Price:        497,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
		StartDates:   []time.Time{time.Date(2021, time.April, 25, 9, 0, 0, 0, time.UTC)},
		GuideIDs:     guides,
	}

	created, err := repositories.NewTourRepo(db.DB).Create(context.Background(), tour)
	if err != nil {
		t.Fatalf("Failed to create test tour: %v", err)
	}
	return created
}
