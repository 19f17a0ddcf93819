//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"detailbook/pkg/client"
)

const (
	DefaultMongoURI           = "mongodb://localhost:27017"
	DefaultDatabaseName       = "detailbook_test"
	ConnectionTimeout         = 10 * time.Second
	DefaultHealthCheckTimeout = 30 * time.Second
)

// TestEnv points at a running bookings service and the database it uses.
// The migrate job is expected to have run against that database, and the
// service should run with RATE_LIMIT_REQUESTS raised for the suite.
type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

func NewTestEnv() *TestEnv {
	serverPort := getEnv("TEST_SERVER_PORT", "8080")
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    getEnv("TEST_SERVER_URL", fmt.Sprintf("http://localhost:%s", serverPort)),
	}
}

func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.BookingClient) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)

	c := client.NewBookingClient(e.ServerURL)
	if err := c.HTTP().WaitForHealthy(context.Background(), DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("bookings service not ready: %v", err)
	}
	return mongo, c
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
