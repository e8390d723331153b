//go:build integration

package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// start runs req and registers its termination with t.Cleanup.  It returns
// host:port of the first exposed port.
func start(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate %s: %v", req.Image, err)
		}
	})
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get host of %s: %v", req.Image, err)
	}
	port, err := c.MappedPort(ctx, req.ExposedPorts[0])
	if err != nil {
		t.Fatalf("Failed to get port of %s: %v", req.Image, err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

// StartMySQL starts mysql:8.0 with an empty "leads" database and returns a
// DSN for it.
func StartMySQL(t *testing.T) string {
	t.Helper()
	addr := start(t, testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "root",
			"MYSQL_DATABASE":      "leads",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(3 * time.Minute),
	})
	return fmt.Sprintf("root:root@tcp(%s)/leads?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true", addr)
}

// StartRedis starts redis:7-alpine and returns its address.
func StartRedis(t *testing.T) string {
	t.Helper()
	return start(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
	})
}

// StartMongo starts mongo:7 and returns a connection URI.
func StartMongo(t *testing.T) string {
	t.Helper()
	addr := start(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
	})
	return "mongodb://" + addr
}
