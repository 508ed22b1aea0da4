// SPDX-License-Identifier: Apache-2.0

// Package testutils provides the shared Postgres test-container harness
// every package's integration tests build on, adapted from the teacher's
// pkg/testutils/util.go: one container per test binary (SharedTestMain),
// one throwaway database per test (setupTestDatabase).
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ZakSingh/pgmg/pkg/state"
)

const defaultPostgresVersion = "16.3"

// CatalogSchema is the schema pgmg's state catalog lives in during tests.
const CatalogSchema = "pgmg"

var tConnStr string

// SharedTestMain starts one Postgres container for every test in a package.
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}

	os.Exit(exitCode)
}

func randomDBName() string {
	const length = 15
	const charset = "abcdefghijklmnopqrstuvwxyz"

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))] // #nosec G404
	}

	return "testdb_" + string(b)
}

// setupTestDatabase creates a fresh database in the shared container and
// returns a connection to it, its connection string, and its name.
func setupTestDatabase(t *testing.T) (*sql.DB, string, string) {
	t.Helper()
	ctx := context.Background()

	tDB, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := tDB.Close(); err != nil {
			t.Fatalf("failed to close admin connection: %v", err)
		}
	})

	dbName := randomDBName()
	if _, err := tDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))); err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + dbName
	connStr := u.String()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("failed to close test connection: %v", err)
		}
	})

	return db, connStr, dbName
}

// WithConnectionToContainer hands the test a bare connection to a fresh
// database in the shared container.
func WithConnectionToContainer(t *testing.T, fn func(db *sql.DB, connStr string)) {
	t.Helper()
	db, connStr, _ := setupTestDatabase(t)
	fn(db, connStr)
}

// WithStateAndConnectionToContainer hands the test an initialized State
// bound to CatalogSchema plus the underlying connection.
func WithStateAndConnectionToContainer(t *testing.T, fn func(st *state.State, db *sql.DB)) {
	t.Helper()
	ctx := context.Background()

	db, _, _ := setupTestDatabase(t)

	st := state.New(db, CatalogSchema)
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}

	fn(st, db)
}

// WithUninitializedState hands the test a State that has not had Init
// called yet, for testing first-run behavior.
func WithUninitializedState(t *testing.T, fn func(st *state.State, db *sql.DB)) {
	t.Helper()
	db, _, _ := setupTestDatabase(t)
	fn(state.New(db, CatalogSchema), db)
}
