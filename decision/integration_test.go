//go:build integration
// +build integration

package decision_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ruleweave/decisions/decision"

	_ "github.com/lib/pq"
)

// setupTestDB creates a PostgreSQL container and returns a migrated connection
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "decisions_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=test password=test dbname=decisions_test sslmode=disable", host, port.Port())

	// Wait for connection to be available
	var db *sql.DB
	for i := 0; i < 30; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	migrationSQL, err := os.ReadFile(filepath.Join("..", "migrations", "000001_initial_schema.up.sql"))
	if err != nil {
		migrationSQL, err = os.ReadFile(filepath.Join("migrations", "000001_initial_schema.up.sql"))
		if err != nil {
			t.Fatalf("Failed to read migration file: %v", err)
		}
	}

	_, err = db.Exec(string(migrationSQL))
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgresContainer.Terminate(ctx)
	}

	return db, cleanup
}

func statusTable(result string) *decision.DecisionTable {
	return &decision.DecisionTable{
		HitPolicy: decision.HitPolicyUnique,
		Inputs:    []decision.InputClause{{Name: "status"}},
		Outputs:   []decision.OutputClause{{Name: "result"}},
		Rules: []decision.Rule{{
			InputEntries:  []string{`status == "silver"`},
			OutputEntries: []string{fmt.Sprintf("%q", result)},
		}},
	}
}

func TestPostgresStore_DeployAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := decision.NewPostgresStore(db)
	ctx := context.Background()

	def := &decision.DecisionDefinition{
		Key:    "decision",
		Name:   "Decision",
		Tenant: decision.NewTenant("tenant1"),
		Table:  statusTable("ok"),
	}
	if err := store.Deploy(ctx, def); err != nil {
		t.Fatalf("Failed to deploy definition: %v", err)
	}
	if def.Version != 1 {
		t.Errorf("Expected version 1, got %d", def.Version)
	}
	if def.ID == "" {
		t.Error("Expected deployment to assign an id")
	}

	defs, err := store.Find(ctx, decision.DefinitionQuery{ID: def.ID})
	if err != nil {
		t.Fatalf("Failed to find definition by id: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("Expected 1 definition, got %d", len(defs))
	}

	got := defs[0]
	if got.Key != "decision" || got.Name != "Decision" {
		t.Errorf("Round-tripped definition = key %q name %q", got.Key, got.Name)
	}
	if got.Tenant.String() != "tenant1" {
		t.Errorf("Expected tenant1, got %q", got.Tenant.String())
	}
	if got.Table.HitPolicy != decision.HitPolicyUnique || len(got.Table.Rules) != 1 {
		t.Errorf("Decision table did not survive the round trip: %+v", got.Table)
	}
}

func TestPostgresStore_VersionSequences(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := decision.NewPostgresStore(db)
	ctx := context.Background()

	// Versions advance per key within a tenant scope.
	for want := 1; want <= 3; want++ {
		def := &decision.DecisionDefinition{Key: "decision", Tenant: decision.NewTenant("tenant1"), Table: statusTable("ok")}
		if err := store.Deploy(ctx, def); err != nil {
			t.Fatalf("Failed to deploy version %d: %v", want, err)
		}
		if def.Version != want {
			t.Errorf("Expected version %d, got %d", want, def.Version)
		}
	}

	// Other tenants and the tenant-less scope start at 1.
	other := &decision.DecisionDefinition{Key: "decision", Tenant: decision.NewTenant("tenant2"), Table: statusTable("ok")}
	if err := store.Deploy(ctx, other); err != nil {
		t.Fatalf("Failed to deploy for tenant2: %v", err)
	}
	if other.Version != 1 {
		t.Errorf("Expected tenant2 to start at version 1, got %d", other.Version)
	}

	tenantless := &decision.DecisionDefinition{Key: "decision", Table: statusTable("ok")}
	if err := store.Deploy(ctx, tenantless); err != nil {
		t.Fatalf("Failed to deploy tenant-less definition: %v", err)
	}
	if tenantless.Version != 1 {
		t.Errorf("Expected tenant-less scope to start at version 1, got %d", tenantless.Version)
	}
}

func TestPostgresStore_TenantFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := decision.NewPostgresStore(db)
	ctx := context.Background()

	deployments := []*decision.DecisionDefinition{
		{Key: "decision", Tenant: decision.NewTenant("tenant1"), Table: statusTable("a")},
		{Key: "decision", Tenant: decision.NewTenant("tenant2"), Table: statusTable("b")},
		{Key: "decision", Table: statusTable("c")},
	}
	for _, def := range deployments {
		if err := store.Deploy(ctx, def); err != nil {
			t.Fatalf("Failed to deploy: %v", err)
		}
	}

	testCases := []struct {
		name  string
		query decision.DefinitionQuery
		want  int
	}{
		{"any tenant", decision.DefinitionQuery{Key: "decision"}, 3},
		{"exact tenant", decision.DefinitionQuery{Key: "decision", Tenant: decision.WithTenant("tenant1")}, 1},
		{"without tenant", decision.DefinitionQuery{Key: "decision", Tenant: decision.WithoutTenant()}, 1},
		{"unknown tenant", decision.DefinitionQuery{Key: "decision", Tenant: decision.WithTenant("tenant3")}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defs, err := store.Find(ctx, tc.query)
			if err != nil {
				t.Fatalf("Failed to query definitions: %v", err)
			}
			if len(defs) != tc.want {
				t.Errorf("Expected %d definitions, got %d", tc.want, len(defs))
			}
		})
	}
}

func TestPostgresStore_DuplicateID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := decision.NewPostgresStore(db)
	ctx := context.Background()

	def := &decision.DecisionDefinition{ID: "fixed-id", Key: "decision", Table: statusTable("ok")}
	if err := store.Deploy(ctx, def); err != nil {
		t.Fatalf("Failed to deploy: %v", err)
	}

	dup := &decision.DecisionDefinition{ID: "fixed-id", Key: "decision", Table: statusTable("ok")}
	if err := store.Deploy(ctx, dup); err == nil {
		t.Error("Expected error when deploying duplicate id, got nil")
	}
}

func TestServiceWithPostgres_MultiTenantEvaluation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	service := decision.NewService(decision.NewPostgresStore(db), decision.NewCELEvaluator())
	ctx := context.Background()
	variables := map[string]any{"status": "silver"}

	if err := service.Deploy(ctx, &decision.DecisionDefinition{
		Key: "decision", Tenant: decision.NewTenant("tenant1"), Table: statusTable("tenant1-result"),
	}); err != nil {
		t.Fatalf("Failed to deploy for tenant1: %v", err)
	}
	if err := service.Deploy(ctx, &decision.DecisionDefinition{
		Key: "decision", Tenant: decision.NewTenant("tenant2"), Table: statusTable("tenant2-result"),
	}); err != nil {
		t.Fatalf("Failed to deploy for tenant2: %v", err)
	}

	_, err := service.EvaluateByKey(ctx, "decision", decision.AnyTenant(), 0, variables)
	var ambiguous *decision.AmbiguousTenantError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("Expected AmbiguousTenantError, got %v", err)
	}

	result, err := service.EvaluateByKey(ctx, "decision", decision.WithTenant("tenant1"), 0, variables)
	if err != nil {
		t.Fatalf("Failed to evaluate for tenant1: %v", err)
	}
	row, err := result.SingleResult()
	if err != nil {
		t.Fatalf("Failed to get single result: %v", err)
	}
	if row.FirstEntry() != "tenant1-result" {
		t.Errorf("Expected tenant1-result, got %v", row.FirstEntry())
	}
}
