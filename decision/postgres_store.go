package decision

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStore implements DefinitionStore backed by PostgreSQL. The
// decision table of each definition is stored as JSON; tenant-less
// definitions have a NULL tenant_id. The unique constraint on
// (key, tenant_id, version) keeps version assignment race-free.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed definition store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Find returns all definitions matching the query.
func (s *PostgresStore) Find(ctx context.Context, q DefinitionQuery) ([]*DecisionDefinition, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, key, name, version, tenant_id, table_json, created_at
		FROM decision_definitions
		WHERE 1=1`)

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ID != "" {
		query.WriteString(" AND id = " + arg(q.ID))
	}
	if q.Key != "" {
		query.WriteString(" AND key = " + arg(q.Key))
	}
	if q.Version > 0 {
		query.WriteString(" AND version = " + arg(q.Version))
	}
	if tenantID, ok := q.Tenant.TenantID(); ok {
		query.WriteString(" AND tenant_id = " + arg(tenantID))
	} else if q.Tenant.Constrained() {
		query.WriteString(" AND tenant_id IS NULL")
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer rows.Close()

	var defs []*DecisionDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definitions: %w", err)
	}

	return defs, nil
}

// Deploy stores a new definition, assigning an id if none is set and the
// next version within its key and tenant scope.
func (s *PostgresStore) Deploy(ctx context.Context, def *DecisionDefinition) error {
	if def.Key == "" {
		return fmt.Errorf("definition key is required")
	}
	if def.Table == nil {
		return fmt.Errorf("definition has no decision table")
	}
	if def.ID == "" {
		def.ID = uuid.New().String()
	}

	tableJSON, err := json.Marshal(def.Table)
	if err != nil {
		return fmt.Errorf("failed to marshal decision table: %w", err)
	}

	var tenantID sql.NullString
	if def.Tenant.Valid {
		tenantID = sql.NullString{String: def.Tenant.ID, Valid: true}
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO decision_definitions (id, key, name, version, tenant_id, table_json, created_at)
		SELECT $1, $2, $3, COALESCE(MAX(version), 0) + 1, $4, $5, NOW()
		FROM decision_definitions
		WHERE key = $2 AND tenant_id IS NOT DISTINCT FROM $4
		RETURNING version, created_at
	`, def.ID, def.Key, def.Name, tenantID, tableJSON).Scan(&def.Version, &def.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert definition: %w", err)
	}

	return nil
}

func scanDefinition(rows *sql.Rows) (*DecisionDefinition, error) {
	var def DecisionDefinition
	var tenantID sql.NullString
	var tableJSON []byte

	if err := rows.Scan(&def.ID, &def.Key, &def.Name, &def.Version,
		&tenantID, &tableJSON, &def.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan definition: %w", err)
	}

	if tenantID.Valid {
		def.Tenant = NewTenant(tenantID.String)
	}

	var table DecisionTable
	if err := json.Unmarshal(tableJSON, &table); err != nil {
		return nil, fmt.Errorf("invalid decision table for definition %s: %w", def.ID, err)
	}
	def.Table = &table

	return &def, nil
}
