package decision

import (
	"context"
	"testing"
)

func TestInMemoryStoreImplementsDefinitionStore(t *testing.T) {
	var _ DefinitionStore = (*InMemoryStore)(nil)
	var _ DefinitionStore = (*PostgresStore)(nil)
}

func TestInMemoryStoreDeployAssignsVersions(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first := &DecisionDefinition{Key: "decision", Table: &DecisionTable{}}
	if err := store.Deploy(ctx, first); err != nil {
		t.Fatalf("Deploy() failed: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("First deployment version = %d, want 1", first.Version)
	}
	if first.ID == "" {
		t.Error("Deploy() should assign an id")
	}

	second := &DecisionDefinition{Key: "decision", Table: &DecisionTable{}}
	if err := store.Deploy(ctx, second); err != nil {
		t.Fatalf("Deploy() failed: %v", err)
	}
	if second.Version != 2 {
		t.Errorf("Second deployment version = %d, want 2", second.Version)
	}
}

// Version sequences are independent per key and per tenant scope.
func TestInMemoryStoreVersionsPerKeyAndTenant(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	deployments := []*DecisionDefinition{
		{Key: "decision", Tenant: NewTenant("tenant1"), Table: &DecisionTable{}},
		{Key: "decision", Tenant: NewTenant("tenant2"), Table: &DecisionTable{}},
		{Key: "decision", Table: &DecisionTable{}},
		{Key: "other", Tenant: NewTenant("tenant1"), Table: &DecisionTable{}},
	}
	for _, def := range deployments {
		if err := store.Deploy(ctx, def); err != nil {
			t.Fatalf("Deploy() failed: %v", err)
		}
		if def.Version != 1 {
			t.Errorf("Deployment for key %q tenant %q version = %d, want 1 (independent sequences)",
				def.Key, def.Tenant.String(), def.Version)
		}
	}
}

func TestInMemoryStoreDeployValidation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.Deploy(ctx, &DecisionDefinition{Table: &DecisionTable{}}); err == nil {
		t.Error("Deploy() without key should fail")
	}
	if err := store.Deploy(ctx, &DecisionDefinition{Key: "decision"}); err == nil {
		t.Error("Deploy() without table should fail")
	}

	def := &DecisionDefinition{ID: "fixed-id", Key: "decision", Table: &DecisionTable{}}
	if err := store.Deploy(ctx, def); err != nil {
		t.Fatalf("Deploy() failed: %v", err)
	}
	dup := &DecisionDefinition{ID: "fixed-id", Key: "decision", Table: &DecisionTable{}}
	if err := store.Deploy(ctx, dup); err == nil {
		t.Error("Deploy() with duplicate id should fail")
	}
}

func TestInMemoryStoreFindFilters(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	tenantless := &DecisionDefinition{Key: "decision", Table: &DecisionTable{}}
	tenant1v1 := &DecisionDefinition{Key: "decision", Tenant: NewTenant("tenant1"), Table: &DecisionTable{}}
	tenant1v2 := &DecisionDefinition{Key: "decision", Tenant: NewTenant("tenant1"), Table: &DecisionTable{}}
	other := &DecisionDefinition{Key: "other", Tenant: NewTenant("tenant1"), Table: &DecisionTable{}}
	for _, def := range []*DecisionDefinition{tenantless, tenant1v1, tenant1v2, other} {
		if err := store.Deploy(ctx, def); err != nil {
			t.Fatalf("Deploy() failed: %v", err)
		}
	}

	testCases := []struct {
		name  string
		query DefinitionQuery
		want  int
	}{
		{"by id", DefinitionQuery{ID: tenant1v1.ID}, 1},
		{"by key any tenant", DefinitionQuery{Key: "decision"}, 3},
		{"by key with tenant", DefinitionQuery{Key: "decision", Tenant: WithTenant("tenant1")}, 2},
		{"by key without tenant", DefinitionQuery{Key: "decision", Tenant: WithoutTenant()}, 1},
		{"by key and version", DefinitionQuery{Key: "decision", Version: 2, Tenant: WithTenant("tenant1")}, 1},
		{"unknown key", DefinitionQuery{Key: "missing"}, 0},
		{"unknown tenant", DefinitionQuery{Key: "decision", Tenant: WithTenant("tenant3")}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defs, err := store.Find(ctx, tc.query)
			if err != nil {
				t.Fatalf("Find() failed: %v", err)
			}
			if len(defs) != tc.want {
				t.Errorf("Find() returned %d definitions, want %d", len(defs), tc.want)
			}
		})
	}
}
