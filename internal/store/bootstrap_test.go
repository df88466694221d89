package store

import "testing"

func TestMissingTablesEmptySchema(t *testing.T) {
	missing := missingTables(nil)
	if len(missing) != len(tableOrder) {
		t.Fatalf("missing = %d tables, want all %d", len(missing), len(tableOrder))
	}
	for i, name := range tableOrder {
		if missing[i] != name {
			t.Errorf("missing[%d] = %s, want %s (stable order)", i, missing[i], name)
		}
	}
}

func TestMissingTablesPartialSchema(t *testing.T) {
	existing := []string{"students", "faculty", "admin_users", "schema_migrations"}
	missing := missingTables(existing)

	want := map[string]bool{}
	for _, name := range tableOrder {
		want[name] = true
	}
	want["students"] = false
	want["faculty"] = false
	want["admin_users"] = false

	got := map[string]bool{}
	for _, name := range missing {
		got[name] = true
	}
	for name, expect := range want {
		if got[name] != expect {
			t.Errorf("table %s: missing=%v, want %v", name, got[name], expect)
		}
	}
	if got["schema_migrations"] {
		t.Error("unknown table leaked into the create list")
	}
}

func TestMissingTablesFullSchemaIsIdempotent(t *testing.T) {
	// Simulate a second boot: everything the first pass would create exists.
	first := missingTables(nil)
	if second := missingTables(first); len(second) != 0 {
		t.Errorf("second pass wants to create %v", second)
	}
}

func TestEveryTableHasDDL(t *testing.T) {
	if len(tableDDL) != len(tableOrder) {
		t.Fatalf("tableDDL has %d entries, tableOrder has %d", len(tableDDL), len(tableOrder))
	}
	for _, name := range tableOrder {
		if tableDDL[name] == "" {
			t.Errorf("no DDL for table %s", name)
		}
	}
}
