package tests

import (
	"errors"
	"strings"
	"testing"
)

func TestFieldCreationAndListing(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	tenantAdmin, err := env.newUser("tadmin")
	if err != nil {
		t.Fatal(err)
	}
	editor, err := env.newUser("editor")
	if err != nil {
		t.Fatal(err)
	}

	tenantId, err := admin.createTenant("acme")
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.assignRole(tenantId, tenantAdmin.userId, "admin"); err != nil {
		t.Fatal(err)
	}
	if err := admin.assignRole(tenantId, editor.userId, "editor"); err != nil {
		t.Fatal(err)
	}

	if _, err := editor.createField(tenantId, fieldArgs{Key: "caption", Label: "Caption", Type: "text"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("editors cannot create fields: %v", err)
	}

	_, err = admin.createSystemField(fieldArgs{
		Key: "photo_type", Label: "Photo Type", Type: "select", Filterable: true,
		Options: []map[string]interface{}{
			{"value": "landscape", "display_order": 0},
			{"value": "portrait", "display_order": 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tenantAdmin.createSystemField(fieldArgs{Key: "curated", Label: "Curated", Type: "text"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("only platform admins create system fields: %v", err)
	}

	fieldId, err := tenantAdmin.createField(tenantId, fieldArgs{Key: "campaign", Label: "Campaign", Type: "text"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tenantAdmin.createField(tenantId, fieldArgs{Key: "bad", Label: "Bad", Type: "checkbox"}); err == nil {
		t.Fatal("invalid field type should be rejected")
	}
	if _, err := tenantAdmin.createField(tenantId, fieldArgs{
		Key: "plain", Label: "Plain", Type: "text",
		Options: []map[string]interface{}{{"value": "x"}},
	}); err == nil {
		t.Fatal("options on a non-select field should be rejected")
	}

	fields, err := editor.listFields(tenantId)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected system + tenant field, got %v", fields)
	}
	if fields[0].Key != "campaign" || fields[1].Key != "photo_type" {
		t.Fatalf("fields not sorted by key: %v", fields)
	}
	if fields[0].IsSystem || !fields[1].IsSystem {
		t.Fatalf("invalid system flags: %v", fields)
	}
	if len(fields[1].Options) != 2 {
		t.Fatalf("missing options: %v", fields[1])
	}

	if err := tenantAdmin.deprecateField(tenantId, fieldId); err != nil {
		t.Fatal(err)
	}

	fields, err = editor.listFields(tenantId)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 1 || fields[0].Key != "photo_type" {
		t.Fatalf("deprecated fields should be excluded by default: %v", fields)
	}

	resolved, err := editor.resolveSchema(tenantId, nil, nil, "image")
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) != 1 || resolved[0].Key != "photo_type" {
		t.Fatalf("deprecated fields should not resolve: %v", resolved)
	}
}

func TestFieldOwnership(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	tenantA, err := admin.createTenant("acme")
	if err != nil {
		t.Fatal(err)
	}
	tenantB, err := admin.createTenant("globex")
	if err != nil {
		t.Fatal(err)
	}

	fieldId, err := admin.createField(tenantA, fieldArgs{Key: "campaign", Label: "Campaign", Type: "select"})
	if err != nil {
		t.Fatal(err)
	}

	// Tenant B cannot mutate tenant A's field.
	if _, err := admin.addOption(tenantB, fieldId, "summer", 0); err == nil {
		t.Fatal("cross-tenant option creation should fail")
	}
	if err := admin.deprecateField(tenantB, fieldId); err == nil {
		t.Fatal("cross-tenant deprecation should fail")
	}

	systemFieldId, err := admin.createSystemField(fieldArgs{Key: "photo_type", Label: "Photo Type", Type: "select"})
	if err != nil {
		t.Fatal(err)
	}

	// Tenants cannot mutate system field definitions through tenant routes.
	if err := admin.deprecateField(tenantA, systemFieldId); err == nil {
		t.Fatal("tenants cannot deprecate system fields")
	}

	// But a tenant may hide a system field for itself with an override.
	if err := admin.setFieldOverride(tenantA, systemFieldId, overrideArgs{Hidden: true}); err != nil {
		t.Fatal(err)
	}

	resolved, err := admin.resolveSchema(tenantA, nil, nil, "image")
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range resolved {
		if field.Key == "photo_type" {
			t.Fatal("hidden system field should not resolve for tenant A")
		}
	}

	resolved, err = admin.resolveSchema(tenantB, nil, nil, "image")
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) != 1 || resolved[0].Key != "photo_type" {
		t.Fatalf("tenant B should still see the system field: %v", resolved)
	}
}

func TestPlanFieldLimit(t *testing.T) {
	env := setupTestEnvWithPlan(t, testPlanVerifier(t, "2"))

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	tenantId, err := admin.createTenant("acme")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := admin.createField(tenantId, fieldArgs{Key: "one", Label: "One", Type: "text"}); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.createField(tenantId, fieldArgs{Key: "two", Label: "Two", Type: "text"}); err != nil {
		t.Fatal(err)
	}

	_, err = admin.createField(tenantId, fieldArgs{Key: "three", Label: "Three", Type: "text"})
	if err == nil || !strings.Contains(err.Error(), "custom field limit") {
		t.Fatalf("plan limit should reject the third field: %v", err)
	}

	// Deprecated fields do not count against the limit.
	fields, err := admin.listFields(tenantId)
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.deprecateField(tenantId, fields[0].Id.String()); err != nil {
		t.Fatal(err)
	}

	if _, err := admin.createField(tenantId, fieldArgs{Key: "three", Label: "Three", Type: "text"}); err != nil {
		t.Fatal(err)
	}
}

func TestFieldUpdate(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	tenantId, err := admin.createTenant("acme")
	if err != nil {
		t.Fatal(err)
	}

	fieldId, err := admin.createField(tenantId, fieldArgs{Key: "usage_notes", Label: "Usage Notes", Type: "textarea"})
	if err != nil {
		t.Fatal(err)
	}

	err = admin.updateField(tenantId, fieldId, map[string]interface{}{
		"label": "Usage Guidance", "filterable": true, "group_key": "usage_rights",
	})
	if err != nil {
		t.Fatal(err)
	}

	fields, err := admin.listFields(tenantId)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Label != "Usage Guidance" || !fields[0].Filterable {
		t.Fatalf("update was not applied: %+v", fields[0])
	}
	if fields[0].GroupKey == nil || *fields[0].GroupKey != "usage_rights" {
		t.Fatal("group key should be updated")
	}

	// Key and type are not part of the update surface; an empty label is
	// rejected rather than applied.
	err = admin.updateField(tenantId, fieldId, map[string]interface{}{"label": ""})
	if err == nil {
		t.Fatal("empty label should be rejected")
	}

	// Updated flags flow through resolution on the next request.
	resolved, err := admin.resolveSchema(tenantId, nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) != 1 || resolved[0].Label != "Usage Guidance" || !resolved[0].Filterable {
		t.Fatalf("resolved schema should reflect the update: %+v", resolved)
	}

	// Tenants cannot update system field definitions.
	systemFieldId, err := admin.createSystemField(fieldArgs{Key: "alt_text", Label: "Alt Text", Type: "text"})
	if err != nil {
		t.Fatal(err)
	}
	err = admin.updateField(tenantId, systemFieldId, map[string]interface{}{"label": "Renamed"})
	if err == nil {
		t.Fatal("tenant update of a system field should be rejected")
	}
}
