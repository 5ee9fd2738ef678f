package metadata

import (
	"testing"

	"brandvault/asset_vault/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllPerms struct{}

func (allowAllPerms) EditableFields(actor Actor, tenantId uuid.UUID, fields []ResolvedField) ([]ResolvedField, error) {
	return fields, nil
}

func TestUploadGrouping(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	upload := NewUploadResolver(
		NewSchemaCache(NewResolver(db), nil), NewVisibilityFilter(db), allowAllPerms{},
	)

	scope.addField(t, schema.MetadataField{
		Key: "caption", Label: "Caption", UploadVisible: true, UserEditable: true,
	})
	scope.addField(t, schema.MetadataField{
		Key: "usage", Label: "Usage Rights", UploadVisible: true, UserEditable: true,
		GroupKey: strPtr("usage_rights"),
	})
	scope.addField(t, schema.MetadataField{
		Key: "expiry", Label: "Expiry", UploadVisible: true, UserEditable: true,
		GroupKey: strPtr("usage_rights"),
	})

	groups, err := upload.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"}, Actor{IsAdmin: true})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "general", groups[0].Key)
	assert.Equal(t, "General", groups[0].Label)
	require.Len(t, groups[0].Fields, 1)
	assert.Equal(t, "caption", groups[0].Fields[0].Key)
	assert.False(t, groups[0].Fields[0].Required)

	assert.Equal(t, "usage_rights", groups[1].Key)
	assert.Equal(t, "Usage Rights", groups[1].Label)
	assert.Len(t, groups[1].Fields, 2)
}

func TestUploadExcludesNonUploadFields(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	upload := NewUploadResolver(
		NewSchemaCache(NewResolver(db), nil), NewVisibilityFilter(db), allowAllPerms{},
	)

	scope.addField(t, schema.MetadataField{
		Key: "caption", Label: "Caption", UploadVisible: true, UserEditable: true,
	})
	scope.addField(t, schema.MetadataField{
		Key: "quality", Label: "Quality", Type: schema.FieldTypeRating, UploadVisible: true, UserEditable: true,
	})
	scope.addField(t, schema.MetadataField{
		Key: "ingest_source", Label: "Ingest Source", UploadVisible: true, UserEditable: true, InternalOnly: true,
	})
	scope.addField(t, schema.MetadataField{
		Key: "archived_note", Label: "Archived Note", UploadVisible: false, UserEditable: true,
	})

	groups, err := upload.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"}, Actor{IsAdmin: true})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Fields, 1)
	assert.Equal(t, "caption", groups[0].Fields[0].Key)
}

func TestUploadRespectsUploadHiddenOverride(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)
	upload := NewUploadResolver(
		NewSchemaCache(resolver, nil), NewVisibilityFilter(db), allowAllPerms{},
	)

	// The select field stays canonically visible under the brand but is
	// upload-hidden there, so the upload view omits it while resolve keeps it.
	field := scope.addField(t, schema.MetadataField{
		Key: "photo_type", Label: "Photo Type", Type: schema.FieldTypeSelect,
		UploadVisible: true, Filterable: true, UserEditable: true,
	})
	scope.addOption(t, field.Id, "landscape", 0)
	scope.addOption(t, field.Id, "portrait", 1)

	req := Request{TenantId: scope.tenant.Id, AssetType: "image"}

	fields, err := resolver.Resolve(req)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Len(t, fields[0].Options, 2)

	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, Hidden: true,
	})

	fields, err = resolver.Resolve(req)
	require.NoError(t, err)
	assert.Empty(t, fields)

	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, BrandId: idPtr(scope.brand.Id), UploadHidden: true,
	})

	brandReq := Request{TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), AssetType: "image"}

	fields, err = resolver.Resolve(brandReq)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	groups, err := upload.Resolve(brandReq, Actor{IsAdmin: true})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestUploadOptionsPassedThrough(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	upload := NewUploadResolver(
		NewSchemaCache(NewResolver(db), nil), NewVisibilityFilter(db), allowAllPerms{},
	)

	field := scope.addField(t, schema.MetadataField{
		Key: "color", Label: "Color", Type: schema.FieldTypeSelect, UploadVisible: true, UserEditable: true,
	})
	red := scope.addOption(t, field.Id, "red", 0)
	blue := scope.addOption(t, field.Id, "blue", 1)

	scope.addOptionOverride(t, schema.OptionVisibilityOverride{FieldOptionId: red.Id, Hidden: true})

	groups, err := upload.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"}, Actor{IsAdmin: true})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Fields, 1)
	require.Len(t, groups[0].Fields[0].Options, 1)
	assert.Equal(t, blue.Id, groups[0].Fields[0].Options[0].Id)

	// Hiding the remaining option leaves an empty option list, not a dropped
	// field and no synthetic default.
	scope.addOptionOverride(t, schema.OptionVisibilityOverride{FieldOptionId: blue.Id, Hidden: true})

	groups, err = upload.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"}, Actor{IsAdmin: true})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Fields, 1)
	assert.Empty(t, groups[0].Fields[0].Options)
}

func TestRolePermissionResolver(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	perms := NewRolePermissionResolver(db)

	editor := schema.User{Id: uuid.New(), Username: "editor", Email: "editor@mail.com"}
	viewer := schema.User{Id: uuid.New(), Username: "viewer", Email: "viewer@mail.com"}
	require.NoError(t, db.Create(&editor).Error)
	require.NoError(t, db.Create(&viewer).Error)
	require.NoError(t, db.Create(&schema.TenantUser{TenantId: scope.tenant.Id, UserId: editor.Id, Role: schema.RoleEditor}).Error)
	require.NoError(t, db.Create(&schema.TenantUser{TenantId: scope.tenant.Id, UserId: viewer.Id, Role: schema.RoleViewer}).Error)

	fields := []ResolvedField{
		{Id: uuid.New(), Key: "caption", UserEditable: true},
		{Id: uuid.New(), Key: "checksum", UserEditable: false},
	}

	editable, err := perms.EditableFields(Actor{UserId: editor.Id}, scope.tenant.Id, fields)
	require.NoError(t, err)
	require.Len(t, editable, 1)
	assert.Equal(t, "caption", editable[0].Key)

	editable, err = perms.EditableFields(Actor{UserId: viewer.Id}, scope.tenant.Id, fields)
	require.NoError(t, err)
	assert.Empty(t, editable)

	editable, err = perms.EditableFields(Actor{UserId: uuid.New()}, scope.tenant.Id, fields)
	require.NoError(t, err)
	assert.Empty(t, editable)

	editable, err = perms.EditableFields(Actor{UserId: uuid.New(), IsAdmin: true}, scope.tenant.Id, fields)
	require.NoError(t, err)
	assert.Len(t, editable, 1)
}

func TestTitleCaseKey(t *testing.T) {
	assert.Equal(t, "Usage Rights", titleCaseKey("usage_rights"))
	assert.Equal(t, "Legal Review", titleCaseKey("legal-review"))
	assert.Equal(t, "Seo", titleCaseKey("seo"))
}
