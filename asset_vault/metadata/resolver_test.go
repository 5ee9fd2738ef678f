package metadata

import (
	"testing"

	"brandvault/asset_vault/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(schema.AllModels()...))

	return db
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func strPtr(s string) *string {
	return &s
}

type testScope struct {
	db *gorm.DB

	tenant   schema.Tenant
	brand    schema.Brand
	category schema.Category
}

func newTestScope(t *testing.T, db *gorm.DB) testScope {
	tenant := schema.Tenant{Id: uuid.New(), Name: "acme-" + uuid.NewString()}
	require.NoError(t, db.Create(&tenant).Error)

	brand := schema.Brand{Id: uuid.New(), TenantId: tenant.Id, Name: "north"}
	require.NoError(t, db.Create(&brand).Error)

	category := schema.Category{Id: uuid.New(), TenantId: tenant.Id, BrandId: brand.Id, Name: "banners"}
	require.NoError(t, db.Create(&category).Error)

	return testScope{db: db, tenant: tenant, brand: brand, category: category}
}

func (s *testScope) addField(t *testing.T, field schema.MetadataField) schema.MetadataField {
	if field.Id == uuid.Nil {
		field.Id = uuid.New()
	}
	if field.Type == "" {
		field.Type = schema.FieldTypeText
	}
	if field.AppliesTo == "" {
		field.AppliesTo = schema.AppliesToAll
	}
	require.NoError(t, s.db.Create(&field).Error)
	return field
}

func (s *testScope) addOption(t *testing.T, fieldId uuid.UUID, value string, order int) schema.FieldOption {
	option := schema.FieldOption{
		Id: uuid.New(), MetadataFieldId: fieldId, Value: value, Label: value, DisplayOrder: order,
	}
	require.NoError(t, s.db.Create(&option).Error)
	return option
}

func (s *testScope) addFieldOverride(t *testing.T, override schema.FieldVisibilityOverride) {
	override.Id = uuid.New()
	override.TenantId = s.tenant.Id
	require.NoError(t, s.db.Create(&override).Error)
}

func (s *testScope) addOptionOverride(t *testing.T, override schema.OptionVisibilityOverride) {
	override.Id = uuid.New()
	override.TenantId = s.tenant.Id
	require.NoError(t, s.db.Create(&override).Error)
}

func fieldByKey(fields []ResolvedField, key string) (ResolvedField, bool) {
	for _, field := range fields {
		if field.Key == key {
			return field, true
		}
	}
	return ResolvedField{}, false
}

func TestBaseCatalogDefaults(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	scope.addField(t, schema.MetadataField{
		Key: "caption", Label: "Caption", UploadVisible: true, Filterable: false, UserEditable: true,
	})
	scope.addField(t, schema.MetadataField{
		Key: "usage", Label: "Usage Rights", TenantId: idPtr(scope.tenant.Id),
		UploadVisible: false, Filterable: true,
	})

	fields, err := resolver.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 2)

	caption, ok := fieldByKey(fields, "caption")
	require.True(t, ok)
	assert.True(t, caption.UploadVisible)
	assert.False(t, caption.Filterable)
	assert.True(t, caption.UserEditable)

	usage, ok := fieldByKey(fields, "usage")
	require.True(t, ok)
	assert.False(t, usage.UploadVisible)
	assert.True(t, usage.Filterable)
}

func TestCatalogExcludesOtherAssetTypesAndTenants(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	other := newTestScope(t, db)
	resolver := NewResolver(db)

	scope.addField(t, schema.MetadataField{Key: "everywhere", Label: "Everywhere"})
	scope.addField(t, schema.MetadataField{Key: "video_only", Label: "Video Only", AppliesTo: "video"})
	scope.addField(t, schema.MetadataField{Key: "retired", Label: "Retired", Deprecated: true})
	other.addField(t, schema.MetadataField{
		Key: "private", Label: "Private", TenantId: idPtr(other.tenant.Id),
	})

	fields, err := resolver.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "everywhere", fields[0].Key)

	fields, err = resolver.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "video"})
	require.NoError(t, err)
	assert.Len(t, fields, 2)
}

func TestMostSpecificRowWins(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	field := scope.addField(t, schema.MetadataField{
		Key: "caption", Label: "Caption", UploadVisible: true, Filterable: true,
	})

	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, Hidden: true,
	})
	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, BrandId: idPtr(scope.brand.Id), UploadHidden: true,
	})
	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, BrandId: idPtr(scope.brand.Id), CategoryId: idPtr(scope.category.Id), FilterHidden: true,
	})

	// Tenant tier: hidden, so the field is dropped.
	fields, err := resolver.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"})
	require.NoError(t, err)
	assert.Empty(t, fields)

	// Brand tier beats the tenant row: visible again, upload hidden.
	fields, err = resolver.Resolve(Request{TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.False(t, fields[0].UploadVisible)
	assert.True(t, fields[0].Filterable)

	// Category tier beats both: only the filter flag is hidden.
	fields, err = resolver.Resolve(Request{
		TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), CategoryId: idPtr(scope.category.Id), AssetType: "image",
	})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.True(t, fields[0].UploadVisible)
	assert.False(t, fields[0].Filterable)
}

func TestWinningRowFlagsApplyWholesale(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	field := scope.addField(t, schema.MetadataField{
		Key: "caption", Label: "Caption", UploadVisible: true, Filterable: true,
	})

	// The tenant row hides the field and its filter; the brand row touches
	// nothing. Once the brand row wins, none of the tenant row's flags may
	// leak through.
	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, Hidden: true, FilterHidden: true,
	})
	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, BrandId: idPtr(scope.brand.Id),
	})

	fields, err := resolver.Resolve(Request{TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.True(t, fields[0].UploadVisible)
	assert.True(t, fields[0].Filterable)
}

func TestOverridesForOtherScopesIgnored(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	otherBrand := schema.Brand{Id: uuid.New(), TenantId: scope.tenant.Id, Name: "south"}
	require.NoError(t, db.Create(&otherBrand).Error)

	field := scope.addField(t, schema.MetadataField{Key: "caption", Label: "Caption", UploadVisible: true})

	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, BrandId: idPtr(otherBrand.Id), Hidden: true,
	})

	fields, err := resolver.Resolve(Request{TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 1)

	// A brand-scoped row never applies to a tenant-level request either.
	fields, err = resolver.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 1)
}

func TestOptionCascadeIndependentOfField(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	field := scope.addField(t, schema.MetadataField{
		Key: "color", Label: "Color", Type: schema.FieldTypeSelect, UploadVisible: true,
	})
	red := scope.addOption(t, field.Id, "red", 0)
	blue := scope.addOption(t, field.Id, "blue", 1)

	// The field has a brand-tier row, the option only a tenant-tier row. Each
	// cascade selects its own winner.
	scope.addFieldOverride(t, schema.FieldVisibilityOverride{
		MetadataFieldId: field.Id, BrandId: idPtr(scope.brand.Id), UploadHidden: true,
	})
	scope.addOptionOverride(t, schema.OptionVisibilityOverride{
		FieldOptionId: red.Id, Hidden: true,
	})

	fields, err := resolver.Resolve(Request{TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Len(t, fields[0].Options, 1)
	assert.Equal(t, blue.Id, fields[0].Options[0].Id)

	// Hiding every option leaves the field with an empty option list, which
	// is valid output.
	scope.addOptionOverride(t, schema.OptionVisibilityOverride{
		FieldOptionId: blue.Id, Hidden: true,
	})

	fields, err = resolver.Resolve(Request{TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), AssetType: "image"})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Empty(t, fields[0].Options)
}

func TestCategoryMustBelongToBrand(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	otherBrand := schema.Brand{Id: uuid.New(), TenantId: scope.tenant.Id, Name: "south"}
	require.NoError(t, db.Create(&otherBrand).Error)

	scope.addField(t, schema.MetadataField{Key: "caption", Label: "Caption"})

	_, err := resolver.Resolve(Request{
		TenantId: scope.tenant.Id, BrandId: idPtr(otherBrand.Id), CategoryId: idPtr(scope.category.Id), AssetType: "image",
	})
	assert.ErrorIs(t, err, ErrCategoryBrandMismatch)

	_, err = resolver.Resolve(Request{
		TenantId: scope.tenant.Id, CategoryId: idPtr(scope.category.Id), AssetType: "image",
	})
	assert.ErrorIs(t, err, ErrCategoryBrandMismatch)

	// An unknown category contributes no overrides but is not a contract
	// violation.
	unknown := uuid.New()
	fields, err := resolver.Resolve(Request{
		TenantId: scope.tenant.Id, BrandId: idPtr(scope.brand.Id), CategoryId: idPtr(unknown), AssetType: "image",
	})
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestResolutionIsDeterministic(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	field := scope.addField(t, schema.MetadataField{
		Key: "zebra", Label: "Zebra", Type: schema.FieldTypeSelect, UploadVisible: true,
	})
	scope.addOption(t, field.Id, "third", 2)
	scope.addOption(t, field.Id, "first", 0)
	scope.addOption(t, field.Id, "second", 1)
	scope.addField(t, schema.MetadataField{Key: "alpha", Label: "Alpha"})
	scope.addField(t, schema.MetadataField{Key: "mango", Label: "Mango"})

	req := Request{TenantId: scope.tenant.Id, AssetType: "image"}

	first, err := resolver.Resolve(req)
	require.NoError(t, err)
	second, err := resolver.Resolve(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	assert.Equal(t, "alpha", first[0].Key)
	assert.Equal(t, "mango", first[1].Key)
	assert.Equal(t, "zebra", first[2].Key)

	zebra := first[2]
	require.Len(t, zebra.Options, 3)
	assert.Equal(t, "first", zebra.Options[0].Value)
	assert.Equal(t, "second", zebra.Options[1].Value)
	assert.Equal(t, "third", zebra.Options[2].Value)
}

func TestEmptyCatalog(t *testing.T) {
	db := setupTestDb(t)
	scope := newTestScope(t, db)
	resolver := NewResolver(db)

	fields, err := resolver.Resolve(Request{TenantId: scope.tenant.Id, AssetType: "image"})
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestOverrideRankSelection(t *testing.T) {
	brandId := uuid.New()
	categoryId := uuid.New()
	otherBrand := uuid.New()

	tenantRow := OverrideScope{}
	brandRow := OverrideScope{BrandId: &brandId}
	categoryRow := OverrideScope{BrandId: &brandId, CategoryId: &categoryId}
	otherBrandRow := OverrideScope{BrandId: &otherBrand}
	malformedRow := OverrideScope{CategoryId: &categoryId}

	scopes := []OverrideScope{tenantRow, brandRow, categoryRow, otherBrandRow, malformedRow}

	best, ok := selectOverride(scopes, &brandId, &categoryId)
	require.True(t, ok)
	assert.Equal(t, 2, best)

	best, ok = selectOverride(scopes, &brandId, nil)
	require.True(t, ok)
	assert.Equal(t, 1, best)

	best, ok = selectOverride(scopes, nil, nil)
	require.True(t, ok)
	assert.Equal(t, 0, best)

	_, ok = selectOverride([]OverrideScope{otherBrandRow, malformedRow}, &brandId, &categoryId)
	assert.False(t, ok)
}
