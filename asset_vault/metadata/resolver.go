package metadata

import (
	"errors"
	"log/slog"
	"sort"

	"brandvault/asset_vault/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrCategoryBrandMismatch is returned when the requested category does not
	// belong to the requested brand. Callers are expected to validate the pair
	// before resolving; this is a programming error, not a user-facing state.
	ErrCategoryBrandMismatch = errors.New("category does not belong to the given brand")
)

// Request identifies the context a schema is resolved for. BrandId and
// CategoryId are optional; CategoryId requires BrandId.
type Request struct {
	TenantId   uuid.UUID
	BrandId    *uuid.UUID
	CategoryId *uuid.UUID
	AssetType  string
}

// ResolvedOption is an option that survived its visibility cascade.
type ResolvedOption struct {
	Id           uuid.UUID `json:"id"`
	Value        string    `json:"value"`
	Label        string    `json:"label"`
	DisplayOrder int       `json:"display_order"`
}

// ResolvedField is a field that survived its visibility cascade, carrying the
// effective flags for the requested context. Every emitted field is visible;
// hidden fields are dropped rather than flagged.
type ResolvedField struct {
	Id    uuid.UUID `json:"id"`
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Type  string    `json:"type"`

	UploadVisible bool `json:"upload_visible"`
	Filterable    bool `json:"filterable"`
	UserEditable  bool `json:"user_editable"`
	InternalOnly  bool `json:"internal_only"`

	GroupKey *string `json:"group_key"`

	Options []ResolvedOption `json:"options"`
}

// Resolver computes the effective metadata schema for a (tenant, brand?,
// category?, asset-type) context by cascading sparse visibility overrides
// over the field/option catalog. It performs no writes; caching sits on top
// (see SchemaCache).
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

func (r *Resolver) Resolve(req Request) ([]ResolvedField, error) {
	if err := r.checkCategoryBrand(req); err != nil {
		return nil, err
	}

	fields, err := r.catalogFields(req)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return []ResolvedField{}, nil
	}

	fieldOverrides, optionOverrides, err := r.tenantOverrides(req.TenantId, fields)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedField, 0, len(fields))
	for _, field := range fields {
		entry, visible := resolveField(&field, fieldOverrides[field.Id], optionOverrides, req)
		if visible {
			resolved = append(resolved, entry)
		}
	}

	// Catalog query order is not guaranteed to be stable across backends, and
	// resolution must be deterministic for identical inputs.
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Key < resolved[j].Key })

	return resolved, nil
}

// checkCategoryBrand enforces the caller contract that a category always
// implies its brand. An unknown category id is not an error: the scope simply
// contributes no overrides.
func (r *Resolver) checkCategoryBrand(req Request) error {
	if req.CategoryId == nil {
		return nil
	}

	category, err := schema.GetCategory(*req.CategoryId, r.db)
	if err != nil {
		if errors.Is(err, schema.ErrCategoryNotFound) {
			return nil
		}
		return err
	}

	if req.BrandId == nil || category.BrandId != *req.BrandId {
		return ErrCategoryBrandMismatch
	}
	return nil
}

func (r *Resolver) catalogFields(req Request) ([]schema.MetadataField, error) {
	var fields []schema.MetadataField
	result := r.db.
		Preload("Options").
		Where("applies_to IN ?", []string{req.AssetType, schema.AppliesToAll}).
		Where("tenant_id IS NULL OR tenant_id = ?", req.TenantId).
		Where("deprecated = ?", false).
		Find(&fields)
	if result.Error != nil {
		slog.Error("sql error loading field catalog", "tenant_id", req.TenantId, "asset_type", req.AssetType, "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}
	return fields, nil
}

// tenantOverrides loads every override row the tenant has for the candidate
// fields and their options, grouped by field id and option id. Rows for other
// brands/categories are included; the cascade discards non-applicable rows.
func (r *Resolver) tenantOverrides(
	tenantId uuid.UUID, fields []schema.MetadataField,
) (map[uuid.UUID][]schema.FieldVisibilityOverride, map[uuid.UUID][]schema.OptionVisibilityOverride, error) {
	fieldIds := make([]uuid.UUID, 0, len(fields))
	optionIds := make([]uuid.UUID, 0)
	for _, field := range fields {
		fieldIds = append(fieldIds, field.Id)
		for _, option := range field.Options {
			optionIds = append(optionIds, option.Id)
		}
	}

	var fieldRows []schema.FieldVisibilityOverride
	result := r.db.Where("tenant_id = ? AND metadata_field_id IN ?", tenantId, fieldIds).Find(&fieldRows)
	if result.Error != nil {
		slog.Error("sql error loading field overrides", "tenant_id", tenantId, "error", result.Error)
		return nil, nil, schema.ErrDbAccessFailed
	}

	fieldOverrides := make(map[uuid.UUID][]schema.FieldVisibilityOverride)
	for _, row := range fieldRows {
		fieldOverrides[row.MetadataFieldId] = append(fieldOverrides[row.MetadataFieldId], row)
	}

	optionOverrides := make(map[uuid.UUID][]schema.OptionVisibilityOverride)
	if len(optionIds) > 0 {
		var optionRows []schema.OptionVisibilityOverride
		result := r.db.Where("tenant_id = ? AND field_option_id IN ?", tenantId, optionIds).Find(&optionRows)
		if result.Error != nil {
			slog.Error("sql error loading option overrides", "tenant_id", tenantId, "error", result.Error)
			return nil, nil, schema.ErrDbAccessFailed
		}
		for _, row := range optionRows {
			optionOverrides[row.FieldOptionId] = append(optionOverrides[row.FieldOptionId], row)
		}
	}

	return fieldOverrides, optionOverrides, nil
}

// resolveField applies the field cascade and, if the field stays visible, the
// option cascade for each of its options. The second return is false when the
// field is hidden in this context.
func resolveField(
	field *schema.MetadataField,
	overrides []schema.FieldVisibilityOverride,
	optionOverrides map[uuid.UUID][]schema.OptionVisibilityOverride,
	req Request,
) (ResolvedField, bool) {
	visible := true
	uploadVisible := field.UploadVisible
	filterable := field.Filterable

	scopes := make([]OverrideScope, len(overrides))
	for i, row := range overrides {
		scopes[i] = OverrideScope{BrandId: row.BrandId, CategoryId: row.CategoryId}
	}

	if best, ok := selectOverride(scopes, req.BrandId, req.CategoryId); ok {
		// The winning row's flags apply wholesale. Less specific rows are not
		// consulted for any sub-flag.
		row := overrides[best]
		visible = !row.Hidden
		uploadVisible = field.UploadVisible && !row.UploadHidden
		filterable = field.Filterable && !row.FilterHidden
	}

	if !visible {
		return ResolvedField{}, false
	}

	return ResolvedField{
		Id:            field.Id,
		Key:           field.Key,
		Label:         field.Label,
		Type:          field.Type,
		UploadVisible: uploadVisible,
		Filterable:    filterable,
		UserEditable:  field.UserEditable,
		InternalOnly:  field.InternalOnly,
		GroupKey:      field.GroupKey,
		Options:       resolveOptions(field.Options, optionOverrides, req),
	}, true
}

// resolveOptions runs the option cascade independently of the field cascade. A
// field may legitimately end up with zero visible options.
func resolveOptions(
	options []schema.FieldOption,
	optionOverrides map[uuid.UUID][]schema.OptionVisibilityOverride,
	req Request,
) []ResolvedOption {
	resolved := make([]ResolvedOption, 0, len(options))
	for _, option := range options {
		overrides := optionOverrides[option.Id]

		scopes := make([]OverrideScope, len(overrides))
		for i, row := range overrides {
			scopes[i] = OverrideScope{BrandId: row.BrandId, CategoryId: row.CategoryId}
		}

		if best, ok := selectOverride(scopes, req.BrandId, req.CategoryId); ok && overrides[best].Hidden {
			continue
		}

		resolved = append(resolved, ResolvedOption{
			Id:           option.Id,
			Value:        option.Value,
			Label:        option.Label,
			DisplayOrder: option.DisplayOrder,
		})
	}

	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].DisplayOrder != resolved[j].DisplayOrder {
			return resolved[i].DisplayOrder < resolved[j].DisplayOrder
		}
		return resolved[i].Value < resolved[j].Value
	})

	return resolved
}
