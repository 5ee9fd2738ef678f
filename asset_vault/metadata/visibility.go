package metadata

import (
	"errors"
	"log/slog"

	"brandvault/asset_vault/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisibilityFilter applies platform-level category suppression on top of a
// resolved schema. Suppression is keyed on system categories, so it applies
// uniformly across tenants and is independent of tenant override state.
type VisibilityFilter struct {
	db *gorm.DB
}

func NewVisibilityFilter(db *gorm.DB) *VisibilityFilter {
	return &VisibilityFilter{db: db}
}

// FilterVisibleFields drops fields suppressed for the category's system
// category. A nil category, an unknown category, or a tenant-custom category
// with no system link passes every field through.
func (v *VisibilityFilter) FilterVisibleFields(fields []ResolvedField, categoryId *uuid.UUID) ([]ResolvedField, error) {
	suppressed, err := v.suppressedFields(categoryId)
	if err != nil {
		return nil, err
	}
	if len(suppressed) == 0 {
		return fields, nil
	}

	visible := make([]ResolvedField, 0, len(fields))
	for _, field := range fields {
		if !suppressed[field.Id] {
			visible = append(visible, field)
		}
	}
	return visible, nil
}

// IsFieldVisible reports whether a single field survives category suppression.
// It does not consult the override cascade; a field hidden by an override is
// already absent from the resolver's output.
func (v *VisibilityFilter) IsFieldVisible(fieldId uuid.UUID, categoryId *uuid.UUID) (bool, error) {
	suppressed, err := v.suppressedFields(categoryId)
	if err != nil {
		return false, err
	}
	return !suppressed[fieldId], nil
}

func (v *VisibilityFilter) suppressedFields(categoryId *uuid.UUID) (map[uuid.UUID]bool, error) {
	if categoryId == nil {
		return nil, nil
	}

	category, err := schema.GetCategory(*categoryId, v.db)
	if err != nil {
		if errors.Is(err, schema.ErrCategoryNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if category.SystemCategoryId == nil {
		return nil, nil
	}

	var suppressions []schema.CategorySuppression
	result := v.db.Where("system_category_id = ?", *category.SystemCategoryId).Find(&suppressions)
	if result.Error != nil {
		slog.Error("sql error loading category suppressions", "system_category_id", *category.SystemCategoryId, "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}

	suppressed := make(map[uuid.UUID]bool, len(suppressions))
	for _, row := range suppressions {
		suppressed[row.MetadataFieldId] = true
	}
	return suppressed, nil
}
