package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrTenantUserNotFound     = errors.New("tenant membership not found")
	ErrBrandNotFound          = errors.New("brand not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrSystemCategoryNotFound = errors.New("system category not found")
	ErrFieldNotFound          = errors.New("metadata field not found")
	ErrOptionNotFound         = errors.New("field option not found")
	ErrDbAccessFailed         = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetTenant(tenantId uuid.UUID, db *gorm.DB) (Tenant, error) {
	var tenant Tenant

	result := db.First(&tenant, "id = ?", tenantId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tenant, ErrTenantNotFound
		}
		slog.Error("sql error in get tenant", "tenant_id", tenantId, "error", result.Error)
		return tenant, ErrDbAccessFailed
	}

	return tenant, nil
}

func GetTenantUser(tenantId, userId uuid.UUID, db *gorm.DB) (TenantUser, error) {
	var member TenantUser

	result := db.First(&member, "tenant_id = ? and user_id = ?", tenantId, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return member, ErrTenantUserNotFound
		}
		slog.Error("sql error in get tenant user", "tenant_id", tenantId, "user_id", userId, "error", result.Error)
		return member, ErrDbAccessFailed
	}

	return member, nil
}

func GetBrand(brandId uuid.UUID, db *gorm.DB) (Brand, error) {
	var brand Brand

	result := db.First(&brand, "id = ?", brandId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return brand, ErrBrandNotFound
		}
		slog.Error("sql error in get brand", "brand_id", brandId, "error", result.Error)
		return brand, ErrDbAccessFailed
	}

	return brand, nil
}

func GetCategory(categoryId uuid.UUID, db *gorm.DB) (Category, error) {
	var category Category

	result := db.First(&category, "id = ?", categoryId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return category, ErrCategoryNotFound
		}
		slog.Error("sql error in get category", "category_id", categoryId, "error", result.Error)
		return category, ErrDbAccessFailed
	}

	return category, nil
}

func GetSystemCategory(systemCategoryId uuid.UUID, db *gorm.DB) (SystemCategory, error) {
	var systemCategory SystemCategory

	result := db.First(&systemCategory, "id = ?", systemCategoryId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return systemCategory, ErrSystemCategoryNotFound
		}
		slog.Error("sql error in get system category", "system_category_id", systemCategoryId, "error", result.Error)
		return systemCategory, ErrDbAccessFailed
	}

	return systemCategory, nil
}

func GetField(fieldId uuid.UUID, db *gorm.DB, loadOptions bool) (MetadataField, error) {
	var field MetadataField

	query := db
	if loadOptions {
		query = query.Preload("Options")
	}

	result := query.First(&field, "id = ?", fieldId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return field, ErrFieldNotFound
		}
		slog.Error("sql error in get field", "field_id", fieldId, "error", result.Error)
		return field, ErrDbAccessFailed
	}

	return field, nil
}

func GetOption(optionId uuid.UUID, db *gorm.DB) (FieldOption, error) {
	var option FieldOption

	result := db.Preload("Field").First(&option, "id = ?", optionId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return option, ErrOptionNotFound
		}
		slog.Error("sql error in get option", "option_id", optionId, "error", result.Error)
		return option, ErrDbAccessFailed
	}

	return option, nil
}

// AllModels lists every model for AutoMigrate and the test setup.
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{}, &User{}, &TenantUser{}, &Brand{}, &SystemCategory{}, &Category{},
		&MetadataField{}, &FieldOption{},
		&FieldVisibilityOverride{}, &OptionVisibilityOverride{}, &CategorySuppression{},
	}
}
