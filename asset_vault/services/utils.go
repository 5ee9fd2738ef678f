package services

import (
	"errors"
	"log/slog"
	"net/http"

	"brandvault/asset_vault/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

func checkTenantExists(txn *gorm.DB, tenantId uuid.UUID) error {
	if _, err := schema.GetTenant(tenantId, txn); err != nil {
		if errors.Is(err, schema.ErrTenantNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func checkUserExists(txn *gorm.DB, userId uuid.UUID) error {
	if _, err := schema.GetUser(userId, txn); err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func getBrandInTenant(txn *gorm.DB, tenantId, brandId uuid.UUID) (schema.Brand, error) {
	brand, err := schema.GetBrand(brandId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrBrandNotFound) {
			return brand, CodedError(err, http.StatusNotFound)
		}
		return brand, CodedError(err, http.StatusInternalServerError)
	}
	if brand.TenantId != tenantId {
		return brand, CodedError(errors.New("brand does not belong to tenant"), http.StatusUnprocessableEntity)
	}
	return brand, nil
}

func getCategoryInTenant(txn *gorm.DB, tenantId, categoryId uuid.UUID) (schema.Category, error) {
	category, err := schema.GetCategory(categoryId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrCategoryNotFound) {
			return category, CodedError(err, http.StatusNotFound)
		}
		return category, CodedError(err, http.StatusInternalServerError)
	}
	if category.TenantId != tenantId {
		return category, CodedError(errors.New("category does not belong to tenant"), http.StatusUnprocessableEntity)
	}
	return category, nil
}

// checkOverrideScope validates the (brand?, category?) scope of an override
// row: both ids must belong to the tenant and the category must belong to the
// brand (a category-scoped row always carries its brand).
func checkOverrideScope(txn *gorm.DB, tenantId uuid.UUID, brandId, categoryId *uuid.UUID) error {
	if categoryId != nil && brandId == nil {
		return CodedError(errors.New("an override scoped to a category must also specify the category's brand"), http.StatusUnprocessableEntity)
	}

	if brandId != nil {
		if _, err := getBrandInTenant(txn, tenantId, *brandId); err != nil {
			return err
		}
	}

	if categoryId != nil {
		category, err := getCategoryInTenant(txn, tenantId, *categoryId)
		if err != nil {
			return err
		}
		if category.BrandId != *brandId {
			return CodedError(errors.New("category does not belong to the given brand"), http.StatusUnprocessableEntity)
		}
	}

	return nil
}
