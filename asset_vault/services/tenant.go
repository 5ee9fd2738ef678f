package services

import (
	"errors"
	"fmt"
	"net/http"

	"brandvault/asset_vault/auth"
	"brandvault/asset_vault/metadata"
	"brandvault/asset_vault/schema"
	"brandvault/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	cache    *metadata.SchemaCache
}

func (s *TenantService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Group(func(r chi.Router) {
		r.Use(auth.AdminOnly(s.db))

		r.Post("/create", s.Create)
		r.Get("/list", s.List)
		r.Post("/system-categories", s.CreateSystemCategory)
	})

	r.Get("/system-categories", s.ListSystemCategories)

	r.Route("/{tenant_id}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.TenantRoleOnly(s.db, schema.RoleViewer))

			r.Get("/", s.Info)
			r.Get("/brands", s.ListBrands)
			r.Get("/brands/{brand_id}/categories", s.ListCategories)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.TenantRoleOnly(s.db, schema.RoleAdmin))

			r.Post("/users/{user_id}", s.AssignRole)
			r.Delete("/users/{user_id}", s.RemoveUser)
			r.Post("/brands", s.CreateBrand)
			r.Post("/brands/{brand_id}/categories", s.CreateCategory)
			r.Post("/categories/{category_id}/link", s.LinkSystemCategory)
		})
	})

	return r
}

type createTenantRequest struct {
	Name    string `json:"name"`
	PlanKey string `json:"plan_key"`
}

type createTenantResponse struct {
	TenantId uuid.UUID `json:"tenant_id"`
}

func (s *TenantService) Create(w http.ResponseWriter, r *http.Request) {
	var params createTenantRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "tenant name must be specified", http.StatusUnprocessableEntity)
		return
	}
	if params.PlanKey == "" {
		params.PlanKey = "starter"
	}

	tenant := schema.Tenant{Id: uuid.New(), Name: params.Name, PlanKey: params.PlanKey}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.Tenant
		result := txn.Find(&existing, "name = ?", params.Name)
		if result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected > 0 {
			return CodedError(fmt.Errorf("tenant with name %v already exists", params.Name), http.StatusConflict)
		}

		if err := txn.Create(&tenant).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating tenant: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, createTenantResponse{TenantId: tenant.Id})
}

type TenantInfo struct {
	Id      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	PlanKey string    `json:"plan_key"`
}

func (s *TenantService) List(w http.ResponseWriter, r *http.Request) {
	var tenants []schema.Tenant
	if err := s.db.Find(&tenants).Error; err != nil {
		http.Error(w, fmt.Sprintf("error listing tenants: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]TenantInfo, 0, len(tenants))
	for _, tenant := range tenants {
		infos = append(infos, TenantInfo{Id: tenant.Id, Name: tenant.Name, PlanKey: tenant.PlanKey})
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *TenantService) Info(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tenant, err := schema.GetTenant(tenantId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrTenantNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJsonResponse(w, TenantInfo{Id: tenant.Id, Name: tenant.Name, PlanKey: tenant.PlanKey})
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (s *TenantService) AssignRole(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params assignRoleRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !schema.CheckValidRole(params.Role) {
		http.Error(w, fmt.Sprintf("invalid role %v", params.Role), http.StatusUnprocessableEntity)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkTenantExists(txn, tenantId); err != nil {
			return err
		}
		if err := checkUserExists(txn, userId); err != nil {
			return err
		}

		member := schema.TenantUser{TenantId: tenantId, UserId: userId, Role: params.Role}
		if err := txn.Save(&member).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error assigning role: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *TenantService) RemoveUser(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Delete(&schema.TenantUser{TenantId: tenantId, UserId: userId})
	if result.Error != nil {
		http.Error(w, fmt.Sprintf("error removing user from tenant: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, schema.ErrTenantUserNotFound.Error(), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

type createBrandRequest struct {
	Name string `json:"name"`
}

type createBrandResponse struct {
	BrandId uuid.UUID `json:"brand_id"`
}

func (s *TenantService) CreateBrand(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params createBrandRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if params.Name == "" {
		http.Error(w, "brand name must be specified", http.StatusUnprocessableEntity)
		return
	}

	brand := schema.Brand{Id: uuid.New(), TenantId: tenantId, Name: params.Name}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkTenantExists(txn, tenantId); err != nil {
			return err
		}
		if err := txn.Create(&brand).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating brand: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, createBrandResponse{BrandId: brand.Id})
}

type BrandInfo struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (s *TenantService) ListBrands(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var brands []schema.Brand
	if err := s.db.Find(&brands, "tenant_id = ?", tenantId).Error; err != nil {
		http.Error(w, fmt.Sprintf("error listing brands: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]BrandInfo, 0, len(brands))
	for _, brand := range brands {
		infos = append(infos, BrandInfo{Id: brand.Id, Name: brand.Name})
	}

	utils.WriteJsonResponse(w, infos)
}

type createCategoryRequest struct {
	Name             string     `json:"name"`
	SystemCategoryId *uuid.UUID `json:"system_category_id"`
}

type createCategoryResponse struct {
	CategoryId uuid.UUID `json:"category_id"`
}

func (s *TenantService) CreateCategory(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	brandId, err := utils.URLParamUUID(r, "brand_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params createCategoryRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if params.Name == "" {
		http.Error(w, "category name must be specified", http.StatusUnprocessableEntity)
		return
	}

	category := schema.Category{
		Id:               uuid.New(),
		TenantId:         tenantId,
		BrandId:          brandId,
		Name:             params.Name,
		SystemCategoryId: params.SystemCategoryId,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := getBrandInTenant(txn, tenantId, brandId); err != nil {
			return err
		}
		if params.SystemCategoryId != nil {
			if _, err := schema.GetSystemCategory(*params.SystemCategoryId, txn); err != nil {
				if errors.Is(err, schema.ErrSystemCategoryNotFound) {
					return CodedError(err, http.StatusNotFound)
				}
				return CodedError(err, http.StatusInternalServerError)
			}
		}
		if err := txn.Create(&category).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating category: %v", err), GetResponseCode(err))
		return
	}

	s.cache.BumpVersion(tenantId)

	utils.WriteJsonResponse(w, createCategoryResponse{CategoryId: category.Id})
}

type CategoryInfo struct {
	Id               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	SystemCategoryId *uuid.UUID `json:"system_category_id"`
}

func (s *TenantService) ListCategories(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	brandId, err := utils.URLParamUUID(r, "brand_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var categories []schema.Category
	if err := s.db.Find(&categories, "tenant_id = ? AND brand_id = ?", tenantId, brandId).Error; err != nil {
		http.Error(w, fmt.Sprintf("error listing categories: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]CategoryInfo, 0, len(categories))
	for _, category := range categories {
		infos = append(infos, CategoryInfo{Id: category.Id, Name: category.Name, SystemCategoryId: category.SystemCategoryId})
	}

	utils.WriteJsonResponse(w, infos)
}

type linkSystemCategoryRequest struct {
	SystemCategoryId *uuid.UUID `json:"system_category_id"`
}

// LinkSystemCategory links or unlinks (with a null id) a tenant category to a
// system category. Linking changes which suppression rows apply, so cached
// schemas for the tenant are invalidated.
func (s *TenantService) LinkSystemCategory(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	categoryId, err := utils.URLParamUUID(r, "category_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params linkSystemCategoryRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		category, err := getCategoryInTenant(txn, tenantId, categoryId)
		if err != nil {
			return err
		}
		if params.SystemCategoryId != nil {
			if _, err := schema.GetSystemCategory(*params.SystemCategoryId, txn); err != nil {
				if errors.Is(err, schema.ErrSystemCategoryNotFound) {
					return CodedError(err, http.StatusNotFound)
				}
				return CodedError(err, http.StatusInternalServerError)
			}
		}

		category.SystemCategoryId = params.SystemCategoryId
		if err := txn.Save(&category).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error linking system category: %v", err), GetResponseCode(err))
		return
	}

	s.cache.BumpVersion(tenantId)

	utils.WriteSuccess(w)
}

type createSystemCategoryRequest struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type createSystemCategoryResponse struct {
	SystemCategoryId uuid.UUID `json:"system_category_id"`
}

func (s *TenantService) CreateSystemCategory(w http.ResponseWriter, r *http.Request) {
	var params createSystemCategoryRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if params.Key == "" || params.Label == "" {
		http.Error(w, "system category key and label must be specified", http.StatusUnprocessableEntity)
		return
	}

	systemCategory := schema.SystemCategory{Id: uuid.New(), Key: params.Key, Label: params.Label}
	if err := s.db.Create(&systemCategory).Error; err != nil {
		http.Error(w, fmt.Sprintf("error creating system category: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, createSystemCategoryResponse{SystemCategoryId: systemCategory.Id})
}

type SystemCategoryInfo struct {
	Id    uuid.UUID `json:"id"`
	Key   string    `json:"key"`
	Label string    `json:"label"`
}

func (s *TenantService) ListSystemCategories(w http.ResponseWriter, r *http.Request) {
	var systemCategories []schema.SystemCategory
	if err := s.db.Find(&systemCategories).Error; err != nil {
		http.Error(w, fmt.Sprintf("error listing system categories: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]SystemCategoryInfo, 0, len(systemCategories))
	for _, sc := range systemCategories {
		infos = append(infos, SystemCategoryInfo{Id: sc.Id, Key: sc.Key, Label: sc.Label})
	}

	utils.WriteJsonResponse(w, infos)
}
