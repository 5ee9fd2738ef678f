package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"brandvault/asset_vault/auth"
	"brandvault/asset_vault/metadata"
	"brandvault/asset_vault/plans"
	"brandvault/asset_vault/schema"
	"brandvault/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FieldService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	cache    *metadata.SchemaCache
	plans    *plans.Verifier
}

func (s *FieldService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Route("/system", func(r chi.Router) {
		r.Use(auth.AdminOnly(s.db))

		r.Post("/fields", s.CreateSystemField)
		r.Put("/fields/{field_id}", s.UpdateSystemField)
		r.Post("/fields/{field_id}/options", s.AddSystemOption)
		r.Post("/fields/{field_id}/deprecate", s.DeprecateSystemField)
		r.Post("/fields/{field_id}/suppressions", s.SuppressField)
		r.Delete("/fields/{field_id}/suppressions/{system_category_id}", s.UnsuppressField)
	})

	r.Route("/{tenant_id}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.TenantRoleOnly(s.db, schema.RoleViewer))

			r.Get("/fields", s.ListFields)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.TenantRoleOnly(s.db, schema.RoleAdmin))

			r.Post("/fields", s.CreateField)
			r.Put("/fields/{field_id}", s.UpdateField)
			r.Post("/fields/{field_id}/options", s.AddOption)
			r.Post("/fields/{field_id}/deprecate", s.DeprecateField)
			r.Put("/fields/{field_id}/override", s.SetFieldOverride)
			r.Delete("/fields/{field_id}/override", s.ClearFieldOverride)
			r.Put("/options/{option_id}/override", s.SetOptionOverride)
			r.Delete("/options/{option_id}/override", s.ClearOptionOverride)
		})
	})

	return r
}

type fieldOptionRequest struct {
	Value        string `json:"value"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
}

type createFieldRequest struct {
	Key           string               `json:"key"`
	Label         string               `json:"label"`
	Type          string               `json:"type"`
	AppliesTo     string               `json:"applies_to"`
	Filterable    bool                 `json:"filterable"`
	UserEditable  *bool                `json:"user_editable"`
	UploadVisible *bool                `json:"upload_visible"`
	InternalOnly  bool                 `json:"internal_only"`
	GroupKey      *string              `json:"group_key"`
	Options       []fieldOptionRequest `json:"options"`
}

type createFieldResponse struct {
	FieldId uuid.UUID `json:"field_id"`
}

func (r *createFieldRequest) toField(tenantId *uuid.UUID, isSystem bool) (schema.MetadataField, error) {
	if r.Key == "" || r.Label == "" {
		return schema.MetadataField{}, errors.New("field key and label must be specified")
	}
	if !schema.CheckValidFieldType(r.Type) {
		return schema.MetadataField{}, fmt.Errorf("invalid field type %v", r.Type)
	}
	if r.AppliesTo == "" {
		r.AppliesTo = schema.AppliesToAll
	}

	field := schema.MetadataField{
		Id:            uuid.New(),
		Key:           r.Key,
		Label:         r.Label,
		Type:          r.Type,
		AppliesTo:     r.AppliesTo,
		Filterable:    r.Filterable,
		UserEditable:  true,
		UploadVisible: true,
		InternalOnly:  r.InternalOnly,
		GroupKey:      r.GroupKey,
		TenantId:      tenantId,
	}
	if r.UserEditable != nil {
		field.UserEditable = *r.UserEditable
	}
	if r.UploadVisible != nil {
		field.UploadVisible = *r.UploadVisible
	}

	if len(r.Options) > 0 && !field.HasOptions() {
		return schema.MetadataField{}, fmt.Errorf("field type %v does not accept options", r.Type)
	}
	for _, opt := range r.Options {
		if opt.Value == "" {
			return schema.MetadataField{}, errors.New("option value must be specified")
		}
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		field.Options = append(field.Options, schema.FieldOption{
			Id:              uuid.New(),
			MetadataFieldId: field.Id,
			Value:           opt.Value,
			Label:           label,
			IsSystem:        isSystem,
			DisplayOrder:    opt.DisplayOrder,
		})
	}

	return field, nil
}

func (s *FieldService) CreateSystemField(w http.ResponseWriter, r *http.Request) {
	var params createFieldRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	field, err := params.toField(nil, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := s.db.Create(&field).Error; err != nil {
		http.Error(w, fmt.Sprintf("error creating system field: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	// A new system field is visible to every tenant.
	s.cache.FlushGlobal()

	utils.WriteJsonResponse(w, createFieldResponse{FieldId: field.Id})
}

func (s *FieldService) CreateField(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params createFieldRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	field, err := params.toField(&tenantId, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkTenantExists(txn, tenantId); err != nil {
			return err
		}

		var customFields int64
		result := txn.Model(&schema.MetadataField{}).Where("tenant_id = ? AND deprecated = ?", tenantId, false).Count(&customFields)
		if result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if s.plans != nil {
			if _, err := s.plans.Verify(int(customFields)); err != nil {
				if errors.Is(err, plans.ErrFieldLimitExceeded) {
					return CodedError(err, http.StatusPaymentRequired)
				}
				return CodedError(err, http.StatusInternalServerError)
			}
		}

		if err := txn.Create(&field).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating field: %v", err), GetResponseCode(err))
		return
	}

	s.cache.BumpVersion(tenantId)

	utils.WriteJsonResponse(w, createFieldResponse{FieldId: field.Id})
}

type FieldOptionInfo struct {
	Id           uuid.UUID `json:"id"`
	Value        string    `json:"value"`
	Label        string    `json:"label"`
	IsSystem     bool      `json:"is_system"`
	DisplayOrder int       `json:"display_order"`
}

type FieldInfo struct {
	Id            uuid.UUID         `json:"id"`
	Key           string            `json:"key"`
	Label         string            `json:"label"`
	Type          string            `json:"type"`
	AppliesTo     string            `json:"applies_to"`
	Filterable    bool              `json:"filterable"`
	UserEditable  bool              `json:"user_editable"`
	UploadVisible bool              `json:"upload_visible"`
	InternalOnly  bool              `json:"internal_only"`
	GroupKey      *string           `json:"group_key"`
	IsSystem      bool              `json:"is_system"`
	Deprecated    bool              `json:"deprecated"`
	Options       []FieldOptionInfo `json:"options"`
}

// ListFields returns the raw field catalog for a tenant (system fields plus
// its own), without any override resolution applied.
func (s *FieldService) ListFields(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := s.db.Preload("Options").Where("tenant_id IS NULL OR tenant_id = ?", tenantId)
	if r.URL.Query().Get("include_deprecated") != "true" {
		query = query.Where("deprecated = ?", false)
	}

	var fields []schema.MetadataField
	if err := query.Order("key asc").Find(&fields).Error; err != nil {
		http.Error(w, fmt.Sprintf("error listing fields: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]FieldInfo, 0, len(fields))
	for _, field := range fields {
		options := make([]FieldOptionInfo, 0, len(field.Options))
		for _, opt := range field.Options {
			options = append(options, FieldOptionInfo{
				Id: opt.Id, Value: opt.Value, Label: opt.Label,
				IsSystem: opt.IsSystem, DisplayOrder: opt.DisplayOrder,
			})
		}
		infos = append(infos, FieldInfo{
			Id: field.Id, Key: field.Key, Label: field.Label, Type: field.Type,
			AppliesTo: field.AppliesTo, Filterable: field.Filterable,
			UserEditable: field.UserEditable, UploadVisible: field.UploadVisible,
			InternalOnly: field.InternalOnly, GroupKey: field.GroupKey,
			IsSystem: field.IsSystemField(), Deprecated: field.Deprecated,
			Options: options,
		})
	}

	utils.WriteJsonResponse(w, infos)
}

type updateFieldRequest struct {
	Label         *string `json:"label"`
	AppliesTo     *string `json:"applies_to"`
	Filterable    *bool   `json:"filterable"`
	UserEditable  *bool   `json:"user_editable"`
	UploadVisible *bool   `json:"upload_visible"`
	InternalOnly  *bool   `json:"internal_only"`
	GroupKey      *string `json:"group_key"`
}

// updateField updates the mutable attributes of a field definition. Key and
// type are immutable once created since stored asset metadata references them.
func (s *FieldService) updateField(w http.ResponseWriter, r *http.Request, tenantId *uuid.UUID) {
	fieldId, err := utils.URLParamUUID(r, "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateFieldRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		field, err := getFieldForMutation(txn, fieldId, tenantId)
		if err != nil {
			return err
		}

		if params.Label != nil {
			if *params.Label == "" {
				return CodedError(errors.New("field label must not be empty"), http.StatusUnprocessableEntity)
			}
			field.Label = *params.Label
		}
		if params.AppliesTo != nil {
			field.AppliesTo = *params.AppliesTo
			if field.AppliesTo == "" {
				field.AppliesTo = schema.AppliesToAll
			}
		}
		if params.Filterable != nil {
			field.Filterable = *params.Filterable
		}
		if params.UserEditable != nil {
			field.UserEditable = *params.UserEditable
		}
		if params.UploadVisible != nil {
			field.UploadVisible = *params.UploadVisible
		}
		if params.InternalOnly != nil {
			field.InternalOnly = *params.InternalOnly
		}
		if params.GroupKey != nil {
			if *params.GroupKey == "" {
				field.GroupKey = nil
			} else {
				field.GroupKey = params.GroupKey
			}
		}

		if err := txn.Save(&field).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating field: %v", err), GetResponseCode(err))
		return
	}

	if tenantId == nil {
		s.cache.FlushGlobal()
	} else {
		s.cache.BumpVersion(*tenantId)
	}

	utils.WriteSuccess(w)
}

func (s *FieldService) UpdateSystemField(w http.ResponseWriter, r *http.Request) {
	s.updateField(w, r, nil)
}

func (s *FieldService) UpdateField(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.updateField(w, r, &tenantId)
}

type addOptionResponse struct {
	OptionId uuid.UUID `json:"option_id"`
}

func (s *FieldService) addOption(w http.ResponseWriter, r *http.Request, tenantId *uuid.UUID) {
	fieldId, err := utils.URLParamUUID(r, "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params fieldOptionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if params.Value == "" {
		http.Error(w, "option value must be specified", http.StatusUnprocessableEntity)
		return
	}
	if params.Label == "" {
		params.Label = params.Value
	}

	option := schema.FieldOption{
		Id:              uuid.New(),
		MetadataFieldId: fieldId,
		Value:           params.Value,
		Label:           params.Label,
		IsSystem:        tenantId == nil,
		DisplayOrder:    params.DisplayOrder,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		field, err := getFieldForMutation(txn, fieldId, tenantId)
		if err != nil {
			return err
		}
		if !field.HasOptions() {
			return CodedError(fmt.Errorf("field type %v does not accept options", field.Type), http.StatusUnprocessableEntity)
		}
		if err := txn.Create(&option).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error adding option: %v", err), GetResponseCode(err))
		return
	}

	if tenantId == nil {
		s.cache.FlushGlobal()
	} else {
		s.cache.BumpVersion(*tenantId)
	}

	utils.WriteJsonResponse(w, addOptionResponse{OptionId: option.Id})
}

func (s *FieldService) AddSystemOption(w http.ResponseWriter, r *http.Request) {
	s.addOption(w, r, nil)
}

func (s *FieldService) AddOption(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.addOption(w, r, &tenantId)
}

// getFieldForMutation loads a field and checks ownership: a nil tenantId means
// the caller is mutating a system field, otherwise the field must belong to
// the tenant. Tenants cannot mutate system field definitions.
func getFieldForMutation(txn *gorm.DB, fieldId uuid.UUID, tenantId *uuid.UUID) (schema.MetadataField, error) {
	field, err := schema.GetField(fieldId, txn, false)
	if err != nil {
		if errors.Is(err, schema.ErrFieldNotFound) {
			return field, CodedError(err, http.StatusNotFound)
		}
		return field, CodedError(err, http.StatusInternalServerError)
	}

	if tenantId == nil {
		if !field.IsSystemField() {
			return field, CodedError(errors.New("field is not a system field"), http.StatusUnprocessableEntity)
		}
	} else {
		if field.IsSystemField() || *field.TenantId != *tenantId {
			return field, CodedError(errors.New("field does not belong to tenant"), http.StatusForbidden)
		}
	}

	return field, nil
}

func (s *FieldService) deprecateField(w http.ResponseWriter, r *http.Request, tenantId *uuid.UUID) {
	fieldId, err := utils.URLParamUUID(r, "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		field, err := getFieldForMutation(txn, fieldId, tenantId)
		if err != nil {
			return err
		}
		if field.Deprecated {
			return nil
		}

		now := time.Now().UTC()
		field.Deprecated = true
		field.DeprecatedAt = &now
		if err := txn.Save(&field).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deprecating field: %v", err), GetResponseCode(err))
		return
	}

	if tenantId == nil {
		s.cache.FlushGlobal()
	} else {
		s.cache.BumpVersion(*tenantId)
	}

	utils.WriteSuccess(w)
}

func (s *FieldService) DeprecateSystemField(w http.ResponseWriter, r *http.Request) {
	s.deprecateField(w, r, nil)
}

func (s *FieldService) DeprecateField(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.deprecateField(w, r, &tenantId)
}

type overrideScopeRequest struct {
	BrandId    *uuid.UUID `json:"brand_id"`
	CategoryId *uuid.UUID `json:"category_id"`
}

type setFieldOverrideRequest struct {
	overrideScopeRequest
	Hidden       bool `json:"hidden"`
	UploadHidden bool `json:"upload_hidden"`
	FilterHidden bool `json:"filter_hidden"`
}

func scopeCondition(txn *gorm.DB, brandId, categoryId *uuid.UUID) *gorm.DB {
	if brandId != nil {
		txn = txn.Where("brand_id = ?", *brandId)
	} else {
		txn = txn.Where("brand_id IS NULL")
	}
	if categoryId != nil {
		txn = txn.Where("category_id = ?", *categoryId)
	} else {
		txn = txn.Where("category_id IS NULL")
	}
	return txn
}

// SetFieldOverride upserts the override row for one (field, brand?, category?)
// scope. The row's flags replace whatever was stored for that scope; they do
// not merge with it.
func (s *FieldService) SetFieldOverride(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fieldId, err := utils.URLParamUUID(r, "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params setFieldOverrideRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		field, err := schema.GetField(fieldId, txn, false)
		if err != nil {
			if errors.Is(err, schema.ErrFieldNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}
		if !field.IsSystemField() && *field.TenantId != tenantId {
			return CodedError(errors.New("field does not belong to tenant"), http.StatusForbidden)
		}

		if err := checkOverrideScope(txn, tenantId, params.BrandId, params.CategoryId); err != nil {
			return err
		}

		var override schema.FieldVisibilityOverride
		query := scopeCondition(txn.Where("metadata_field_id = ? AND tenant_id = ?", fieldId, tenantId), params.BrandId, params.CategoryId)
		result := query.Find(&override)
		if result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			override = schema.FieldVisibilityOverride{
				Id:              uuid.New(),
				MetadataFieldId: fieldId,
				TenantId:        tenantId,
				BrandId:         params.BrandId,
				CategoryId:      params.CategoryId,
			}
		}

		override.Hidden = params.Hidden
		override.UploadHidden = params.UploadHidden
		override.FilterHidden = params.FilterHidden
		if err := txn.Save(&override).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error setting field override: %v", err), GetResponseCode(err))
		return
	}

	s.cache.BumpVersion(tenantId)

	utils.WriteSuccess(w)
}

func (s *FieldService) ClearFieldOverride(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fieldId, err := utils.URLParamUUID(r, "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params overrideScopeRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	query := scopeCondition(s.db.Where("metadata_field_id = ? AND tenant_id = ?", fieldId, tenantId), params.BrandId, params.CategoryId)
	result := query.Delete(&schema.FieldVisibilityOverride{})
	if result.Error != nil {
		http.Error(w, fmt.Sprintf("error clearing field override: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "no override exists for the given scope", http.StatusNotFound)
		return
	}

	s.cache.BumpVersion(tenantId)

	utils.WriteSuccess(w)
}

type setOptionOverrideRequest struct {
	overrideScopeRequest
	Hidden bool `json:"hidden"`
}

func (s *FieldService) SetOptionOverride(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	optionId, err := utils.URLParamUUID(r, "option_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params setOptionOverrideRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		option, err := schema.GetOption(optionId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrOptionNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		field, err := schema.GetField(option.MetadataFieldId, txn, false)
		if err != nil {
			return CodedError(err, http.StatusInternalServerError)
		}
		if !field.IsSystemField() && *field.TenantId != tenantId {
			return CodedError(errors.New("option does not belong to tenant"), http.StatusForbidden)
		}

		if err := checkOverrideScope(txn, tenantId, params.BrandId, params.CategoryId); err != nil {
			return err
		}

		var override schema.OptionVisibilityOverride
		query := scopeCondition(txn.Where("field_option_id = ? AND tenant_id = ?", optionId, tenantId), params.BrandId, params.CategoryId)
		result := query.Find(&override)
		if result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			override = schema.OptionVisibilityOverride{
				Id:            uuid.New(),
				FieldOptionId: optionId,
				TenantId:      tenantId,
				BrandId:       params.BrandId,
				CategoryId:    params.CategoryId,
			}
		}

		override.Hidden = params.Hidden
		if err := txn.Save(&override).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error setting option override: %v", err), GetResponseCode(err))
		return
	}

	s.cache.BumpVersion(tenantId)

	utils.WriteSuccess(w)
}

func (s *FieldService) ClearOptionOverride(w http.ResponseWriter, r *http.Request) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	optionId, err := utils.URLParamUUID(r, "option_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params overrideScopeRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	query := scopeCondition(s.db.Where("field_option_id = ? AND tenant_id = ?", optionId, tenantId), params.BrandId, params.CategoryId)
	result := query.Delete(&schema.OptionVisibilityOverride{})
	if result.Error != nil {
		http.Error(w, fmt.Sprintf("error clearing option override: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "no override exists for the given scope", http.StatusNotFound)
		return
	}

	s.cache.BumpVersion(tenantId)

	utils.WriteSuccess(w)
}

type suppressFieldRequest struct {
	SystemCategoryId uuid.UUID `json:"system_category_id"`
}

// SuppressField removes a system field from every tenant category linked to
// the given system category. Suppression is platform-wide, so the whole cache
// is flushed rather than bumping per-tenant versions.
func (s *FieldService) SuppressField(w http.ResponseWriter, r *http.Request) {
	fieldId, err := utils.URLParamUUID(r, "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params suppressFieldRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := getFieldForMutation(txn, fieldId, nil); err != nil {
			return err
		}
		if _, err := schema.GetSystemCategory(params.SystemCategoryId, txn); err != nil {
			if errors.Is(err, schema.ErrSystemCategoryNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		suppression := schema.CategorySuppression{MetadataFieldId: fieldId, SystemCategoryId: params.SystemCategoryId}
		if err := txn.Save(&suppression).Error; err != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error suppressing field: %v", err), GetResponseCode(err))
		return
	}

	s.cache.FlushGlobal()

	utils.WriteSuccess(w)
}

func (s *FieldService) UnsuppressField(w http.ResponseWriter, r *http.Request) {
	fieldId, err := utils.URLParamUUID(r, "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	systemCategoryId, err := utils.URLParamUUID(r, "system_category_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Delete(&schema.CategorySuppression{MetadataFieldId: fieldId, SystemCategoryId: systemCategoryId})
	if result.Error != nil {
		http.Error(w, fmt.Sprintf("error removing suppression: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "no suppression exists for the given field and system category", http.StatusNotFound)
		return
	}

	s.cache.FlushGlobal()

	utils.WriteSuccess(w)
}
