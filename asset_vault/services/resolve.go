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
	"gorm.io/gorm"
)

// ResolveService serves the read side: resolved schemas and upload schemas.
// Any tenant member can read; resolution itself applies no role gating beyond
// the editable-field filter built into the upload schema.
type ResolveService struct {
	db         *gorm.DB
	userAuth   auth.IdentityProvider
	cache      *metadata.SchemaCache
	visibility *metadata.VisibilityFilter
	upload     *metadata.UploadResolver
}

func (s *ResolveService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Route("/{tenant_id}", func(r chi.Router) {
		r.Use(auth.TenantRoleOnly(s.db, schema.RoleViewer))

		r.Get("/schema", s.ResolveSchema)
		r.Get("/upload-schema", s.ResolveUploadSchema)
	})

	return r
}

func resolveRequestFromQuery(r *http.Request) (metadata.Request, error) {
	tenantId, err := utils.URLParamUUID(r, "tenant_id")
	if err != nil {
		return metadata.Request{}, err
	}
	brandId, err := utils.QueryParamUUID(r, "brand_id")
	if err != nil {
		return metadata.Request{}, err
	}
	categoryId, err := utils.QueryParamUUID(r, "category_id")
	if err != nil {
		return metadata.Request{}, err
	}

	assetType := r.URL.Query().Get("asset_type")
	if assetType == "" {
		assetType = schema.AppliesToAll
	}

	return metadata.Request{
		TenantId:   tenantId,
		BrandId:    brandId,
		CategoryId: categoryId,
		AssetType:  assetType,
	}, nil
}

func writeResolveError(w http.ResponseWriter, err error) {
	if errors.Is(err, metadata.ErrCategoryBrandMismatch) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, fmt.Sprintf("error resolving schema: %v", err), http.StatusInternalServerError)
}

type resolveSchemaResponse struct {
	Fields []metadata.ResolvedField `json:"fields"`
}

// ResolveSchema returns the effective field schema for a (brand?, category?,
// asset type) context, with overrides and category suppressions applied.
func (s *ResolveService) ResolveSchema(w http.ResponseWriter, r *http.Request) {
	req, err := resolveRequestFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields, err := s.cache.Resolve(req)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	fields, err = s.visibility.FilterVisibleFields(fields, req.CategoryId)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	utils.WriteJsonResponse(w, resolveSchemaResponse{Fields: fields})
}

type uploadSchemaResponse struct {
	Groups []metadata.UploadGroup `json:"groups"`
}

func (s *ResolveService) ResolveUploadSchema(w http.ResponseWriter, r *http.Request) {
	req, err := resolveRequestFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	groups, err := s.upload.Resolve(req, metadata.Actor{UserId: user.Id, IsAdmin: user.IsAdmin})
	if err != nil {
		writeResolveError(w, err)
		return
	}

	utils.WriteJsonResponse(w, uploadSchemaResponse{Groups: groups})
}
