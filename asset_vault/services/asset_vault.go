package services

import (
	"log"
	"net/http"
	"os"

	"brandvault/asset_vault/auth"
	"brandvault/asset_vault/metadata"
	"brandvault/asset_vault/plans"
	"brandvault/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

type AssetVault struct {
	user    UserService
	tenant  TenantService
	field   FieldService
	resolve ResolveService

	db    *gorm.DB
	cache *metadata.SchemaCache
}

func NewAssetVault(
	db *gorm.DB, cache *metadata.SchemaCache, planVerifier *plans.Verifier, userAuth auth.IdentityProvider,
) AssetVault {
	visibility := metadata.NewVisibilityFilter(db)
	upload := metadata.NewUploadResolver(cache, visibility, metadata.NewRolePermissionResolver(db))

	return AssetVault{
		user:   UserService{db: db, userAuth: userAuth},
		tenant: TenantService{db: db, userAuth: userAuth, cache: cache},
		field:  FieldService{db: db, userAuth: userAuth, cache: cache, plans: planVerifier},
		resolve: ResolveService{
			db:         db,
			userAuth:   userAuth,
			cache:      cache,
			visibility: visibility,
			upload:     upload,
		},
		db:    db,
		cache: cache,
	}
}

func (a *AssetVault) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", a.user.Routes())
	r.Mount("/tenant", a.tenant.Routes())
	r.Mount("/field", a.field.Routes())
	r.Mount("/schema", a.resolve.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}
