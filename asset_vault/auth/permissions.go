package auth

import (
	"errors"
	"fmt"
	"net/http"

	"brandvault/asset_vault/schema"
	"brandvault/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func AdminOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if !user.IsAdmin {
				http.Error(w, fmt.Sprintf("user %v is not an admin", user.Id), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func rolePriority(role string) int {
	switch role {
	case schema.RoleAdmin:
		return 3
	case schema.RoleEditor:
		return 2
	case schema.RoleViewer:
		return 1
	default:
		return 0
	}
}

// GetTenantRole returns the user's effective role within the tenant. Platform
// admins act as tenant admins everywhere; non-members have no role.
func GetTenantRole(tenantId uuid.UUID, user schema.User, db *gorm.DB) (string, error) {
	if user.IsAdmin {
		return schema.RoleAdmin, nil
	}

	member, err := schema.GetTenantUser(tenantId, user.Id, db)
	if err != nil {
		if errors.Is(err, schema.ErrTenantUserNotFound) {
			return "", nil
		}
		return "", err
	}

	return member.Role, nil
}

// TenantRoleOnly gates a route carrying a {tenant_id} url parameter on the
// user holding at least the given role within that tenant.
func TenantRoleOnly(db *gorm.DB, minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			tenantId, err := utils.URLParamUUID(r, "tenant_id")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			role, err := GetTenantRole(tenantId, user, db)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if rolePriority(role) < rolePriority(minRole) {
				http.Error(w, fmt.Sprintf("user %v does not have the required role in tenant %v", user.Id, tenantId), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
