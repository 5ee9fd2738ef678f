package metadata

import (
	"errors"
	"log/slog"

	"brandvault/asset_vault/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor identifies who a schema is being resolved on behalf of.
type Actor struct {
	UserId  uuid.UUID
	IsAdmin bool
}

// PermissionResolver narrows a resolved field list to the fields the actor may
// edit. The engine treats this as an external collaborator: any implementation
// returning a subset of its input is valid.
type PermissionResolver interface {
	EditableFields(actor Actor, tenantId uuid.UUID, fields []ResolvedField) ([]ResolvedField, error)
}

// RolePermissionResolver grants editing based on tenant membership role:
// platform admins and tenant admins/editors may edit user-editable fields,
// viewers and non-members may edit none. Fields with UserEditable false are
// editable by nobody regardless of role.
type RolePermissionResolver struct {
	db *gorm.DB
}

func NewRolePermissionResolver(db *gorm.DB) *RolePermissionResolver {
	return &RolePermissionResolver{db: db}
}

func (p *RolePermissionResolver) EditableFields(actor Actor, tenantId uuid.UUID, fields []ResolvedField) ([]ResolvedField, error) {
	canEdit := actor.IsAdmin
	if !canEdit {
		member, err := schema.GetTenantUser(tenantId, actor.UserId, p.db)
		if err != nil {
			if !errors.Is(err, schema.ErrTenantUserNotFound) {
				slog.Error("error loading tenant membership for permission check", "tenant_id", tenantId, "user_id", actor.UserId, "error", err)
				return nil, err
			}
		} else {
			canEdit = member.Role == schema.RoleAdmin || member.Role == schema.RoleEditor
		}
	}

	if !canEdit {
		return []ResolvedField{}, nil
	}

	editable := make([]ResolvedField, 0, len(fields))
	for _, field := range fields {
		if field.UserEditable {
			editable = append(editable, field)
		}
	}
	return editable, nil
}
