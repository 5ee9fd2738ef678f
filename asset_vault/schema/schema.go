package schema

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name    string `gorm:"unique;size:100;not null"`
	PlanKey string `gorm:"size:50;not null;default:'starter'"`

	CreatedAt time.Time

	Brands []Brand `gorm:"constraint:OnDelete:CASCADE"`
	Users  []TenantUser
}

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Username string `gorm:"unique;size:50;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	IsAdmin bool `gorm:"not null;default:false"`

	Tenants []TenantUser `gorm:"constraint:OnDelete:CASCADE"`
}

type TenantUser struct {
	TenantId uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role     string    `gorm:"size:50;not null;default:'viewer'"`

	Tenant *Tenant `gorm:"constraint:OnDelete:CASCADE"`
	User   *User   `gorm:"constraint:OnDelete:CASCADE"`
}

type Brand struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId uuid.UUID `gorm:"type:uuid;not null;index"`

	Name string `gorm:"size:100;not null"`

	Tenant     *Tenant
	Categories []Category `gorm:"constraint:OnDelete:CASCADE"`
}

// SystemCategory is a platform-curated category (e.g. "Logos", "Product Shots")
// that tenant categories may link to. Suppression rows are keyed on these so a
// single curation decision applies across every tenant.
type SystemCategory struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Key   string `gorm:"unique;size:100;not null"`
	Label string `gorm:"size:200;not null"`
}

type Category struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId uuid.UUID `gorm:"type:uuid;not null;index"`
	BrandId  uuid.UUID `gorm:"type:uuid;not null;index"`

	Name string `gorm:"size:100;not null"`

	SystemCategoryId *uuid.UUID      `gorm:"type:uuid"`
	SystemCategory   *SystemCategory `gorm:"constraint:OnDelete:SET NULL"`

	Brand *Brand `gorm:"constraint:OnDelete:CASCADE"`
}

const (
	FieldTypeText        = "text"
	FieldTypeTextarea    = "textarea"
	FieldTypeSelect      = "select"
	FieldTypeMultiselect = "multiselect"
	FieldTypeDate        = "date"
	FieldTypeNumber      = "number"
	FieldTypeRating      = "rating"
)

// AppliesToAll is the sentinel asset type matching every asset type.
const AppliesToAll = "all"

// MetadataField is a field definition. TenantId is nil for system fields,
// which are visible to every tenant. Fields are never deleted, only
// deprecated, so historical asset metadata keeps a valid schema reference.
type MetadataField struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Key   string `gorm:"size:100;not null;uniqueIndex:uq_fields_scope_key"`
	Label string `gorm:"size:200;not null"`
	Type  string `gorm:"size:50;not null"`

	AppliesTo string `gorm:"size:100;not null;default:'all'"`

	Filterable    bool `gorm:"not null;default:false"`
	UserEditable  bool `gorm:"not null;default:true"`
	UploadVisible bool `gorm:"not null;default:true"`
	InternalOnly  bool `gorm:"not null;default:false"`

	GroupKey *string `gorm:"size:100"`

	TenantId *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_fields_scope_key"`
	Tenant   *Tenant    `gorm:"constraint:OnDelete:CASCADE"`

	Deprecated   bool `gorm:"not null;default:false"`
	DeprecatedAt *time.Time

	CreatedAt time.Time

	Options []FieldOption `gorm:"constraint:OnDelete:CASCADE"`
}

func (f *MetadataField) IsSystemField() bool {
	return f.TenantId == nil
}

func (f *MetadataField) HasOptions() bool {
	return f.Type == FieldTypeSelect || f.Type == FieldTypeMultiselect
}

type FieldOption struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	MetadataFieldId uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_options_field_value"`

	Value string `gorm:"size:200;not null;uniqueIndex:uq_options_field_value"`
	Label string `gorm:"size:200;not null"`

	IsSystem     bool `gorm:"not null;default:false"`
	DisplayOrder int  `gorm:"not null;default:0"`

	Field *MetadataField `gorm:"foreignKey:MetadataFieldId"`
}

// FieldVisibilityOverride is a sparse, scope-specific override of a field's
// visibility flags. At most one row exists per (field, tenant, brand,
// category) scope key. A row with CategoryId set always has BrandId set.
type FieldVisibilityOverride struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	MetadataFieldId uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_field_overrides_scope"`
	TenantId        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_field_overrides_scope"`

	BrandId    *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_field_overrides_scope"`
	CategoryId *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_field_overrides_scope"`

	Hidden       bool `gorm:"not null;default:false"`
	UploadHidden bool `gorm:"not null;default:false"`
	FilterHidden bool `gorm:"not null;default:false"`

	Field  *MetadataField `gorm:"foreignKey:MetadataFieldId;constraint:OnDelete:CASCADE"`
	Tenant *Tenant        `gorm:"constraint:OnDelete:CASCADE"`
}

type OptionVisibilityOverride struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	FieldOptionId uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_option_overrides_scope"`
	TenantId      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_option_overrides_scope"`

	BrandId    *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_option_overrides_scope"`
	CategoryId *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_option_overrides_scope"`

	Hidden bool `gorm:"not null;default:false"`

	Option *FieldOption `gorm:"foreignKey:FieldOptionId;constraint:OnDelete:CASCADE"`
	Tenant *Tenant      `gorm:"constraint:OnDelete:CASCADE"`
}

// CategorySuppression removes a field from every tenant category linked to the
// given system category. It is independent of tenant-level overrides.
type CategorySuppression struct {
	MetadataFieldId  uuid.UUID `gorm:"type:uuid;primaryKey"`
	SystemCategoryId uuid.UUID `gorm:"type:uuid;primaryKey"`

	Field          *MetadataField  `gorm:"foreignKey:MetadataFieldId;constraint:OnDelete:CASCADE"`
	SystemCategory *SystemCategory `gorm:"constraint:OnDelete:CASCADE"`
}

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

func CheckValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleViewer
}

var fieldTypes = []string{
	FieldTypeText, FieldTypeTextarea, FieldTypeSelect, FieldTypeMultiselect,
	FieldTypeDate, FieldTypeNumber, FieldTypeRating,
}

func CheckValidFieldType(fieldType string) bool {
	for _, t := range fieldTypes {
		if t == fieldType {
			return true
		}
	}
	return false
}
