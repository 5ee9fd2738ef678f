package metadata

import (
	"sort"
	"strings"

	"brandvault/asset_vault/schema"

	"github.com/google/uuid"
)

const (
	defaultGroupKey   = "general"
	defaultGroupLabel = "General"
)

// UploadField is a field as presented on an upload form, stripped of internal
// visibility and permission flags. Required is reserved for a future phase
// and always false.
type UploadField struct {
	Id       uuid.UUID        `json:"id"`
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     string           `json:"type"`
	Required bool             `json:"required"`
	Options  []ResolvedOption `json:"options"`
}

// UploadGroup is a named group of upload fields, ordered by group key.
type UploadGroup struct {
	Key    string        `json:"key"`
	Label  string        `json:"label"`
	Fields []UploadField `json:"fields"`
}

// UploadResolver derives the upload-form view of the canonical schema. It
// strictly delegates: the cascade runs in the Resolver (through the cache),
// category suppression in the VisibilityFilter, and editability in the
// PermissionResolver. This layer only filters and groups.
type UploadResolver struct {
	cache      *SchemaCache
	visibility *VisibilityFilter
	perms      PermissionResolver
}

func NewUploadResolver(cache *SchemaCache, visibility *VisibilityFilter, perms PermissionResolver) *UploadResolver {
	return &UploadResolver{cache: cache, visibility: visibility, perms: perms}
}

func (u *UploadResolver) Resolve(req Request, actor Actor) ([]UploadGroup, error) {
	fields, err := u.cache.Resolve(req)
	if err != nil {
		return nil, err
	}

	fields, err = u.visibility.FilterVisibleFields(fields, req.CategoryId)
	if err != nil {
		return nil, err
	}

	fields, err = u.perms.EditableFields(actor, req.TenantId, fields)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]UploadField)
	for _, field := range fields {
		// Ratings are never collected at upload time, and internal-only is a
		// catalog attribute that no override can lift.
		if !field.UploadVisible || field.Type == schema.FieldTypeRating || field.InternalOnly {
			continue
		}

		key := defaultGroupKey
		if field.GroupKey != nil && *field.GroupKey != "" {
			key = *field.GroupKey
		}

		groups[key] = append(groups[key], UploadField{
			Id:      field.Id,
			Key:     field.Key,
			Label:   field.Label,
			Type:    field.Type,
			Options: field.Options,
		})
	}

	result := make([]UploadGroup, 0, len(groups))
	for key, groupFields := range groups {
		label := defaultGroupLabel
		if key != defaultGroupKey {
			label = titleCaseKey(key)
		}
		result = append(result, UploadGroup{Key: key, Label: label, Fields: groupFields})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })

	return result, nil
}

// titleCaseKey turns a group key like "usage_rights" into "Usage Rights".
func titleCaseKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
