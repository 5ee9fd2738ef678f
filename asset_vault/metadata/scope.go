package metadata

import (
	"github.com/google/uuid"
)

// OverrideScope is the (brand?, category?) portion of an override row's scope
// key. The tenant portion is implicit: all candidate rows passed to
// selectOverride already belong to the tenant being resolved.
type OverrideScope struct {
	BrandId    *uuid.UUID
	CategoryId *uuid.UUID
}

const (
	rankTenant   = 0
	rankBrand    = 1
	rankCategory = 2
)

// overrideRank returns the specificity rank of a row scope relative to the
// requested brand/category, or -1 if the row does not apply to the request.
// A row applies when its brand is null-or-equal-to the requested brand and
// its category is null-or-equal-to the requested category. A category-scoped
// row without a brand is malformed and never applies.
func overrideRank(scope OverrideScope, brandId, categoryId *uuid.UUID) int {
	if scope.BrandId != nil && (brandId == nil || *scope.BrandId != *brandId) {
		return -1
	}
	if scope.CategoryId != nil && (categoryId == nil || *scope.CategoryId != *categoryId) {
		return -1
	}

	switch {
	case scope.CategoryId != nil:
		if scope.BrandId == nil {
			return -1
		}
		return rankCategory
	case scope.BrandId != nil:
		return rankBrand
	default:
		return rankTenant
	}
}

// selectOverride picks the single most specific applicable row from scopes,
// returning its index. The winning row governs all of its flags wholesale:
// callers must not merge flags from lower-ranked rows, even when the winning
// row leaves a sub-flag untouched.
func selectOverride(scopes []OverrideScope, brandId, categoryId *uuid.UUID) (int, bool) {
	best := -1
	bestRank := -1
	for i, scope := range scopes {
		rank := overrideRank(scope, brandId, categoryId)
		if rank > bestRank {
			best = i
			bestRank = rank
		}
	}
	return best, best >= 0
}
