package api

import (
	"github.com/solatis/flowkeeper/internal/core/params"
	"github.com/solatis/flowkeeper/internal/types"
)

// ResolveGroupNames turns the groupName field into the set of records an
// operation targets. Default-scoped requests always target the sentinel alone
// and ignore raw; group-scoped requests may not name the sentinel.
func ResolveGroupNames(op types.OpType, raw string, requireNonEmpty bool, maxCount int) (types.GroupSet, error) {
	if op.IsDefault() {
		return types.NewGroupSet(types.DefaultGroup), nil
	}

	var forbidden types.GroupSet
	if op.ForbidsDefault() {
		forbidden = types.NewGroupSet(types.DefaultGroup)
	}
	return params.BatchGroupNames(raw, requireNonEmpty, forbidden, maxCount)
}
