// Package params extracts and validates administrative request fields.
//
// Every request field arrives as a raw string. Validators return typed values
// or a KindInvalidArgument error whose message names the field. Optional
// numeric fields that were not supplied come back as nil rather than a
// reserved integer.
package params

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/solatis/flowkeeper/internal/types"
)

// Source yields raw request fields by name. url.Values satisfies it.
type Source interface {
	Get(name string) string
}

// Field names of the administrative API.
const (
	FieldAuthToken    = "confModAuthToken"
	FieldCreateUser   = "createUser"
	FieldCreateDate   = "createDate"
	FieldStatusID     = "statusId"
	FieldQryPriority  = "qryPriorityId"
	FieldGroupName    = "groupName"
	FieldFlowCtrlInfo = "flowCtrlInfo"
	FieldMethod       = "method"
)

var (
	stringValuePattern = regexp.MustCompile(`^[a-zA-Z]\w+$`)
	groupNamePattern   = regexp.MustCompile(`^[a-zA-Z][\w-]+$`)
)

// String returns the trimmed value of name.
// Blank values return def, or an error when required.
func String(src Source, name string, maxLen int, required bool, def string) (string, error) {
	value, err := common(src, name, required)
	if err != nil {
		return "", err
	}
	if value == "" {
		return def, nil
	}
	if len(value) > maxLen {
		return "", types.InvalidArgument("the max length of %s parameter is %d characters", name, maxLen)
	}
	if !stringValuePattern.MatchString(value) {
		return "", types.InvalidArgument("the value of %s parameter must begin with a letter, can only contain characters,numbers,and underscores", name)
	}
	return value, nil
}

// Date parses a yyyyMMddHHmmss value as UTC.
func Date(src Source, name string, required bool, def time.Time) (time.Time, error) {
	value, err := common(src, name, required)
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return def, nil
	}
	if len(value) > types.MaxDateValueLength {
		return time.Time{}, types.InvalidArgument("the max length of %s parameter is %d characters", name, types.MaxDateValueLength)
	}
	t, err := time.ParseInLocation(types.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, types.InvalidArgument("the value of %s parameter must be yyyyMMddHHmmss format", name)
	}
	return t, nil
}

// Int parses an integer no smaller than min. Blank values return def.
func Int(src Source, name string, required bool, def, min int) (int, error) {
	value, err := common(src, name, required)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return def, nil
	}
	return parseInt(name, value, min)
}

// OptionalInt parses an integer no smaller than min. Blank values return nil.
func OptionalInt(src Source, name string, min int) (*int, error) {
	value, err := common(src, name, false)
	if err != nil || value == "" {
		return nil, err
	}
	n, err := parseInt(name, value, min)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Optional returns the trimmed value of name, empty when absent.
func Optional(src Source, name string) string {
	return strings.TrimSpace(src.Get(name))
}

func parseInt(name, value string, min int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, types.InvalidArgument("the value of %s parameter must be a number", name)
	}
	if n < min {
		return 0, types.InvalidArgument("the value of %s parameter must >= %d", name, min)
	}
	return n, nil
}

func common(src Source, name string, required bool) (string, error) {
	value := strings.TrimSpace(src.Get(name))
	if value == "" && required {
		return "", types.InvalidArgument("Required %s parameter", name)
	}
	return value, nil
}

// BatchGroupNames splits a comma-delimited group name list into a set.
// Names in forbidden are rejected as reserved tokens. maxCount <= 0 means
// types.DefaultMaxBatchGroups.
func BatchGroupNames(raw string, required bool, forbidden types.GroupSet, maxCount int) (types.GroupSet, error) {
	if maxCount <= 0 {
		maxCount = types.DefaultMaxBatchGroups
	}
	names := types.NewGroupSet()
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if len(name) > types.MaxGroupNameLength {
			return nil, types.InvalidArgument("the max length of %s parameter is %d characters", FieldGroupName, types.MaxGroupNameLength)
		}
		if forbidden.Contains(types.GroupName(name)) {
			return nil, types.InvalidArgument("Illegal value in %s parameter: '%s' is a system reserved token!", FieldGroupName, name)
		}
		if !groupNamePattern.MatchString(name) {
			return nil, types.InvalidArgument("the value of %s parameter '%s' must begin with a letter, can only contain characters,numbers,hyphens and underscores", FieldGroupName, name)
		}
		names.Add(types.GroupName(name))
		if len(names) > maxCount {
			return nil, types.InvalidArgument("Illegal value: %s's batch count over max count %d!", FieldGroupName, maxCount)
		}
	}
	if required && len(names) == 0 {
		return nil, types.InvalidArgument("Illegal value: %s is Blank!", FieldGroupName)
	}
	return names, nil
}
