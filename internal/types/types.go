// Package types provides domain models shared across flowkeeper components.
//
// Records here are storage and transport agnostic: the db package maps them to
// columns, the api package maps them to the JSON envelope. The rule text carried
// by a record is opaque at this level; only internal/flowctrl interprets it.
package types

import (
	"sort"
	"time"
)

// GroupName identifies the scope of a flow control record.
// Either a consumer group name or the DefaultGroup sentinel.
type GroupName string

// DefaultGroup is the reserved name under which the cluster-wide default
// rule set is stored. It never names a real consumer group.
const DefaultGroup GroupName = "default_master_ctrl"

// IsDefault reports whether g is the default rule set sentinel.
func (g GroupName) IsDefault() bool {
	return g == DefaultGroup
}

// GroupSet is an unordered set of group names.
type GroupSet map[GroupName]struct{}

// NewGroupSet builds a set from names.
func NewGroupSet(names ...GroupName) GroupSet {
	set := make(GroupSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Add inserts name into the set.
func (s GroupSet) Add(name GroupName) {
	s[name] = struct{}{}
}

// Contains reports whether name is in the set.
func (s GroupSet) Contains(name GroupName) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in ascending order.
// Batch operations iterate in this order so logs and partial failures are reproducible.
func (s GroupSet) Sorted() []GroupName {
	names := make([]GroupName, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Strings returns the sorted names as plain strings (for SQL arguments).
func (s GroupSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, n := range sorted {
		out[i] = string(n)
	}
	return out
}

// OpType selects the scope of an administrative request.
type OpType int

const (
	// OpDefault targets the cluster-wide default rule set only.
	OpDefault OpType = 1
	// OpGroup targets consumer groups; the default sentinel is rejected as a name.
	OpGroup OpType = 2
)

// IsDefault reports whether the request is scoped to the default rule set.
func (o OpType) IsDefault() bool {
	return o == OpDefault
}

// ForbidsDefault reports whether user-supplied group names may not include DefaultGroup.
func (o OpType) ForbidsDefault() bool {
	return o > OpDefault
}

// String returns "default" or "group", the scope label used in routes and metrics.
func (o OpType) String() string {
	if o.IsDefault() {
		return "default"
	}
	return "group"
}

// FlowControlRecord is the persisted flow control rule set of one group.
type FlowControlRecord struct {
	GroupName     GroupName `db:"group_name"`
	FlowCtrlInfo  string    `db:"flow_ctrl_info"`  // canonical rule text
	StatusID      int       `db:"status_id"`       // enable/disable flag
	RuleCnt       int       `db:"rule_cnt"`        // non-empty categories in FlowCtrlInfo
	QryPriorityID int       `db:"qry_priority_id"` // packed tier/sub-level code
	CreateUser    string    `db:"create_user"`
	CreateDate    time.Time `db:"create_date"`
}

// NewFlowControlRecord builds a record for name.
// The default rule set is built through the same constructor with DefaultGroup.
func NewFlowControlRecord(name GroupName, flowCtrlInfo string, statusID, ruleCnt, qryPriorityID int, createUser string, createDate time.Time) *FlowControlRecord {
	return &FlowControlRecord{
		GroupName:     name,
		FlowCtrlInfo:  flowCtrlInfo,
		StatusID:      statusID,
		RuleCnt:       ruleCnt,
		QryPriorityID: qryPriorityID,
		CreateUser:    createUser,
		CreateDate:    createDate,
	}
}

// Clone returns a copy of r.
func (r *FlowControlRecord) Clone() *FlowControlRecord {
	c := *r
	return &c
}

// RecordFilter narrows QueryRecords. Nil/empty fields do not filter.
type RecordFilter struct {
	StatusID      *int
	QryPriorityID *int
	CreateUser    string
}

// Field limits enforced by the parameter validators.
const (
	// MaxUserNameLength bounds createUser.
	MaxUserNameLength = 64

	// MaxDateValueLength is the length of a yyyyMMddHHmmss value.
	MaxDateValueLength = 14

	// MaxGroupNameLength bounds a single consumer group name.
	MaxGroupNameLength = 1024

	// DefaultMaxBatchGroups caps group names per request when not configured.
	DefaultMaxBatchGroups = 50
)

// DateLayout is the wire layout of createDate (yyyyMMddHHmmss).
const DateLayout = "20060102150405"
