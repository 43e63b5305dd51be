package api

import (
	"strings"

	"github.com/solatis/flowkeeper/internal/flowctrl"
	"github.com/solatis/flowkeeper/internal/types"
)

// ChangeRequest holds the fields a Modify request may change.
// Nil pointers and blank FlowCtrlInfo mean "leave as stored".
type ChangeRequest struct {
	Status       *int
	Priority     *int
	FlowCtrlInfo string // canonical text
	RuleCnt      int
}

// ApplyChanges returns a copy of existing with the requested fields applied,
// and whether anything differed. An invalid priority fails before any field
// is applied. existing is never mutated.
func ApplyChanges(existing *types.FlowControlRecord, req ChangeRequest) (*types.FlowControlRecord, bool, error) {
	if req.Priority != nil {
		if err := flowctrl.ValidatePriority(*req.Priority); err != nil {
			return nil, false, err
		}
	}

	updated := existing.Clone()
	changed := false

	if req.Status != nil && *req.Status != updated.StatusID {
		updated.StatusID = *req.Status
		changed = true
	}
	if req.Priority != nil && *req.Priority != updated.QryPriorityID {
		updated.QryPriorityID = *req.Priority
		changed = true
	}
	// textual comparison: equivalent rule sets with different text count as a change
	if strings.TrimSpace(req.FlowCtrlInfo) != "" && req.FlowCtrlInfo != updated.FlowCtrlInfo {
		updated.FlowCtrlInfo = req.FlowCtrlInfo
		updated.RuleCnt = req.RuleCnt
		changed = true
	}

	return updated, changed, nil
}
