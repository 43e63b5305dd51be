package api

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/solatis/flowkeeper/internal/core/params"
	"github.com/solatis/flowkeeper/internal/flowctrl"
	"github.com/solatis/flowkeeper/internal/types"
)

// Modify applies field-level changes to each resolved group that has a record.
// Store failures are per group: they are logged, counted and skipped, and the
// call still succeeds. Validation failures abort before any group is touched.
func (s *AdminService) Modify(ctx context.Context, op types.OpType, src params.Source) Envelope {
	start := s.now()
	n, err := s.modify(ctx, op, src)
	s.finish(opModify, op, start, n, err)
	if err != nil {
		return Failure(err)
	}
	return Success()
}

func (s *AdminService) modify(ctx context.Context, op types.OpType, src params.Source) (int, error) {
	if err := s.authz.Authorize(ctx, src.Get(params.FieldAuthToken)); err != nil {
		return 0, err
	}

	modifyUser, modifyDate, err := s.auditFields(src)
	if err != nil {
		return 0, err
	}

	groups, err := ResolveGroupNames(op, src.Get(params.FieldGroupName), true, s.maxBatch)
	if err != nil {
		return 0, err
	}

	req := ChangeRequest{}
	if req.Status, err = params.OptionalInt(src, params.FieldStatusID, 0); err != nil {
		return 0, err
	}
	if req.Priority, err = params.OptionalInt(src, params.FieldQryPriority, flowctrl.MinPriorityCode); err != nil {
		return 0, err
	}
	if req.Priority != nil {
		if err := flowctrl.ValidatePriority(*req.Priority); err != nil {
			return 0, err
		}
	}

	// absent rule text leaves the stored rules alone; "[]" clears them
	if raw := strings.TrimSpace(src.Get(params.FieldFlowCtrlInfo)); raw != "" {
		if req.FlowCtrlInfo, req.RuleCnt, err = flowctrl.CanonicalText(raw); err != nil {
			return 0, err
		}
	}

	changed := 0
	for _, name := range groups.Sorted() {
		existing, err := s.store.GetRecord(ctx, name)
		if err != nil {
			s.swallow(name, "get", err)
			continue
		}
		if existing == nil {
			continue
		}

		updated, ok, err := ApplyChanges(existing, req)
		if err != nil {
			return changed, err
		}
		if !ok {
			continue
		}

		if err := s.store.UpdateRecord(ctx, updated); err != nil {
			s.swallow(name, "update", err)
			continue
		}
		changed++
		s.logger.Info("flow rule modified",
			zap.String("group", string(name)),
			zap.String("modify_user", modifyUser),
			zap.Time("modify_date", modifyDate),
		)
	}
	return changed, nil
}

func (s *AdminService) swallow(name types.GroupName, step string, err error) {
	s.metrics.SwallowedFailure(opModify)
	s.logger.Warn("flow rule modify skipped group",
		zap.String("group", string(name)),
		zap.String("step", step),
		zap.Error(err),
	)
}
