package api

import (
	"context"
	"errors"
	"time"

	"github.com/solatis/flowkeeper/internal/core/params"
	"github.com/solatis/flowkeeper/internal/flowctrl"
	"github.com/solatis/flowkeeper/internal/types"
)

// Add creates a flow control record for each resolved group.
// Groups are written in sorted order; the first failure aborts the call and
// groups written before it remain.
func (s *AdminService) Add(ctx context.Context, op types.OpType, src params.Source) Envelope {
	start := s.now()
	n, err := s.add(ctx, op, src)
	s.finish(opAdd, op, start, n, err)
	if err != nil {
		return Failure(err)
	}
	return Success()
}

func (s *AdminService) add(ctx context.Context, op types.OpType, src params.Source) (int, error) {
	if err := s.authz.Authorize(ctx, src.Get(params.FieldAuthToken)); err != nil {
		return 0, err
	}

	createUser, err := params.String(src, params.FieldCreateUser, types.MaxUserNameLength, true, "")
	if err != nil {
		return 0, err
	}
	createDate, err := params.Date(src, params.FieldCreateDate, false, s.now().UTC().Truncate(time.Second))
	if err != nil {
		return 0, err
	}
	statusID, err := params.Int(src, params.FieldStatusID, false, 0, 0)
	if err != nil {
		return 0, err
	}
	qryPriorityID, err := params.Int(src, params.FieldQryPriority, false, flowctrl.DefaultPriorityCode, flowctrl.MinPriorityCode)
	if err != nil {
		return 0, err
	}
	if err := flowctrl.ValidatePriority(qryPriorityID); err != nil {
		return 0, err
	}

	groups, err := ResolveGroupNames(op, src.Get(params.FieldGroupName), true, s.maxBatch)
	if err != nil {
		return 0, err
	}

	flowCtrlInfo, ruleCnt, err := flowctrl.CanonicalText(src.Get(params.FieldFlowCtrlInfo))
	if err != nil {
		return 0, err
	}

	written := 0
	for _, name := range groups.Sorted() {
		rec := types.NewFlowControlRecord(name, flowCtrlInfo, statusID, ruleCnt, qryPriorityID, createUser, createDate)
		if err := s.store.AddRecord(ctx, rec); err != nil {
			if errors.Is(err, types.ErrRecordExists) {
				return written, types.Wrap(types.KindInvalidArgument, err,
					"Duplicated set flow control rule for group %s, please use modify operation!", name)
			}
			return written, types.StoreFailure(err, "add flow control rule")
		}
		written++
	}
	return written, nil
}
