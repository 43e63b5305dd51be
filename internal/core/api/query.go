package api

import (
	"context"

	"github.com/solatis/flowkeeper/internal/core/params"
	"github.com/solatis/flowkeeper/internal/types"
)

// Query returns the records matching the optional filters. It needs no token.
// Group-scoped queries never return the default rule set.
func (s *AdminService) Query(ctx context.Context, op types.OpType, src params.Source) Envelope {
	start := s.now()
	recs, err := s.query(ctx, op, src)
	s.finish(opQuery, op, start, 0, err)
	if err != nil {
		return QueryFailure(err)
	}
	return QuerySuccess(recs)
}

func (s *AdminService) query(ctx context.Context, op types.OpType, src params.Source) ([]*types.FlowControlRecord, error) {
	var (
		filter types.RecordFilter
		err    error
	)
	if filter.CreateUser, err = params.String(src, params.FieldCreateUser, types.MaxUserNameLength, false, ""); err != nil {
		return nil, err
	}
	if filter.StatusID, err = params.OptionalInt(src, params.FieldStatusID, 0); err != nil {
		return nil, err
	}
	if filter.QryPriorityID, err = params.OptionalInt(src, params.FieldQryPriority, 0); err != nil {
		return nil, err
	}

	groups, err := ResolveGroupNames(op, src.Get(params.FieldGroupName), false, s.maxBatch)
	if err != nil {
		return nil, err
	}

	recs, err := s.store.QueryRecords(ctx, filter)
	if err != nil {
		return nil, types.StoreFailure(err, "query flow control rule")
	}

	out := recs[:0]
	for _, rec := range recs {
		if len(groups) > 0 && !groups.Contains(rec.GroupName) {
			continue
		}
		if op.ForbidsDefault() && rec.GroupName.IsDefault() {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
