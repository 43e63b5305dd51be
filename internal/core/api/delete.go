package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/flowkeeper/internal/core/params"
	"github.com/solatis/flowkeeper/internal/types"
)

// Delete removes the records of the resolved groups in one store call.
// Groups without a record are ignored.
func (s *AdminService) Delete(ctx context.Context, op types.OpType, src params.Source) Envelope {
	start := s.now()
	n, err := s.delete(ctx, op, src)
	s.finish(opDelete, op, start, n, err)
	if err != nil {
		return Failure(err)
	}
	return Success()
}

func (s *AdminService) delete(ctx context.Context, op types.OpType, src params.Source) (int, error) {
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

	n, err := s.store.DeleteRecords(ctx, groups)
	if err != nil {
		return 0, types.StoreFailure(err, "delete flow control rule")
	}

	s.logger.Info("flow rules deleted",
		zap.Strings("groups", groups.Strings()),
		zap.Int("deleted", n),
		zap.String("modify_user", modifyUser),
		zap.Time("modify_date", modifyDate),
	)
	return n, nil
}

// auditFields validates createUser and createDate of a mutating request.
// They identify who changed the rules and are never stored over the create fields.
func (s *AdminService) auditFields(src params.Source) (string, time.Time, error) {
	user, err := params.String(src, params.FieldCreateUser, types.MaxUserNameLength, true, "")
	if err != nil {
		return "", time.Time{}, err
	}
	date, err := params.Date(src, params.FieldCreateDate, false, s.now().UTC().Truncate(time.Second))
	if err != nil {
		return "", time.Time{}, err
	}
	return user, date, nil
}
