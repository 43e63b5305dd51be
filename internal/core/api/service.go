// Package api implements the flow-control rule admin operations and their HTTP routes.
package api

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/flowkeeper/internal/core/config"
	"github.com/solatis/flowkeeper/internal/metrics"
	"github.com/solatis/flowkeeper/internal/types"
)

// Operation names used in logs, metrics and the legacy method table.
const (
	opAdd    = "add"
	opDelete = "delete"
	opModify = "modify"
	opQuery  = "query"
)

// Store is the persistent store the admin operations run against.
// Implemented by *db.FlowCtrlStore.
type Store interface {
	AddRecord(ctx context.Context, rec *types.FlowControlRecord) error
	DeleteRecords(ctx context.Context, names types.GroupSet) (int, error)
	UpdateRecord(ctx context.Context, rec *types.FlowControlRecord) error
	// GetRecord returns nil, nil when name has no record.
	GetRecord(ctx context.Context, name types.GroupName) (*types.FlowControlRecord, error)
	QueryRecords(ctx context.Context, filter types.RecordFilter) ([]*types.FlowControlRecord, error)
}

// Authorizer verifies confModAuthToken. Implemented by *auth.Authorizer.
type Authorizer interface {
	Authorize(ctx context.Context, token string) error
}

// AdminService implements Add, Delete, Modify and Query.
// Holds no per-request state; the store is the only shared resource.
type AdminService struct {
	store    Store
	authz    Authorizer
	logger   *zap.Logger
	metrics  *metrics.AdminMetrics
	maxBatch int
	now      func() time.Time
}

// NewAdminService creates service instance with dependencies.
// logger and m may be nil.
func NewAdminService(store Store, authz Authorizer, cfg *config.AdminAPIConfig, logger *zap.Logger, m *metrics.AdminMetrics) (*AdminService, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if authz == nil {
		return nil, fmt.Errorf("authz cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AdminService{
		store:    store,
		authz:    authz,
		logger:   logger.Named("admin"),
		metrics:  m,
		maxBatch: cfg.MaxBatchSize,
		now:      time.Now,
	}, nil
}

// finish logs and records the outcome of one operation.
func (s *AdminService) finish(operation string, op types.OpType, start time.Time, changed int, err error) {
	elapsed := s.now().Sub(start)
	s.metrics.ObserveRequest(operation, op.String(), err == nil, elapsed)

	fields := []zap.Field{
		zap.String("op", operation),
		zap.Int("op_type", int(op)),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		s.logger.Info("flow rule request rejected", append(fields, zap.Stringer("kind", types.KindOf(err)), zap.Error(err))...)
		return
	}
	s.metrics.GroupsChanged(operation, changed)
	s.logger.Info("flow rule request completed", append(fields, zap.Int("groups", changed))...)
}
