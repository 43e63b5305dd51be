package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/flowkeeper/internal/types"
)

// FlowCtrlStore persists flow control records in the group_flow_ctrl table.
// Writes are last-writer-wins; no version column is kept.
type FlowCtrlStore struct {
	queries *Queries
}

// NewFlowCtrlStore creates a store backed by queries.
func NewFlowCtrlStore(queries *Queries) (*FlowCtrlStore, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	return &FlowCtrlStore{queries: queries}, nil
}

// AddRecord inserts rec. Returns types.ErrRecordExists when the group
// already has a record.
func (s *FlowCtrlStore) AddRecord(ctx context.Context, rec *types.FlowControlRecord) error {
	res, err := s.queries.Exec(ctx, "insert-flow-ctrl",
		string(rec.GroupName),
		rec.FlowCtrlInfo,
		rec.StatusID,
		rec.RuleCnt,
		rec.QryPriorityID,
		rec.CreateUser,
		rec.CreateDate.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.GroupName, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.GroupName, err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", rec.GroupName, types.ErrRecordExists)
	}
	return nil
}

// DeleteRecords removes the records of names and returns how many existed.
func (s *FlowCtrlStore) DeleteRecords(ctx context.Context, names types.GroupSet) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	res, err := s.queries.ExecIn(ctx, "delete-flow-ctrl", names.Strings())
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return int(n), nil
}

// UpdateRecord overwrites the mutable fields of rec: rule text, rule count,
// status and priority. The create fields are never rewritten.
func (s *FlowCtrlStore) UpdateRecord(ctx context.Context, rec *types.FlowControlRecord) error {
	res, err := s.queries.Exec(ctx, "update-flow-ctrl",
		rec.FlowCtrlInfo,
		rec.StatusID,
		rec.RuleCnt,
		rec.QryPriorityID,
		string(rec.GroupName),
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.GroupName, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.GroupName, err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", rec.GroupName, types.ErrRecordNotFound)
	}
	return nil
}

// GetRecord returns the record of name, or nil, nil when none is stored.
func (s *FlowCtrlStore) GetRecord(ctx context.Context, name types.GroupName) (*types.FlowControlRecord, error) {
	var rec types.FlowControlRecord
	err := s.queries.Get(ctx, "get-flow-ctrl", &rec, string(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	rec.CreateDate = rec.CreateDate.UTC()
	return &rec, nil
}

// QueryRecords returns records matching filter, ordered by group name.
func (s *FlowCtrlStore) QueryRecords(ctx context.Context, filter types.RecordFilter) ([]*types.FlowControlRecord, error) {
	base, err := s.queries.Raw("select-flow-ctrl")
	if err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if filter.StatusID != nil {
		conds = append(conds, "status_id = ?")
		args = append(args, *filter.StatusID)
	}
	if filter.QryPriorityID != nil {
		conds = append(conds, "qry_priority_id = ?")
		args = append(args, *filter.QryPriorityID)
	}
	if filter.CreateUser != "" {
		conds = append(conds, "create_user = ?")
		args = append(args, filter.CreateUser)
	}

	query := base
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY group_name"

	db := s.queries.DB()
	var recs []*types.FlowControlRecord
	if err := sqlx.SelectContext(ctx, db, &recs, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	for _, rec := range recs {
		rec.CreateDate = rec.CreateDate.UTC()
	}
	return recs, nil
}

// DigestRow is the subset of a record that identifies its enforced rules.
type DigestRow struct {
	GroupName     string `db:"group_name"`
	FlowCtrlInfo  string `db:"flow_ctrl_info"`
	StatusID      int    `db:"status_id"`
	QryPriorityID int    `db:"qry_priority_id"`
}

// DigestRows returns every record's digest fields ordered by group name.
func (s *FlowCtrlStore) DigestRows(ctx context.Context) ([]DigestRow, error) {
	var rows []DigestRow
	if err := s.queries.Select(ctx, "list-flow-ctrl-digest", &rows); err != nil {
		return nil, fmt.Errorf("list digest rows: %w", err)
	}
	return rows, nil
}
