package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/flowkeeper/internal/core/db"
)

type staticSource struct {
	rows  []db.DigestRow
	err   error
	calls atomic.Int32
}

func (s *staticSource) DigestRows(context.Context) ([]db.DigestRow, error) {
	s.calls.Add(1)
	return s.rows, s.err
}

func TestComputeDigest(t *testing.T) {
	a := db.DigestRow{GroupName: "a", FlowCtrlInfo: "[]", StatusID: 0, QryPriorityID: 301}
	b := db.DigestRow{GroupName: "b", FlowCtrlInfo: "[]", StatusID: 1, QryPriorityID: 201}

	assert.Equal(t, ComputeDigest([]db.DigestRow{a, b}), ComputeDigest([]db.DigestRow{b, a}), "order independent")
	assert.Len(t, ComputeDigest(nil), 64)

	changed := b
	changed.StatusID = 0
	assert.NotEqual(t, ComputeDigest([]db.DigestRow{a, b}), ComputeDigest([]db.DigestRow{a, changed}))
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	src := &staticSource{rows: []db.DigestRow{{GroupName: "a", FlowCtrlInfo: "[]", QryPriorityID: 301}}}
	job, err := NewDigestJob("@every 1h", src, nil, nil)
	require.NoError(t, err)

	first, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, 1, first.Records)

	second, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Hash, second.Hash)

	src.err = errors.New("db down")
	_, err = job.RunOnce(ctx)
	assert.Error(t, err)
}

func TestNewDigestJobNil(t *testing.T) {
	_, err := NewDigestJob("@every 1h", nil, nil, nil)
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	src := &staticSource{}
	job, err := NewDigestJob("@every 1s", src, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop, err := job.Start(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return src.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	stop()
	stop()

	t.Run("invalid schedule", func(t *testing.T) {
		bad, err := NewDigestJob("not a schedule", src, nil, nil)
		require.NoError(t, err)
		_, err = bad.Start(context.Background())
		assert.Error(t, err)
	})
}
