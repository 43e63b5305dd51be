package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRegistry(t *testing.T) {
	m := New(nil)
	assert.Nil(t, m)

	// all methods tolerate a nil receiver
	m.ObserveRequest("add", "group", true, time.Millisecond)
	m.GroupsChanged("add", 3)
	m.SwallowedFailure("modify")
	m.DigestRun(4, nil)
}

func TestAdminMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObserveRequest("add", "group", true, time.Millisecond)
	m.ObserveRequest("add", "group", false, time.Millisecond)
	m.ObserveRequest("add", "group", false, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("add", "group", ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("add", "group", ResultError)))

	m.GroupsChanged("delete", 3)
	m.GroupsChanged("delete", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.groupsChanged.WithLabelValues("delete")))

	m.SwallowedFailure("modify")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.swallowedTotal.WithLabelValues("modify")))

	m.DigestRun(7, nil)
	m.DigestRun(9, errors.New("boom"))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.storedRules))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.digestRuns.WithLabelValues(ResultError)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
