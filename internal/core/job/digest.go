// Package job runs background work for the admin API.
package job

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/solatis/flowkeeper/internal/core/db"
	"github.com/solatis/flowkeeper/internal/metrics"
)

// DigestSource lists the fields that define the enforced rules.
// Implemented by *db.FlowCtrlStore.
type DigestSource interface {
	DigestRows(ctx context.Context) ([]db.DigestRow, error)
}

// Digest summarizes the stored rules at one point in time.
type Digest struct {
	Hash    string
	Records int
	Changed bool // Hash differs from the previous run
}

// DigestJob periodically hashes all flow control records so operators can
// tell from logs and metrics when the rule set brokers see has changed.
type DigestJob struct {
	schedule string
	source   DigestSource
	logger   *zap.Logger
	metrics  *metrics.AdminMetrics

	mu      sync.Mutex
	running bool
	last    string
}

// NewDigestJob creates a job on the cron schedule. logger and m may be nil.
func NewDigestJob(schedule string, source DigestSource, logger *zap.Logger, m *metrics.AdminMetrics) (*DigestJob, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestJob{
		schedule: strings.TrimSpace(schedule),
		source:   source,
		logger:   logger.Named("digest"),
		metrics:  m,
	}, nil
}

// Start schedules the job and returns a stop function.
// The schedule also stops when parent is cancelled.
func (j *DigestJob) Start(parent context.Context) (func(), error) {
	c := cron.New()
	id, err := c.AddFunc(j.schedule, func() { j.tick(parent) })
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", j.schedule, err)
	}
	c.Start()
	j.logger.Info("digest job started", zap.String("cron", j.schedule), zap.Time("next", c.Entry(id).Next))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			<-c.Stop().Done()
			j.logger.Info("digest job stopped")
		})
	}
	go func() {
		<-parent.Done()
		stop()
	}()
	return stop, nil
}

// tick runs one scheduled digest, skipping when the previous one is still running.
func (j *DigestJob) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.logger.Warn("previous digest still running, skip current schedule")
		return
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	start := time.Now()
	d, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("digest failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	j.logger.Info("digest completed",
		zap.String("digest", d.Hash),
		zap.Int("records", d.Records),
		zap.Bool("changed", d.Changed),
		zap.Duration("duration", time.Since(start)),
	)
}

// RunOnce computes the digest now.
func (j *DigestJob) RunOnce(ctx context.Context) (Digest, error) {
	rows, err := j.source.DigestRows(ctx)
	j.metrics.DigestRun(len(rows), err)
	if err != nil {
		return Digest{}, err
	}

	hash := ComputeDigest(rows)

	j.mu.Lock()
	changed := hash != j.last
	j.last = hash
	j.mu.Unlock()

	return Digest{Hash: hash, Records: len(rows), Changed: changed}, nil
}

// ComputeDigest hashes rows independent of their order.
// Each row contributes group_name:flow_ctrl_info:status_id:qry_priority_id.
func ComputeDigest(rows []db.DigestRow) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{
			r.GroupName,
			r.FlowCtrlInfo,
			strconv.Itoa(r.StatusID),
			strconv.Itoa(r.QryPriorityID),
		}, ":"))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
