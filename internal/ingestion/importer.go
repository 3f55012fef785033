// Package ingestion imports daily activity samples into the WalkPoints
// store. Samples arrive as JSON lines, one day per line:
//
//	{"day":"2024-03-01","steps":10432,"distance_m":7928.3,"active_minutes":94}
//
// A reader goroutine parses lines onto a buffered channel and a flush
// goroutine batches them into single transactions, committing every
// BatchSize samples and once more at end of input. Each committed batch
// also advances the milestones in progress.
package ingestion

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

// stepsPerActiveMinute estimates active minutes when a sample omits them.
const stepsPerActiveMinute = 110

// Config holds configuration for an import run.
type Config struct {
	// BatchSize is the maximum number of days per transaction.
	BatchSize int `json:"batch_size"`

	// StrideM estimates distance when a sample omits it.
	StrideM float64 `json:"stride_m"`
}

// DefaultConfig returns sensible defaults for importing.
func DefaultConfig() Config {
	return Config{
		BatchSize: 500,
		StrideM:   0.76,
	}
}

// Sample is one line of import input.
type Sample struct {
	Day           string   `json:"day"`
	Steps         int      `json:"steps"`
	DistanceM     *float64 `json:"distance_m,omitempty"`
	ActiveMinutes *int     `json:"active_minutes,omitempty"`
}

// Metrics tracks the outcome of an import run.
type Metrics struct {
	LinesRead           int64 `json:"lines_read"`
	Imported            int64 `json:"imported"`
	Skipped             int64 `json:"skipped"`
	BatchesCommitted    int64 `json:"batches_committed"`
	MilestonesCompleted int64 `json:"milestones_completed"`
}

// Importer streams samples from a reader into a store.
type Importer struct {
	config  Config
	store   database.Store
	log     *zap.Logger
	now     func() time.Time
	metrics Metrics
}

// NewImporter creates an importer. A nil logger discards output.
func NewImporter(config Config, store database.Store, log *zap.Logger) *Importer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.StrideM <= 0 {
		config.StrideM = DefaultConfig().StrideM
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		config: config,
		store:  store,
		log:    log,
		now:    time.Now,
	}
}

// Metrics returns a snapshot of the current import metrics.
func (im *Importer) Metrics() Metrics {
	return Metrics{
		LinesRead:           atomic.LoadInt64(&im.metrics.LinesRead),
		Imported:            atomic.LoadInt64(&im.metrics.Imported),
		Skipped:             atomic.LoadInt64(&im.metrics.Skipped),
		BatchesCommitted:    atomic.LoadInt64(&im.metrics.BatchesCommitted),
		MilestonesCompleted: atomic.LoadInt64(&im.metrics.MilestonesCompleted),
	}
}

// Import reads every line of r and stores the valid samples. Malformed
// lines are logged and skipped; storage errors abort the run. Batches
// committed before an error stay committed.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Metrics, error) {
	if err := ctx.Err(); err != nil {
		return im.Metrics(), err
	}

	days := make(chan *database.DailyActivity, im.config.BatchSize*2)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(days)
		return im.readLoop(ctx, r, days)
	})
	g.Go(func() error {
		return im.flushLoop(ctx, days)
	})

	err := g.Wait()
	m := im.Metrics()
	im.log.Info("import finished",
		zap.Int64("lines", m.LinesRead),
		zap.Int64("imported", m.Imported),
		zap.Int64("skipped", m.Skipped),
		zap.Int64("batches", m.BatchesCommitted),
		zap.Error(err))
	return m, err
}

// readLoop parses lines onto days until input ends or ctx is done.
func (im *Importer) readLoop(ctx context.Context, r io.Reader, days chan<- *database.DailyActivity) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		atomic.AddInt64(&im.metrics.LinesRead, 1)

		day, err := im.parse(raw)
		if err != nil {
			im.log.Warn("skipping sample", zap.Int("line", line), zap.Error(err))
			atomic.AddInt64(&im.metrics.Skipped, 1)
			continue
		}

		select {
		case days <- day:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading samples: %w", err)
	}
	return nil
}

// parse decodes and validates one sample, filling estimated fields.
func (im *Importer) parse(raw []byte) (*database.DailyActivity, error) {
	var s Sample
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling sample: %w", err)
	}
	if _, err := timeutil.ParseDay(s.Day); err != nil {
		return nil, err
	}
	if s.Steps < 0 {
		return nil, fmt.Errorf("negative steps %d for %s", s.Steps, s.Day)
	}

	a := &database.DailyActivity{
		Day:           s.Day,
		Steps:         s.Steps,
		DistanceM:     float64(s.Steps) * im.config.StrideM,
		ActiveMinutes: s.Steps / stepsPerActiveMinute,
	}
	if s.DistanceM != nil {
		a.DistanceM = *s.DistanceM
	}
	if s.ActiveMinutes != nil {
		a.ActiveMinutes = *s.ActiveMinutes
	}
	return a, nil
}

// flushLoop batches days into transactions of at most BatchSize.
func (im *Importer) flushLoop(ctx context.Context, days <-chan *database.DailyActivity) error {
	buf := make([]*database.DailyActivity, 0, im.config.BatchSize)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := im.store.BatchUpsertActivities(buf); err != nil {
			return fmt.Errorf("flushing %d samples: %w", len(buf), err)
		}
		atomic.AddInt64(&im.metrics.Imported, int64(len(buf)))
		atomic.AddInt64(&im.metrics.BatchesCommitted, 1)

		best := 0
		for _, d := range buf {
			best = max(best, d.Steps)
		}
		done, err := im.store.AdvanceMilestones(best, im.now().UnixNano())
		if err != nil {
			return fmt.Errorf("advancing milestones: %w", err)
		}
		for _, m := range done {
			im.log.Info("milestone completed",
				zap.String("milestone_id", m.MilestoneID),
				zap.Int("target_steps", m.TargetSteps),
				zap.Int("points", m.Points))
		}
		atomic.AddInt64(&im.metrics.MilestonesCompleted, int64(len(done)))

		im.log.Debug("batch committed", zap.Int("size", len(buf)))
		buf = buf[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-days:
			if !ok {
				return flush()
			}
			buf = append(buf, d)
			if len(buf) >= im.config.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
}
