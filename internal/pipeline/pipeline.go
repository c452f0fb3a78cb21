package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// Retry backoff: start at 200ms, double each attempt, cap at 5s.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Source supplies the raw yearly sheets and the station metadata sheet.
type Source interface {
	FetchYear(ctx context.Context, year int) (domain.RawTable, error)
	FetchMetadata(ctx context.Context) ([][]string, error)
}

// Loader delivers a finished result to one destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, res *Result) error
}

// RunOptions controls how the pipeline reacts to failing years.
type RunOptions struct {
	Retries         int
	SkipFailedYears bool
}

// Status is the outcome of the latest run, served on /status.
type Status struct {
	Running  bool      `json:"running"`
	LastRun  time.Time `json:"last_run,omitzero"`
	Years    []int     `json:"years,omitempty"`
	Skipped  []int     `json:"skipped,omitempty"`
	Stations int       `json:"stations"`
	Error    string    `json:"error,omitempty"`
}

// Pipeline orchestrates one extract-transform-load pass over the archive.
type Pipeline struct {
	source      Source
	transformer *Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        RunOptions
	ready       atomic.Bool

	mu     sync.Mutex
	status Status
}

// New creates a Pipeline with the given stages and observability.
func New(s Source, t *Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, opts RunOptions) *Pipeline {
	return &Pipeline{
		source:      s,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once a run has completed successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Status returns a copy of the latest run status.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Run fetches, cleans and merges the given years in order, computes the
// aggregates and hands the result to every loader. Loader failures do not
// stop the remaining loaders; they are joined into the returned error
// alongside the result.
func (p *Pipeline) Run(ctx context.Context, years []int) (*Result, error) {
	p.logger.Info("pipeline started", "years", years)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.setStatus(func(s *Status) { s.Running = true })

	res, err := p.run(ctx, years)

	p.setStatus(func(s *Status) {
		*s = Status{LastRun: domain.Now()}
		if res != nil {
			s.Years, s.Skipped, s.Stations = res.Years, res.Skipped, res.Merge.Stations
		}
		if err != nil {
			s.Error = err.Error()
		}
	})
	if err != nil {
		p.logger.Error("pipeline failed", "error", err)
		return res, err
	}
	p.ready.Store(true)
	p.logger.Info("pipeline finished", "years", res.Years, "skipped", res.Skipped)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, years []int) (*Result, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("run: %w", domain.ErrNoData)
	}

	stations, err := p.extractStations(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]domain.YearFrame, 0, len(years))
	var skipped []int
	for _, year := range years {
		yf, err := p.extractYear(ctx, year)
		if err != nil {
			p.metrics.YearsFailed.Inc()
			if ctx.Err() != nil || !p.opts.SkipFailedYears {
				return nil, err
			}
			p.logger.Warn("year skipped", "year", year, "error", err)
			skipped = append(skipped, year)
			continue
		}
		p.metrics.YearsLoaded.Inc()
		tables = append(tables, yf)
	}

	res, err := p.transformer.Transform(tables, stations)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	res.Skipped = skipped

	return res, p.load(ctx, res)
}

func (p *Pipeline) extractStations(ctx context.Context) (domain.StationIndex, error) {
	var rows [][]string
	err := p.withRetry(ctx, "fetch metadata", func() error {
		var err error
		rows, err = p.source.FetchMetadata(ctx)
		return err
	})
	if err != nil {
		return domain.StationIndex{}, fmt.Errorf("fetch metadata: %w", err)
	}

	records, err := domain.ParseMetadata(rows)
	if err != nil {
		return domain.StationIndex{}, err
	}
	idx := domain.ResolveStations(records)
	p.logger.Info("station metadata loaded", "stations", len(records), "old_codes", len(idx.OldCodes))
	return idx, nil
}

func (p *Pipeline) extractYear(ctx context.Context, year int) (domain.YearFrame, error) {
	var raw domain.RawTable
	err := p.withRetry(ctx, "fetch year", func() error {
		var err error
		raw, err = p.source.FetchYear(ctx, year)
		return err
	})
	if err != nil {
		return domain.YearFrame{}, fmt.Errorf("fetch year %d: %w", year, err)
	}

	start := time.Now()
	yf, err := domain.CleanTable(raw)
	p.metrics.StageDuration.WithLabelValues("clean").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.YearFrame{}, err
	}
	p.metrics.RowsCleaned.Add(float64(yf.Frame.Len()))
	p.logger.Info("year cleaned", "year", year, "rows", yf.Frame.Len(), "stations", yf.Frame.Width())
	return yf, nil
}

func (p *Pipeline) load(ctx context.Context, res *Result) error {
	var errs []error
	for _, l := range p.loaders {
		start := time.Now()
		err := l.Load(ctx, res)
		p.metrics.StageDuration.WithLabelValues("load_" + l.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			p.logger.Error("load failed", "sink", l.Name(), "error", err)
			p.metrics.SinkWrites.WithLabelValues(l.Name(), "error").Inc()
			errs = append(errs, fmt.Errorf("load %s: %w", l.Name(), err))
			continue
		}
		p.metrics.SinkWrites.WithLabelValues(l.Name(), "success").Inc()
	}
	return errors.Join(errs...)
}

// withRetry calls fn up to 1+Retries times with exponential backoff between
// attempts. Cancellation stops retrying immediately.
func (p *Pipeline) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || attempt > p.opts.Retries || ctx.Err() != nil {
			return err
		}
		p.logger.Warn("retrying", "op", op, "attempt", attempt, "backoff", backoff, "error", err)
		if !sleepWithContext(ctx, backoff) {
			return err
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) setStatus(fn func(*Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.status)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
