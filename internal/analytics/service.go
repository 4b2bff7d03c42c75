package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrSnapshotNotFound is returned when a snapshot id is unknown or expired.
	ErrSnapshotNotFound = errors.New("analytics: snapshot not found")
	// ErrSnapshotsDisabled is returned when snapshots are requested without Redis.
	ErrSnapshotsDisabled = errors.New("analytics: snapshots require redis")
	// ErrSourceMissing is returned when no dataset source has been configured.
	ErrSourceMissing = errors.New("analytics: dataset source not configured")
)

const (
	defaultSnapshotTTL = 30 * time.Minute
	buildTimeout       = 20 * time.Second
)

// DatasetSource supplies validated period datasets.
type DatasetSource interface {
	Load(ctx context.Context, period string) (Dataset, error)
	Periods(ctx context.Context) ([]string, error)
	// Fingerprint returns a token that changes whenever the period dataset changes.
	Fingerprint(ctx context.Context, period string) (string, error)
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to stamp reports.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithSnapshotTTL sets how long ad-hoc snapshots are retained.
func WithSnapshotTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.snapshotTTL = ttl
		}
	}
}

// Service coordinates dataset loading and aggregation with the cache layer.
type Service struct {
	source      DatasetSource
	cache       *Cache
	snapshotTTL time.Duration
	builds      singleflight.Group
	now         func() time.Time
}

// NewService wires a DatasetSource with a Cache helper. A nil cache disables
// caching and snapshots.
func NewService(source DatasetSource, cache *Cache, opts ...ServiceOption) *Service {
	s := &Service{
		source:      source,
		cache:       cache,
		snapshotTTL: defaultSnapshotTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Periods lists the reporting periods known to the source.
func (s *Service) Periods(ctx context.Context) ([]string, error) {
	if s.source == nil {
		return nil, ErrSourceMissing
	}
	return s.source.Periods(ctx)
}

// Report returns the derived report for a period, served from cache while
// the source fingerprint is unchanged.
func (s *Service) Report(ctx context.Context, period string) (Report, error) {
	if s.source == nil {
		return Report{}, ErrSourceMissing
	}
	fingerprint, err := s.source.Fingerprint(ctx, period)
	if err != nil {
		return Report{}, err
	}
	keyBase := keyReport(period, fingerprint)
	value, err, _ := s.buildOnce(ctx, keyBase, func(ctx context.Context) (interface{}, error) {
		return s.fetchReport(ctx, period, keyBase)
	})
	if err != nil {
		return Report{}, err
	}
	return value.(Report), nil
}

// Compute aggregates an ad-hoc dataset without touching the source or cache.
func (s *Service) Compute(dataset Dataset) Report {
	return BuildReport(dataset, s.now())
}

// SaveSnapshot keeps an ad-hoc report for later retrieval and returns its id.
func (s *Service) SaveSnapshot(ctx context.Context, report Report) (string, error) {
	if s.cache == nil || s.cache.client == nil {
		return "", ErrSnapshotsDisabled
	}
	id := uuid.NewString()
	if err := s.cache.SetJSON(ctx, keySnapshot(id), report, s.snapshotTTL); err != nil {
		return "", err
	}
	return id, nil
}

// LoadSnapshot fetches a report stored by SaveSnapshot.
func (s *Service) LoadSnapshot(ctx context.Context, id string) (Report, error) {
	if s.cache == nil || s.cache.client == nil {
		return Report{}, ErrSnapshotsDisabled
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Report{}, ErrSnapshotNotFound
	}
	var report Report
	found, err := s.cache.GetJSON(ctx, keySnapshot(parsed.String()), &report)
	if err != nil {
		return Report{}, err
	}
	if !found {
		return Report{}, ErrSnapshotNotFound
	}
	return report, nil
}

// Invalidate drops every cached report by bumping the cache version.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) fetchReport(ctx context.Context, period, keyBase string) (Report, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		start := time.Now()
		dataset, err := s.source.Load(ctx, period)
		if err != nil {
			return nil, err
		}
		if dataset.Period == "" {
			dataset.Period = period
		}
		report := BuildReport(dataset, s.now())
		observeBuildDuration(period, time.Since(start))
		return report, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Report{}, err
		}
		recordCacheMiss(period)
		return value.(Report), nil
	}

	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return Report{}, err
	}
	var report Report
	hit, err := s.cache.FetchJSON(ctx, key, &report, loader)
	if err != nil {
		return Report{}, err
	}
	if hit {
		recordCacheHit(period)
	} else {
		recordCacheMiss(period)
	}
	return report, nil
}

func (s *Service) buildOnce(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	// The build is shared, so it must outlive any single caller.
	resultChan := s.builds.DoChan(key, func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		return fn(buildCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
