package mapping

import (
	"context"
	"errors"
	"sort"

	"github.com/adshift/adshift/internal/domain"
)

// Adapter pairs a platform-specific fetch strategy with the shared mapper.
type Adapter struct {
	platform string
	fetcher  domain.CampaignFetcher
	mapper   *Mapper
}

func NewAdapter(platform string, fetcher domain.CampaignFetcher, mapper *Mapper) *Adapter {
	return &Adapter{platform: normalizePlatform(platform), fetcher: fetcher, mapper: mapper}
}

func (a *Adapter) Platform() string { return a.platform }

// Fetch reads one campaign. Untyped fetcher errors are reported as
// non-retryable fetch failures.
func (a *Adapter) Fetch(ctx context.Context, campaignID string) (domain.RawRecord, error) {
	raw, err := a.fetcher.FetchCampaign(ctx, campaignID)
	if err == nil {
		return raw, nil
	}

	var (
		fetchErr *domain.SourceFetchError
		notFound *domain.NotFoundError
	)
	switch {
	case errors.As(err, &fetchErr), errors.As(err, &notFound):
		return nil, err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, &domain.SourceFetchError{Platform: a.platform, CampaignID: campaignID, Err: err}
	}
}

// Map converts raw using schema and returns the warnings of the mappings
// that fell back to their default.
func (a *Adapter) Map(raw domain.RawRecord, schema domain.SchemaDefinition) (domain.CanonicalRecord, []string, error) {
	return a.mapper.MapWithWarnings(raw, schema)
}

// AdapterSet resolves adapters by source platform.
type AdapterSet struct {
	adapters map[string]*Adapter
}

func NewAdapterSet(adapters ...*Adapter) *AdapterSet {
	set := &AdapterSet{adapters: make(map[string]*Adapter, len(adapters))}
	for _, a := range adapters {
		set.adapters[a.platform] = a
	}
	return set
}

// Get returns the adapter for platform.
func (s *AdapterSet) Get(platform string) (*Adapter, error) {
	a, ok := s.adapters[normalizePlatform(platform)]
	if !ok {
		return nil, &domain.UnsupportedPlatformError{Platform: platform, Role: "source"}
	}
	return a, nil
}

// Platforms returns the supported source platforms, sorted.
func (s *AdapterSet) Platforms() []string {
	out := make([]string, 0, len(s.adapters))
	for p := range s.adapters {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
