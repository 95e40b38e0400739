package platform

import (
	"context"

	"github.com/adshift/adshift/internal/domain"
)

// SampleFetcher answers every request with a copy of a fixed sample
// campaign whose "id" is set to the requested id. It backs demo mode.
type SampleFetcher struct {
	sample domain.RawRecord
}

func NewSampleFetcher(sample domain.RawRecord) *SampleFetcher {
	return &SampleFetcher{sample: sample.Clone()}
}

func (f *SampleFetcher) FetchCampaign(ctx context.Context, id string) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := f.sample.Clone()
	raw["id"] = domain.String(id)
	return raw, nil
}
