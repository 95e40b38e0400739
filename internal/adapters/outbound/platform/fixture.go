package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adshift/adshift/internal/domain"
)

// FixtureFetcher reads campaigns from {dir}/{id}.json.
type FixtureFetcher struct {
	platform string
	dir      string
}

func NewFixtureFetcher(platform, dir string) *FixtureFetcher {
	return &FixtureFetcher{platform: platform, dir: dir}
}

func (f *FixtureFetcher) FetchCampaign(ctx context.Context, id string) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, &domain.SourceFetchError{Platform: f.platform, CampaignID: id, Err: fmt.Errorf("invalid campaign id %q", id)}
	}

	file, err := os.Open(filepath.Join(f.dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.NotFoundError{Platform: f.platform, CampaignID: id}
		}
		return nil, &domain.SourceFetchError{Platform: f.platform, CampaignID: id, Err: err}
	}
	defer file.Close()

	raw, err := DecodeRecord(file)
	if err != nil {
		return nil, &domain.SourceFetchError{Platform: f.platform, CampaignID: id, Err: fmt.Errorf("%s.json: %w", id, err)}
	}
	return raw, nil
}
