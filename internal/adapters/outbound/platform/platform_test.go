package platform_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adshift/adshift/internal/adapters/outbound/platform"
	"github.com/adshift/adshift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v19.0/fb%201", r.URL.EscapedPath())
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Spring","daily_budget":20.5,"targeting":{"geo":"us"}}`))
	}))
	defer srv.Close()

	f := platform.NewHTTPFetcher(platform.HTTPConfig{
		Platform:     "facebook",
		BaseURL:      srv.URL + "/",
		PathTemplate: "/v19.0/{id}",
		Headers:      map[string]string{"Authorization": "Bearer token"},
	})
	raw, err := f.FetchCampaign(context.Background(), "fb 1")
	require.NoError(t, err)
	assert.True(t, raw["name"].Equal(domain.String("Spring")))
	assert.True(t, raw["daily_budget"].Equal(domain.Number(20.5)))
	geo, ok := raw["targeting"].Field("geo")
	require.True(t, ok)
	assert.True(t, geo.Equal(domain.String("us")))
}

func TestHTTPFetcher_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		notFound  bool
		retryable bool
	}{
		{http.StatusNotFound, true, false},
		{http.StatusRequestTimeout, false, true},
		{http.StatusTooManyRequests, false, true},
		{http.StatusInternalServerError, false, true},
		{http.StatusBadGateway, false, true},
		{http.StatusUnauthorized, false, false},
		{http.StatusBadRequest, false, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			f := platform.NewHTTPFetcher(platform.HTTPConfig{Platform: "facebook", BaseURL: srv.URL})
			_, err := f.FetchCampaign(context.Background(), "1")
			require.Error(t, err)

			var nf *domain.NotFoundError
			assert.Equal(t, tt.notFound, errors.As(err, &nf))
			if !tt.notFound {
				var fe *domain.SourceFetchError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tt.retryable, fe.Retryable)
				assert.Contains(t, fe.Error(), "nope")
			}
		})
	}
}

func TestHTTPFetcher_TransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := platform.NewHTTPFetcher(platform.HTTPConfig{Platform: "facebook", BaseURL: url})
	_, err := f.FetchCampaign(context.Background(), "1")
	assert.True(t, domain.IsRetryable(err))
}

func TestHTTPFetcher_MalformedBodyIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	f := platform.NewHTTPFetcher(platform.HTTPConfig{Platform: "facebook", BaseURL: srv.URL})
	_, err := f.FetchCampaign(context.Background(), "1")
	var fe *domain.SourceFetchError
	require.ErrorAs(t, err, &fe)
	assert.False(t, fe.Retryable)
}

func TestHTTPFetcher_HonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	f := platform.NewHTTPFetcher(platform.HTTPConfig{Platform: "facebook", BaseURL: srv.URL})
	_, err := f.FetchCampaign(ctx, "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPFetcher_ClientTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := platform.NewHTTPFetcher(platform.HTTPConfig{Platform: "facebook", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := f.FetchCampaign(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, domain.ErrKindSourceFetch, domain.KindOf(err))

	report := &domain.MigrationReport{}
	report.Fail(domain.StageFetching, err)
	assert.Equal(t, domain.ErrKindSourceFetch, report.Error.Kind)
	assert.True(t, report.Error.Retryable)
}

func TestHTTPFetcher_RateLimited(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := platform.NewHTTPFetcher(platform.HTTPConfig{Platform: "facebook", BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	_, err := f.FetchCampaign(context.Background(), "1")
	require.NoError(t, err)

	// the bucket is empty and refills far beyond the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.FetchCampaign(ctx, "2")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFixtureFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fb-1.json"), []byte(`{"name":"Fixture"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0644))
	f := platform.NewFixtureFetcher("facebook", dir)

	raw, err := f.FetchCampaign(context.Background(), "fb-1")
	require.NoError(t, err)
	assert.True(t, raw["name"].Equal(domain.String("Fixture")))

	_, err = f.FetchCampaign(context.Background(), "missing")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = f.FetchCampaign(context.Background(), "broken")
	var fe *domain.SourceFetchError
	require.ErrorAs(t, err, &fe)
	assert.False(t, fe.Retryable)

	_, err = f.FetchCampaign(context.Background(), "../etc/passwd")
	assert.ErrorAs(t, err, &fe)
}

func TestSampleFetcher(t *testing.T) {
	sample := domain.RawRecord{"name": domain.String("Demo")}
	f := platform.NewSampleFetcher(sample)

	raw, err := f.FetchCampaign(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, raw["id"].Equal(domain.String("abc")))
	assert.True(t, raw["name"].Equal(domain.String("Demo")))
	_, mutated := sample["id"]
	assert.False(t, mutated)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchCampaign(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}
