package target_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/adshift/adshift/internal/adapters/outbound/target"
	"github.com/adshift/adshift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() domain.CanonicalRecord {
	return domain.NewCanonicalRecord(
		domain.Field{Name: "name", Value: domain.String("Spring")},
		domain.Field{Name: "cpc_bid", Value: domain.Number(0.45)},
	)
}

func submitter(url string) *target.HTTPSubmitter {
	return target.NewHTTPSubmitter(target.HTTPConfig{
		Platform: "taboola",
		URL:      url,
		Headers:  map[string]string{"Authorization": "Bearer t"},
		Timeout:  2 * time.Second,
	})
}

func TestHTTPSubmitter_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Spring", body["name"])
		_, _ = w.Write([]byte(`{"id":"taboola_campaign_98765","status":"PENDING_APPROVAL"}`))
	}))
	defer srv.Close()

	id, err := submitter(srv.URL).CreateCampaign(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, "taboola_campaign_98765", id)
}

func TestHTTPSubmitter_NumericID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":98765}`))
	}))
	defer srv.Close()

	id, err := submitter(srv.URL).CreateCampaign(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, "98765", id)
}

func TestHTTPSubmitter_MissingIDReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	id, err := submitter(srv.URL).CreateCampaign(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestHTTPSubmitter_RejectedIsFailure(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "cpc_bid too low", status)
		}))

		_, err := submitter(srv.URL).CreateCampaign(context.Background(), sampleRecord())
		var se *domain.SubmissionError
		require.ErrorAs(t, err, &se)
		assert.False(t, se.Partial)
		assert.Contains(t, se.Error(), "cpc_bid too low")
		srv.Close()
	}
}

func TestHTTPSubmitter_TimeoutAfterWriteIsPartial(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := target.NewHTTPSubmitter(target.HTTPConfig{Platform: "taboola", URL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := s.CreateCampaign(context.Background(), sampleRecord())
	var se *domain.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Partial)
}

func TestHTTPSubmitter_ConnectionRefusedIsNotPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := submitter(url).CreateCampaign(context.Background(), sampleRecord())
	var se *domain.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Partial)
}

func TestHTTPSubmitter_GarbledSuccessIsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := submitter(srv.URL).CreateCampaign(context.Background(), sampleRecord())
	var se *domain.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Partial)
}

func TestMemorySubmitter(t *testing.T) {
	m := target.NewMemorySubmitter("taboola")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := m.CreateCampaign(context.Background(), sampleRecord())
			assert.NoError(t, err)
			assert.Contains(t, id, "taboola_")
		}()
	}
	wg.Wait()

	created := m.Created()
	require.Len(t, created, 10)
	ids := map[string]bool{}
	for _, c := range created {
		ids[c.ID] = true
	}
	assert.Len(t, ids, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.CreateCampaign(ctx, sampleRecord())
	assert.ErrorIs(t, err, context.Canceled)
}
