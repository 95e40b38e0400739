package mapping_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/adshift/adshift/internal/domain"
	"github.com/adshift/adshift/internal/domain/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaStore_LoadAndList(t *testing.T) {
	store, err := mapping.NewSchemaStore(newRegistry(t),
		domain.SchemaDefinition{Platform: "Twitter", Fields: []domain.FieldMapping{{Source: "name", Target: "name"}}},
		budgetSchema(),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"example", "twitter"}, store.ListPlatforms())

	def, err := store.Load("TWITTER")
	require.NoError(t, err)
	assert.Equal(t, "twitter", def.Platform)

	_, err = store.Load("myspace")
	var nf *domain.SchemaNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "myspace", nf.Platform)
}

func TestSchemaStore_RejectsUnknownTransformAtConstruction(t *testing.T) {
	_, err := mapping.NewSchemaStore(newRegistry(t), domain.SchemaDefinition{
		Platform: "facebook",
		Fields:   []domain.FieldMapping{{Source: "a", Target: "a", Transform: "teleport"}},
	})
	var invalid *domain.InvalidSchemaError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), `unknown transform "teleport"`)
}

func TestSchemaStore_RejectsDuplicatePlatform(t *testing.T) {
	_, err := mapping.NewSchemaStore(newRegistry(t), budgetSchema(), budgetSchema())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestSchemaStore_SwapIsAtomic(t *testing.T) {
	store, err := mapping.NewSchemaStore(newRegistry(t), budgetSchema())
	require.NoError(t, err)

	// failed swap keeps the previous set
	err = store.Swap(domain.SchemaDefinition{Platform: "broken"})
	require.Error(t, err)
	assert.Equal(t, []string{"example"}, store.ListPlatforms())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			def := budgetSchema()
			def.Platform = fmt.Sprintf("p%d", i)
			assert.NoError(t, store.Swap(budgetSchema(), def))
		}(i)
		go func() {
			defer wg.Done()
			_, err := store.Load("example")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, store.ListPlatforms(), 2)
}

type fetcherFunc func(ctx context.Context, id string) (domain.RawRecord, error)

func (f fetcherFunc) FetchCampaign(ctx context.Context, id string) (domain.RawRecord, error) {
	return f(ctx, id)
}

func TestAdapter_FetchWrapsUntypedErrors(t *testing.T) {
	a := mapping.NewAdapter("facebook", fetcherFunc(func(context.Context, string) (domain.RawRecord, error) {
		return nil, errors.New("socket closed")
	}), mapping.NewMapper(newRegistry(t)))

	_, err := a.Fetch(context.Background(), "42")
	var fe *domain.SourceFetchError
	require.ErrorAs(t, err, &fe)
	assert.False(t, fe.Retryable)
	assert.Equal(t, "facebook", fe.Platform)
	assert.Equal(t, "42", fe.CampaignID)
}

func TestAdapter_FetchPassesTypedErrors(t *testing.T) {
	a := mapping.NewAdapter("facebook", fetcherFunc(func(_ context.Context, id string) (domain.RawRecord, error) {
		return nil, &domain.NotFoundError{Platform: "facebook", CampaignID: id}
	}), mapping.NewMapper(newRegistry(t)))

	_, err := a.Fetch(context.Background(), "42")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	c := mapping.NewAdapter("facebook", fetcherFunc(func(ctx context.Context, _ string) (domain.RawRecord, error) {
		return nil, ctx.Err()
	}), mapping.NewMapper(newRegistry(t)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Fetch(ctx, "42")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdapterSet(t *testing.T) {
	m := mapping.NewMapper(newRegistry(t))
	noop := fetcherFunc(func(context.Context, string) (domain.RawRecord, error) { return domain.RawRecord{}, nil })
	set := mapping.NewAdapterSet(mapping.NewAdapter("Twitter", noop, m), mapping.NewAdapter("facebook", noop, m))

	assert.Equal(t, []string{"facebook", "twitter"}, set.Platforms())

	a, err := set.Get("twitter")
	require.NoError(t, err)
	assert.Equal(t, "twitter", a.Platform())

	_, err = set.Get("tiktok")
	var up *domain.UnsupportedPlatformError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "source", up.Role)
}
