package domain_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/adshift/adshift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(v domain.Value) (domain.Value, error) {
	n, ok := v.AsNumber()
	if !ok {
		return domain.Value{}, errors.New("expected number")
	}
	return domain.Number(n * 2), nil
}

func TestTransformRegistry_RegisterAndApply(t *testing.T) {
	reg := domain.NewTransformRegistry()
	require.NoError(t, reg.Register("double", double))

	out, err := reg.Apply("double", domain.Int(21))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.Int(42)))
	assert.True(t, reg.Has("double"))
	assert.False(t, reg.Has("triple"))
}

func TestTransformRegistry_Duplicate(t *testing.T) {
	reg := domain.NewTransformRegistry()
	require.NoError(t, reg.Register("double", double))

	err := reg.Register("double", double)
	var dup *domain.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "double", dup.Name)
}

func TestTransformRegistry_Unknown(t *testing.T) {
	reg := domain.NewTransformRegistry()
	_, err := reg.Apply("missing", domain.Null())
	var unknown *domain.UnknownTransformError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)
}

func TestTransformRegistry_ExecutionErrorCarriesInput(t *testing.T) {
	reg := domain.NewTransformRegistry()
	require.NoError(t, reg.Register("double", double))

	_, err := reg.Apply("double", domain.String("x"))
	var exec *domain.TransformExecutionError
	require.ErrorAs(t, err, &exec)
	assert.Equal(t, "double", exec.Transform)
	assert.True(t, exec.Input.Equal(domain.String("x")))
	assert.Contains(t, err.Error(), "expected number")
}

func TestTransformRegistry_Frozen(t *testing.T) {
	reg := domain.NewTransformRegistry()
	require.NoError(t, reg.Register("double", double))
	reg.Freeze()

	assert.True(t, reg.Frozen())
	assert.ErrorIs(t, reg.Register("other", double), domain.ErrRegistryFrozen)
	assert.Equal(t, []string{"double"}, reg.Names())
}

func TestTransformRegistry_ConcurrentApplyAfterFreeze(t *testing.T) {
	reg := domain.NewTransformRegistry()
	require.NoError(t, reg.Register("double", double))
	reg.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := reg.Apply("double", domain.Int(int64(i)))
			assert.NoError(t, err)
			assert.True(t, out.Equal(domain.Int(int64(2*i))))
		}(i)
	}
	wg.Wait()
}

func TestTransformRegistry_NamesSorted(t *testing.T) {
	reg := domain.NewTransformRegistry()
	for _, n := range []string{"c", "a", "b"} {
		require.NoError(t, reg.Register(n, double))
	}
	assert.Equal(t, []string{"a", "b", "c"}, reg.Names())
}
