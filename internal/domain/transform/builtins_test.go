package transform_test

import (
	"testing"

	"github.com/adshift/adshift/internal/domain"
	"github.com/adshift/adshift/internal/domain/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustValue converts a Go literal known to be representable.
func mustValue(x any) domain.Value {
	v, err := domain.FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

func newRegistry(t *testing.T) *domain.TransformRegistry {
	t.Helper()
	reg := domain.NewTransformRegistry()
	require.NoError(t, transform.RegisterBuiltins(reg))
	reg.Freeze()
	return reg
}

func TestRegisterBuiltins_AllNamesAvailable(t *testing.T) {
	reg := newRegistry(t)
	for name := range transform.Builtins() {
		assert.True(t, reg.Has(name), name)
	}
	assert.Len(t, reg.Names(), len(transform.Builtins()))
}

func TestRegisterBuiltins_Twice(t *testing.T) {
	reg := domain.NewTransformRegistry()
	require.NoError(t, transform.RegisterBuiltins(reg))
	var dup *domain.DuplicateNameError
	assert.ErrorAs(t, transform.RegisterBuiltins(reg), &dup)
}

func TestDivideBy100(t *testing.T) {
	reg := newRegistry(t)
	out, err := reg.Apply("divide_by_100", domain.Int(5000))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.Number(50)))

	_, err = reg.Apply("divide_by_100", domain.String("5000"))
	var exec *domain.TransformExecutionError
	assert.ErrorAs(t, err, &exec)
}

func TestMultiplyBy100(t *testing.T) {
	reg := newRegistry(t)
	out, err := reg.Apply("multiply_by_100", domain.Number(0.5))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.Int(50)))
}

func TestExtractCreativeData(t *testing.T) {
	reg := newRegistry(t)
	in := mustValue([]any{
		map[string]any{"image_url": "http://fb.com/a.png", "headline": "Buy now"},
		map[string]any{"image_url": "http://fb.com/b.png"},
	})

	out, err := reg.Apply("extract_creative_data", in)
	require.NoError(t, err)
	want := mustValue([]any{
		map[string]any{"photo_url": "http://fb.com/a.png", "title": "Buy now"},
		map[string]any{"photo_url": "http://fb.com/b.png", "title": nil},
	})
	assert.True(t, want.Equal(out), "got %s", out)
}

func TestExtractTweetCreativeData(t *testing.T) {
	reg := newRegistry(t)
	in := mustValue([]any{map[string]any{"media_url": "http://t.co/x.jpg", "text": "Hello"}})

	out, err := reg.Apply("extract_tweet_creative_data", in)
	require.NoError(t, err)
	first, _ := out.Index(0)
	title, _ := first.Field("title")
	assert.True(t, title.Equal(domain.String("Hello")))
}

func TestExtractCreativeData_RejectsWrongShape(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.Apply("extract_creative_data", domain.String("nope"))
	assert.Error(t, err)

	_, err = reg.Apply("extract_creative_data", domain.List(domain.Int(1)))
	assert.Error(t, err)
}

func TestMapObjective(t *testing.T) {
	out, err := transform.MapObjective(domain.String("link_clicks"))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.String("DRIVE_WEBSITE_TRAFFIC")))

	_, err = transform.MapObjective(domain.String("TELEPATHY"))
	assert.Error(t, err)
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"MyCampaignName":   "my_campaign_name",
		"my campaign-name": "my_campaign_name",
		"already_snake":    "already_snake",
		"HTTPServer2":      "http_server_2",
	}
	for in, want := range tests {
		assert.Equal(t, want, transform.SnakeCase(in), in)
	}
}

func TestStringTransforms(t *testing.T) {
	reg := newRegistry(t)

	out, err := reg.Apply("trim", domain.String("  hi "))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.String("hi")))

	out, err = reg.Apply("uppercase", domain.String("us"))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.String("US")))

	out, err = reg.Apply("strip_diacritics", domain.String("Crème Brûlée"))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.String("Creme Brulee")))

	_, err = reg.Apply("lowercase", domain.Int(1))
	assert.Error(t, err)
}

func TestCastTransforms(t *testing.T) {
	reg := newRegistry(t)

	out, err := reg.Apply("to_integer", domain.String("12"))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.Int(12)))

	out, err = reg.Apply("to_string", domain.Number(1.5))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.String("1.5")))
}

func TestFirstElement(t *testing.T) {
	reg := newRegistry(t)
	out, err := reg.Apply("first_element", mustValue([]any{"a", "b"}))
	require.NoError(t, err)
	assert.True(t, out.Equal(domain.String("a")))

	out, err = reg.Apply("first_element", domain.List())
	require.NoError(t, err)
	assert.True(t, out.IsNull())
}
