package config_test

import (
	"os"
	"path/filepath"
	"testing"

	appconfig "github.com/adshift/adshift/internal/adapters/outbound/config"
	"github.com/adshift/adshift/internal/domain"
	"github.com/adshift/adshift/internal/domain/mapping"
	"github.com/adshift/adshift/internal/domain/transform"
	"github.com/adshift/adshift/internal/domain/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinRegistry(t *testing.T) *domain.TransformRegistry {
	t.Helper()
	reg := domain.NewTransformRegistry()
	require.NoError(t, transform.RegisterBuiltins(reg))
	reg.Freeze()
	return reg
}

func TestParseSchema_DefaultPresence(t *testing.T) {
	def, err := appconfig.ParseSchema([]byte(`
platform: demo
fields:
  - source: a
    target: a
  - source: b
    target: b
    default: null
  - source: c
    target: c
    default: 0
  - target: d
    default: {x: [1, "two"]}
`))
	require.NoError(t, err)
	require.Len(t, def.Fields, 4)

	assert.Nil(t, def.Fields[0].Default, "absent default")
	require.NotNil(t, def.Fields[1].Default, "explicit null default")
	assert.True(t, def.Fields[1].Default.IsNull())
	require.NotNil(t, def.Fields[2].Default)
	assert.True(t, def.Fields[2].Default.Equal(domain.Int(0)))
	assert.Equal(t, `{"x":[1,"two"]}`, def.Fields[3].Default.String())
}

func TestParseSchema_Malformed(t *testing.T) {
	_, err := appconfig.ParseSchema([]byte("fields: [: nope"))
	assert.Error(t, err)
}

func TestParseRules_Allowed(t *testing.T) {
	rules, err := appconfig.ParseRules([]byte(`
platform: taboola
fields:
  - field: status
    allowed: [PAUSED, RUNNING]
    case_insensitive: true
  - field: cpc_bid
    type: number
    min: 0.01
    exclusive_min: true
`))
	require.NoError(t, err)
	require.Len(t, rules.Fields, 2)
	assert.Equal(t, []domain.Value{domain.String("PAUSED"), domain.String("RUNNING")}, rules.Fields[0].Allowed)
	assert.True(t, rules.Fields[0].CaseInsensitive)
	require.NotNil(t, rules.Fields[1].Min)
	assert.InDelta(t, 0.01, *rules.Fields[1].Min, 1e-9)
	assert.True(t, rules.Fields[1].ExclusiveMin)
}

func TestSchemaLoader_EmbeddedDefaults(t *testing.T) {
	loader := appconfig.NewSchemaLoader()

	defs, err := loader.LoadSchemas("")
	require.NoError(t, err)
	store, err := mapping.NewSchemaStore(builtinRegistry(t), defs...)
	require.NoError(t, err)
	assert.Equal(t, []string{"facebook", "twitter"}, store.ListPlatforms())

	rules, err := loader.LoadRules("")
	require.NoError(t, err)
	var taboola domain.TargetRules
	for _, r := range rules {
		if r.Platform == "taboola" {
			taboola = r
		}
	}
	require.NotEmpty(t, taboola.Fields)

	mapper := mapping.NewMapper(builtinRegistry(t))
	engine := validation.New()
	for _, def := range defs {
		t.Run(def.Platform, func(t *testing.T) {
			require.NotEmpty(t, def.Sample)
			rec, err := mapper.Map(def.Sample, def)
			require.NoError(t, err)
			report := engine.Validate(rec, taboola)
			assert.True(t, report.Pass, report.Summary())
		})
	}
}

func TestSchemaLoader_FacebookSampleMapping(t *testing.T) {
	defs, err := appconfig.NewSchemaLoader().LoadSchemas("")
	require.NoError(t, err)
	store, err := mapping.NewSchemaStore(builtinRegistry(t), defs...)
	require.NoError(t, err)
	def, err := store.Load("facebook")
	require.NoError(t, err)

	rec, err := mapping.NewMapper(builtinRegistry(t)).Map(def.Sample, def)
	require.NoError(t, err)

	objective, _ := rec.Get("marketing_objective")
	assert.True(t, objective.Equal(domain.String("DRIVE_WEBSITE_TRAFFIC")))
	bid, _ := rec.Get("cpc_bid")
	assert.True(t, bid.Equal(domain.Number(0.5)))
	country, _ := rec.Get("country_targeting")
	assert.True(t, country.Equal(domain.String("US")))
	title, ok := rec.Lookup("creatives")
	require.True(t, ok)
	assert.Equal(t, `[{"photo_url":"http://facebook.com/img.png","title":"My FB Ad"}]`, title.String())
	assert.Contains(t, def.Warnings(), "cpc_bid: bid not present in source, using default 0.50")
}

func TestSchemaLoader_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("platform: beta\nfields:\n  - source: x\n    target: x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("platform: alpha\nfields:\n  - source: x\n    target: x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	defs, err := appconfig.NewSchemaLoader().LoadSchemas(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Platform)
	assert.Equal(t, "beta", defs[1].Platform)
}

func TestSchemaLoader_Errors(t *testing.T) {
	loader := appconfig.NewSchemaLoader()

	_, err := loader.LoadSchemas(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("platform: [oops"), 0644))
	_, err = loader.LoadSchemas(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing bad.yaml")

	rulesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "t.yaml"), []byte("platform: t\nfields:\n  - field: x\n    min: 5\n    max: 1\n"), 0644))
	_, err = loader.LoadRules(rulesDir)
	var invalid *domain.InvalidRulesError
	assert.ErrorAs(t, err, &invalid)
}
