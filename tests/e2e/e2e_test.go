package e2e_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/adshift/adshift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build binary before running tests
	dir, err := os.MkdirTemp("", "adshift-e2e")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	binaryPath = filepath.Join(dir, "adshift")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/adshift")
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func demoPath(name string) string {
	abs, _ := filepath.Abs(filepath.Join("../../testdata/demo", name))
	return abs
}

// run executes the binary with its stdout and stderr kept apart.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	return stdout.String(), stderr.String(), exitCode
}

// --- Migrate Tests ---

func TestE2E_MigrateFromFixture(t *testing.T) {
	out, _, code := run(t, "--dir", demoPath(""), "migrate", "--from", "facebook", "--id", "fb-100", "--json")
	require.Equal(t, 0, code)

	var report domain.MigrationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, domain.OutcomeSuccess, report.Outcome)
	require.NotNil(t, report.Canonical)

	objective, _ := report.Canonical.Get("marketing_objective")
	assert.True(t, objective.Equal(domain.String("ONLINE_PURCHASES")))
	bid, _ := report.Canonical.Get("cpc_bid")
	assert.True(t, bid.Equal(domain.Number(0.85)))
	country, _ := report.Canonical.Get("country_targeting")
	assert.True(t, country.Equal(domain.String("DE")))
}

func TestE2E_MigrateMissingRequired(t *testing.T) {
	out, stderr, code := run(t, "--dir", demoPath(""), "migrate", "--from", "facebook", "--id", "fb-200")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "FAILURE")
	assert.Contains(t, out, "page_name")
	assert.Contains(t, stderr, "migration did not succeed")
}

func TestE2E_MigrateNotFound(t *testing.T) {
	out, _, code := run(t, "--dir", demoPath(""), "migrate", "--from", "facebook", "--id", "fb-999", "--json")
	assert.Equal(t, 1, code)

	var report domain.MigrationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Error)
	assert.Equal(t, domain.ErrKindNotFound, report.Error.Kind)
	assert.Equal(t, domain.StageFetching, report.Error.Stage)
}

func TestE2E_MigrateBatch(t *testing.T) {
	out, _, code := run(t, "--dir", demoPath(""), "migrate-batch", "--from", "facebook", "--file", demoPath("campaigns.jsonl"), "--json")
	require.Equal(t, 0, code, out)

	var batch domain.BatchReport
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, []string{"fb-1", "fb-2"}, []string{batch.Reports[0].SourceCampaignID, batch.Reports[1].SourceCampaignID})
}

// --- Catalog Tests ---

func TestE2E_SchemasList(t *testing.T) {
	out, _, code := run(t, "--dir", demoPath(""), "schemas", "list", "--json")
	require.Equal(t, 0, code)

	var list struct {
		Sources []string `json:"sources"`
		Targets []string `json:"targets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, []string{"facebook", "twitter"}, list.Sources)
	assert.Equal(t, []string{"taboola"}, list.Targets)
}

func TestE2E_ValidateSample(t *testing.T) {
	out, _, code := run(t, "--dir", demoPath(""), "validate", "--from", "twitter")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "PASS")
}

func TestE2E_Version(t *testing.T) {
	out, _, code := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "adshift")
}
