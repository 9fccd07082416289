package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/minquantity-rule/config"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

func givenSQLiteCatalogEnv(t *testing.T) {
	t.Helper()

	t.Setenv(config.EnvAdapter, config.AdapterSQLite)
	t.Setenv(config.EnvDSN, filepath.Join(t.TempDir(), "catalog.db"))
	t.Setenv(config.EnvLocale, "")

	_, err := execute(t, "schema")
	require.NoError(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd, app := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := app.run(cmd)

	return out.String(), err
}

func Test_SetAndLookup_ShouldRoundTripALocaleQuantity(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)

	// act
	_, setErr := execute(t, "set", "A100", "2,5")
	out, lookupErr := execute(t, "lookup", "A100")

	// assert
	require.NoError(t, setErr)
	require.NoError(t, lookupErr)
	assert.Equal(t, "A100\t2.5\t2.5\n", out)
}

func Test_Set_ShouldRejectNonPositiveQuantities(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)

	// act
	_, err := execute(t, "set", "A100", "0")

	// assert
	assert.ErrorIs(t, err, errInvalidQuantityArgument)
}

func Test_Lookup_ShouldFailForUnknownArticles(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)

	// act
	_, err := execute(t, "lookup", "UNKNOWN")

	// assert
	assert.ErrorIs(t, err, quantityrule.ErrArticleNotFound)
}

func Test_Clear_ShouldRemoveTheRule(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)
	_, err := execute(t, "set", "A100", "3")
	require.NoError(t, err)

	// act
	_, clearErr := execute(t, "clear", "A100")
	out, lookupErr := execute(t, "lookup", "A100")

	// assert
	require.NoError(t, clearErr)
	require.NoError(t, lookupErr)
	assert.Equal(t, "A100\t<null>\tno rule\n", out)
}

func Test_ImportAndList_ShouldStoreEveryRow(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)
	csvPath := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("article,min_quantity\nB200,4\nA100,2.5\n"), 0o600))

	// act
	importOut, importErr := execute(t, "import", csvPath)
	listOut, listErr := execute(t, "list")

	// assert
	require.NoError(t, importErr)
	require.NoError(t, listErr)
	assert.Equal(t, "imported 2 articles\n", importOut)
	assert.Regexp(t, `(?s)ARTICLE\s+STORED\s+THRESHOLD\nA100\s+2\.5\s+2\.5\nB200\s+4\s+4\n`, listOut)
}

func Test_Evaluate_ShouldApplyTheRuleToAOneLineDocument(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "quantity one is overwritten",
			args:     []string{"evaluate", "A100", "--quantity", "1", "--force-always=false"},
			expected: "outcome=quantity_overwritten quantity=2.5\n",
		},
		{
			name:     "user quantity is kept",
			args:     []string{"evaluate", "A100", "--quantity", "5", "--force-always=false"},
			expected: "outcome=quantity_kept quantity=5\n",
		},
		{
			name:     "force always overwrites",
			args:     []string{"evaluate", "A100", "--quantity", "5", "--force-always"},
			expected: "outcome=quantity_overwritten quantity=2.5\n",
		},
		{
			name:     "article without rule",
			args:     []string{"evaluate", "B200", "--quantity", "1", "--force-always"},
			expected: "outcome=no_threshold quantity=1\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			givenSQLiteCatalogEnv(t)
			_, err := execute(t, "set", "A100", "2.5")
			require.NoError(t, err)

			// act
			out, err := execute(t, tc.args...)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func Test_Evaluate_ShouldRequireAnExplicitForceAlwaysDecision(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)
	t.Setenv(config.EnvForceAlways, "")
	require.NoError(t, os.Unsetenv(config.EnvForceAlways))

	// act
	_, err := execute(t, "evaluate", "A100")

	// assert
	assert.ErrorIs(t, err, config.ErrForceAlwaysNotConfigured)
}

func Test_Evaluate_ShouldTakeForceAlwaysFromTheConfigFile(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)
	_, err := execute(t, "set", "A100", "2.5")
	require.NoError(t, err)

	configPath := filepath.Join(t.TempDir(), "minqty.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("force_always: true\n"), 0o600))

	// act
	out, err := execute(t, "--config", configPath, "evaluate", "A100", "--quantity", "7")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "outcome=quantity_overwritten quantity=2.5\n", out)
}

func Test_Commands_ShouldFailWithoutAConnection(t *testing.T) {
	// arrange
	t.Setenv(config.EnvAdapter, config.AdapterSQLite)
	t.Setenv(config.EnvDSN, "")

	// act
	_, err := execute(t, "list")

	// assert
	assert.ErrorIs(t, err, config.ErrMissingDSN)
}

func Test_Evaluate_ShouldPrintMetrics_WhenRequested(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)
	_, err := execute(t, "set", "A100", "2.5")
	require.NoError(t, err)

	// act
	out, err := execute(t, "--metrics", "evaluate", "A100", "--quantity", "0", "--force-always=false")

	// assert
	require.NoError(t, err)
	assert.Contains(t, out, "outcome=quantity_overwritten quantity=2.5\n")
	assert.Contains(t, out, `minqty_rule_evaluations_total{outcome="quantity_overwritten"} 1`)
	assert.Contains(t, out, "minqty_rule_threshold_applied 2.5")
	assert.Contains(t, out, `minqty_catalog_query_duration_seconds_count{operation="lookup",status="success"} 1`)
}

func Test_Lookup_ShouldStillPrintMetrics_WhenTheCommandFails(t *testing.T) {
	// arrange
	givenSQLiteCatalogEnv(t)

	// act
	out, err := execute(t, "--metrics", "lookup", "MISSING")

	// assert
	assert.ErrorIs(t, err, quantityrule.ErrArticleNotFound)
	assert.Contains(t, out, `minqty_catalog_query_duration_seconds_count{operation="lookup",status="success"} 1`)
}
