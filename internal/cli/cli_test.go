package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/daemon"
)

// runCLI executes the root command against home with captured output.
func runCLI(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(daemon.EnvHome, "")
	t.Setenv(daemon.EnvUser, "")
	t.Setenv(daemon.EnvLogLevel, "")
	t.Setenv(daemon.EnvAPIPort, "")

	buf := &bytes.Buffer{}
	cmd := NewRootCmd("test")
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--home", home, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestScore(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "score", "--carbon", "0",
		"--material", "Organic Cotton", "--durability", "4", "--packaging", "3", "--health", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "EcoScore: 3.8 / 5")
	assert.Contains(t, out, "Carbon      5.0")
}

func TestScore_JSON(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "score", "--carbon", "2500", "--unit", "g",
		"--material", "Organic Cotton", "--durability", "4", "--packaging", "3", "--health", "5", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"final": 3.6`)
	assert.Contains(t, out, `"carbon": 4`)
}

func TestScore_BadUnit(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "score", "--carbon", "1", "--unit", "furlongs")
	assert.Error(t, err)
}

func TestBalance_NewUserGetsLoginBonus(t *testing.T) {
	home := t.TempDir()
	out, err := runCLI(t, home, "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 105 EcoCoins")
	assert.FileExists(t, filepath.Join(home, "ecorewards.db"))

	// Same day: no second login bonus.
	out, err = runCLI(t, home, "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 105 EcoCoins")
}

func TestAnalyze(t *testing.T) {
	home := t.TempDir()
	out, err := runCLI(t, home, "analyze", "--co2", "0.3", "--product", "Bamboo Toothbrush")
	require.NoError(t, err)
	assert.Contains(t, out, "+3 EcoCoins")
	assert.Contains(t, out, "First Product Analysis (+20)")
	assert.Contains(t, out, "Streak: 1 day(s). Balance: 128")

	out, err = runCLI(t, home, "history", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "First Product Analysis")
	assert.NotContains(t, out, "Daily Login Bonus")
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing co2", []string{"analyze", "--product", "x"}},
		{"negative co2", []string{"analyze", "--co2", "-1"}},
		{"bad unit", []string{"analyze", "--co2", "1", "--unit", "stone"}},
		{"bad date", []string{"analyze", "--co2", "1", "--date", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, t.TempDir(), tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestAchievements_StreakFromBackfill(t *testing.T) {
	home := t.TempDir()
	for _, d := range []string{"2026-05-10", "2026-05-11", "2026-05-12"} {
		_, err := runCLI(t, home, "analyze", "--co2", "0.1", "--date", d)
		require.NoError(t, err)
	}
	out, err := runCLI(t, home, "achievements")
	require.NoError(t, err)
	assert.Regexp(t, `✓\s+analysis_streak_3_days`, out)
	assert.Regexp(t, `✓\s+first_analysis_bonus`, out)
	assert.Regexp(t, `novice_analyzer\s+3/5`, out)
}

func TestRedeem(t *testing.T) {
	home := t.TempDir()

	_, err := runCLI(t, home, "redeem", "discount_10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need 145 more")

	out, err := runCLI(t, home, "redeem", "discount_5")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 55")

	_, err = runCLI(t, home, "redeem", "yacht")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")

	out, err = runCLI(t, home, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 55")
}

func TestHistory_BadLimit(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "history", "--limit", "0")
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "catalog")
	require.NoError(t, err)
	for _, id := range []string{"discount_5", "ebook_eco", "plant_tree", "discount_10"} {
		assert.Contains(t, out, id)
	}
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()

	out, err := runCLI(t, home, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration initialized")
	assert.FileExists(t, filepath.Join(home, daemon.ConfigFile))

	_, err = runCLI(t, home, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCLI(t, home, "config", "init", "--force")
	require.NoError(t, err)

	// The written defaults load back cleanly.
	out, err = runCLI(t, home, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "port = 8787")
}

func TestConfigShow_FileOverrides(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, daemon.ConfigFile),
		[]byte("user = \"alice\"\n[api]\nport = 9000\n"), 0o600))

	out, err := runCLI(t, home, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `user = "alice"`)
	assert.Contains(t, out, "port = 9000")

	out, err = runCLI(t, home, "--user", "bob", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `user = "bob"`)
}

func TestConfigPath(t *testing.T) {
	home := t.TempDir()
	out, err := runCLI(t, home, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, daemon.ConfigFile)+"\n", out)
}

func TestUsersAreIsolated(t *testing.T) {
	home := t.TempDir()
	_, err := runCLI(t, home, "--user", "alice", "redeem", "discount_5")
	require.NoError(t, err)

	out, err := runCLI(t, home, "--user", "bob", "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 105")
}
