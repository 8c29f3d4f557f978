package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-collard/fidle/internal/app"
)

func TestParseNoArgsPrintsUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, exitClean, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exitClean)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseHelp(t *testing.T) {
	t.Parallel()

	for _, arg := range []string{"-h", "--help", "help"} {
		var out bytes.Buffer
		_, exitClean, err := Parse([]string{arg}, &out)
		require.NoError(t, err)
		assert.True(t, exitClean)
		assert.Contains(t, out.String(), "Commands:")
	}
}

func TestParseUnknownCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := Parse([]string{"frobnicate"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "frobnicate")
}

func TestParseRun(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, exitClean, err := Parse([]string{
		"run", "-profile", "ci.yml", "-top-dir", "/course", "-filter", "Nb_GAN.*", "-reset",
	}, &out)
	require.NoError(t, err)
	assert.False(t, exitClean)

	assert.Equal(t, app.CmdRun, cfg.Command)
	assert.Equal(t, "ci.yml", cfg.ProfilePath)
	assert.Equal(t, "/course", cfg.TopDir)
	assert.Equal(t, "Nb_GAN.*", cfg.Filter)
	assert.True(t, cfg.Reset)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseRunRequiresProfile(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := Parse([]string{"run"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "profile")
}

func TestParseCatalogDirs(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, _, err := Parse([]string{
		"catalog", "-dirs", "GAN, AE,VAE,", "-catalog", "fidle/catalog.json",
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"GAN", "AE", "VAE"}, cfg.Dirs)
	assert.Equal(t, "fidle/catalog.json", cfg.CatalogPath)
}

func TestParseCatalogRequiresDirs(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := Parse([]string{"catalog"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "directory")
}

func TestParseProfileDefaults(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, _, err := Parse([]string{"profile"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "catalog.json", cfg.CatalogPath)
	assert.Equal(t, "default.yml", cfg.OutPath)
	assert.Equal(t, "==ci==", cfg.OutputTag)
}

func TestParseTrain(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, _, err := Parse([]string{"train", "-config", "train.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "train.hcl", cfg.TrainConfigPath)

	_, _, err = Parse([]string{"train"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
}

func TestParseInvalidLogFlags(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := Parse([]string{"run", "-profile", "ci.yml", "-log-format", "xml"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	_, _, err = Parse([]string{"run", "-profile", "ci.yml", "-log-level", "verbose"}, &out)
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseFlagError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := Parse([]string{"run", "-no-such-flag"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseCommandHelp(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, exitClean, err := Parse([]string{"run", "-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exitClean)
	assert.Contains(t, out.String(), "-profile")
}
