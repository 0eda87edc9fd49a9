package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaults(t *testing.T) {
	c, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "1", c.count)
	assert.Equal(t, "gpx", c.format)
	assert.Nil(t, c.subdir)
	assert.Nil(t, c.desc)
	assert.Equal(t, 1, c.startActivityNo)
	assert.Equal(t, c.directory, c.logPath)
}

func TestParseFlagsRejectsUnknownFormat(t *testing.T) {
	_, err := parseFlags([]string{"-f", "kml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kml")
}

func TestParseFlagsDescAndSubdir(t *testing.T) {
	c, err := parseFlags([]string{"-desc", "20", "-s", "{YYYY}/{MM}"})
	require.NoError(t, err)
	require.NotNil(t, c.desc)
	assert.Equal(t, 20, *c.desc)
	require.NotNil(t, c.subdir)
	assert.Equal(t, "{YYYY}/{MM}", *c.subdir)
}

// chdir changes the working directory for the duration of the test,
// mirroring t.Chdir, which is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestDefaultTemplatePathPrefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(defaultTemplateName, []byte("id=Activity ID\n"), 0o644))

	assert.Equal(t, defaultTemplateName, defaultTemplatePath())
}

func TestDefaultTemplatePathFallsBackToBinaryDirectory(t *testing.T) {
	chdir(t, t.TempDir())

	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(exe), defaultTemplateName), defaultTemplatePath())
}
