package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/carebundle/internal/bundle"
	"gopkg.in/yaml.v3"
)

func TestProjectFlags_Describe(t *testing.T) {
	tmpDir := t.TempDir()

	flags := &ProjectFlags{Root: tmpDir, Mode: "production"}
	d, root, err := flags.Describe()
	require.NoError(t, err)

	assert.Equal(t, tmpDir, root)
	assert.Equal(t, bundle.Production, d.Mode)
	assert.Equal(t, filepath.Join(tmpDir, "dist"), d.Output.Path)
	_, ok := d.DevServerSpec()
	assert.False(t, ok)
}

func TestProjectFlags_DescribeDefaultsToDevelopment(t *testing.T) {
	flags := &ProjectFlags{Root: t.TempDir()}
	d, _, err := flags.Describe()
	require.NoError(t, err)

	assert.Equal(t, bundle.Development, d.Mode)
	spec, ok := d.DevServerSpec()
	require.True(t, ok)
	assert.Equal(t, 4000, spec.Port)
}

func TestPrintCmd_RunJSON(t *testing.T) {
	tmpDir := t.TempDir()
	out := filepath.Join(tmpDir, "bundle.json")

	cmd := &PrintCmd{
		Project: ProjectFlags{Root: tmpDir, Mode: "production"},
		Format:  "json",
		Output:  out,
	}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "production", decoded["mode"])
	assert.NotContains(t, decoded, "devServer")
}

func TestPrintCmd_RunYAML(t *testing.T) {
	tmpDir := t.TempDir()
	out := filepath.Join(tmpDir, "bundle.yaml")

	cmd := &PrintCmd{
		Project: ProjectFlags{Root: tmpDir},
		Format:  "yaml",
		Output:  out,
	}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "development", decoded["mode"])

	devServer, ok := decoded["devServer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4000, devServer["port"])
}

func TestPrintCmd_UnknownFormat(t *testing.T) {
	tmpDir := t.TempDir()

	cmd := &PrintCmd{
		Project: ProjectFlags{Root: tmpDir},
		Format:  "toml",
		Output:  filepath.Join(tmpDir, "bundle.toml"),
	}
	err := cmd.Run(context.Background(), &Globals{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestPrintCmd_ModeFromEnv(t *testing.T) {
	t.Setenv("CAREBUNDLE_MODE", "production")

	var cli struct {
		Print PrintCmd `cmd:""`
	}
	parser, err := kong.New(&cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"print", "--root", t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "production", cli.Print.Project.Mode)
	assert.Equal(t, "json", cli.Print.Format)
}
