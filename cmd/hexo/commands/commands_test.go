package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fivetwenty-io/hexo-client/cmd/hexo/commands"
	"github.com/fivetwenty-io/hexo-client/internal/apitest"
	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// cli runs the root command against an isolated home directory and config
// file. The schema cache is kept in memory.
type cli struct {
	t          *testing.T
	configFile string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HEXO_CACHE_TYPE", "memory")

	return &cli{t: t, configFile: filepath.Join(home, ".hexo", "config.yml")}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()

	viper.Reset()

	root := commands.NewRootCommand("1.2.3", "abc123", "2026-01-01")

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", c.configFile, "--no-color"}, args...))

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func readConfigFile(t *testing.T, path string) commands.Config {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var config commands.Config
	require.NoError(t, yaml.Unmarshal(data, &config))

	return config
}

func newDatatypeServer(t *testing.T) *apitest.Server {
	t.Helper()

	server := apitest.NewServer()
	t.Cleanup(server.Close)

	server.AddResource("datatype")
	server.AddObject("datatype", map[string]interface{}{"name": "heart_rate", "unit": "bpm"})
	server.AddObject("datatype", map[string]interface{}{"name": "breathing_rate", "unit": "rpm"})

	record := server.AddResource("record")
	record.DetailMethods = []string{"get"}
	server.AddObject("record", map[string]interface{}{"name": "night"})

	return server
}

func TestNewRootCommand(t *testing.T) {
	root := commands.NewRootCommand("dev", "none", "unknown")

	assert.Equal(t, "hexo", root.Use)

	for _, name := range []string{
		"version", "login", "logout", "config", "resources", "cache",
		"list", "get", "create", "update", "delete", "patch",
	} {
		assert.NotNil(t, findSubcommand(root, name), "missing %s command", name)
	}

	for _, flag := range []string{
		"config", "api", "api-key", "api-secret", "api-version",
		"output", "verbose", "no-color", "skip-ssl-validation",
	} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}

	cache := findSubcommand(root, "cache")
	require.NotNil(t, cache)
	assert.NotNil(t, findSubcommand(cache, "clear"))
}

func TestVersionCommand(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "version", "--output", "json")
	require.NoError(t, err)

	var info commands.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "2026-01-01", info.Built)
	assert.NotEmpty(t, info.GoVersion)
}

func TestConfigCommands(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "config", "set", "api_key", "key-1")
	require.NoError(t, err)

	_, err = c.run("", "config", "set", "api_secret", "very-secret")
	require.NoError(t, err)

	info, err := os.Stat(c.configFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	out, err := c.run("", "config", "show", "--output", "json")
	require.NoError(t, err)

	var shown commands.Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "key-1", shown.APIKey)
	assert.Equal(t, "very"+constants.MaskedSecret, shown.APISecret)

	_, err = c.run("", "config", "unset", "api_key")
	require.NoError(t, err)

	out, err = c.run("", "config", "show", "--output", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Empty(t, shown.APIKey)

	_, err = c.run("", "config", "set", "colour", "red")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	_, err = c.run("", "config", "set", "output", "xml")
	require.ErrorIs(t, err, constants.ErrInvalidOutputFormat)
}

func TestCommands_RequireCredentials(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "resources")
	require.ErrorIs(t, err, constants.ErrNoAPIKey)

	_, err = c.run("", "resources", "--api-key", "key")
	require.ErrorIs(t, err, constants.ErrNoAPISecret)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestObjectCommands(t *testing.T) {
	server := newDatatypeServer(t)
	c := newCLI(t)

	api := []string{"--api", server.URL, "--api-key", "key", "--api-secret", "secret"}
	runAPI := func(stdin string, args ...string) (string, error) {
		return c.run(stdin, append(args, api...)...)
	}

	t.Run("resources", func(t *testing.T) {
		out, err := runAPI("", "resources", "--output", "json")
		require.NoError(t, err)

		var descriptors []hexo.Descriptor
		require.NoError(t, json.Unmarshal([]byte(out), &descriptors))
		require.Len(t, descriptors, 2)
		assert.Equal(t, "datatype", descriptors[0].Name)
		assert.Equal(t, "record", descriptors[1].Name)
	})

	t.Run("describe", func(t *testing.T) {
		out, err := runAPI("", "resources", "describe", "datatype")
		require.NoError(t, err)
		assert.Contains(t, out, "Datatype (datatype)")
		assert.Contains(t, out, "/api/v1/datatype/")
	})

	t.Run("list with query", func(t *testing.T) {
		out, err := runAPI("", "list", "datatype", "--query", "#.name")
		require.NoError(t, err)
		assert.Equal(t, "heart_rate\nbreathing_rate\n", out)
	})

	t.Run("list with filter", func(t *testing.T) {
		out, err := runAPI("", "list", "datatype", "--filter", "name=breathing_rate", "-q", "#.unit")
		require.NoError(t, err)
		assert.Equal(t, "rpm\n", out)
	})

	t.Run("list rejects malformed filter", func(t *testing.T) {
		_, err := runAPI("", "list", "datatype", "--filter", "name")
		require.ErrorIs(t, err, constants.ErrInvalidFilter)
	})

	t.Run("list as table", func(t *testing.T) {
		out, err := runAPI("", "list", "datatype", "--columns", "id,name")
		require.NoError(t, err)
		assert.Contains(t, out, "heart_rate")
		assert.Contains(t, out, "breathing_rate")
		assert.NotContains(t, out, "bpm")
	})

	t.Run("get", func(t *testing.T) {
		out, err := runAPI("", "get", "datatype", "2", "--query", "name")
		require.NoError(t, err)
		assert.Equal(t, "breathing_rate\n", out)
	})

	t.Run("get unknown resource", func(t *testing.T) {
		_, err := runAPI("", "get", "sleep", "1")
		require.ErrorIs(t, err, hexo.ErrUnknownResource)
	})

	t.Run("create", func(t *testing.T) {
		out, err := runAPI("", "create", "datatype", "--set", "name=steps", "--set", "unit=count")
		require.NoError(t, err)
		assert.Contains(t, out, "Created datatype")

		objects := server.Objects("datatype")
		require.Len(t, objects, 3)
		assert.Equal(t, "steps", objects[2]["name"])
	})

	t.Run("create requires data", func(t *testing.T) {
		_, err := runAPI("", "create", "datatype")
		require.ErrorIs(t, err, constants.ErrNoData)
	})

	t.Run("update", func(t *testing.T) {
		_, err := runAPI("", "update", "datatype", "1", "--data", `{"unit":"beats"}`)
		require.NoError(t, err)
		assert.Equal(t, "beats", server.Objects("datatype")[0]["unit"])
		assert.Equal(t, "heart_rate", server.Objects("datatype")[0]["name"])
	})

	t.Run("delete asks for confirmation", func(t *testing.T) {
		out, err := runAPI("n\n", "delete", "datatype", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "Aborted")
		assert.Len(t, server.Objects("datatype"), 3)
	})

	t.Run("delete", func(t *testing.T) {
		out, err := runAPI("", "delete", "datatype", "2", "--force")
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted /api/v1/datatype/2/")
		assert.Len(t, server.Objects("datatype"), 2)
	})

	t.Run("delete not allowed", func(t *testing.T) {
		_, err := runAPI("", "delete", "record", "1", "--force")
		require.ErrorIs(t, err, hexo.ErrMethodNotAllowed)
		assert.Len(t, server.Objects("record"), 1)
	})

	t.Run("patch", func(t *testing.T) {
		out, err := runAPI("", "patch", "datatype", "--data", `[{"name":"a"},{"name":"b"}]`)
		require.NoError(t, err)
		assert.Contains(t, out, "Patched 2 datatype objects")
		assert.Len(t, server.Objects("datatype"), 4)
	})

	t.Run("cache clear", func(t *testing.T) {
		out, err := runAPI("", "cache", "clear")
		require.NoError(t, err)
		assert.Contains(t, out, "Schema cache cleared")
	})
}

func TestLoginLogout(t *testing.T) {
	server := newDatatypeServer(t)
	c := newCLI(t)

	out, err := c.run("key\nsecret\n\n", "login", "--api", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully logged in to "+server.URL)
	assert.Contains(t, out, "2 resources available")

	saved := readConfigFile(t, c.configFile)
	assert.Equal(t, server.URL, saved.API)
	assert.Equal(t, "key", saved.APIKey)
	assert.Equal(t, "secret", saved.APISecret)

	out, err = c.run("", "resources", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "datatype")

	_, err = c.run("", "logout")
	require.NoError(t, err)

	saved = readConfigFile(t, c.configFile)
	assert.Equal(t, server.URL, saved.API)
	assert.Empty(t, saved.APIKey)
	assert.Empty(t, saved.APISecret)

	_, err = c.run("", "login", "--api", server.URL, "--api-key", "k", "--api-secret", "s", "--password", "pw")
	require.ErrorIs(t, err, constants.ErrUsernameRequired)
}
