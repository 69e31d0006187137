package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheets/internal/api"
	"github.com/mcoot/charsheets/internal/api/response"
	"github.com/mcoot/charsheets/internal/factory"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/sheet"
	"github.com/mcoot/charsheets/internal/testutil"
)

// run executes sheetadm in-process and returns what it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// useSQLite points the server environment at a fresh sqlite file
func useSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHEETADM_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("SHEETADM_TOKEN", "")
	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "sheets.db"))
	t.Setenv("BCRYPT_COST", "4")
	return dir
}

func TestIdentityAddAndList(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "identity", "add", "--name", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Identity: alice (1)")
	assert.Contains(t, out, "Master: no")

	out, err = run(t, "identity", "add", "--name", "gm", "--password", "hunter2", "--master")
	require.NoError(t, err)
	assert.Contains(t, out, "Master: yes")

	out, err = run(t, "identity", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "master")

	out, err = run(t, "identity", "list", "-o", "json")
	require.NoError(t, err)
	var identities []response.Identity
	require.NoError(t, json.Unmarshal([]byte(out), &identities))
	require.Len(t, identities, 2)
	assert.Equal(t, "alice", identities[0].Username)
	assert.True(t, identities[1].IsMaster)
}

func TestIdentityAddErrors(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "identity", "add", "--name", "gm", "--master")
	assert.ErrorContains(t, err, "requires a password")

	_, err = run(t, "identity", "add")
	assert.Error(t, err)

	_, err = run(t, "identity", "add", "--name", "alice")
	require.NoError(t, err)
	_, err = run(t, "identity", "add", "--name", "alice")
	assert.ErrorIs(t, err, model.ErrUsernameExists)
}

func TestIdentityListEmpty(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "identity", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No identities")
}

func TestMigrate(t *testing.T) {
	dir := useSQLite(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied (sqlite)")

	_, err = os.Stat(filepath.Join(dir, "sheets.db"))
	assert.NoError(t, err)

	// Running twice is harmless
	_, err = run(t, "migrate")
	assert.NoError(t, err)
}

func TestMigrateMemoryStorage(t *testing.T) {
	useSQLite(t)
	t.Setenv("STORAGE_TYPE", "memory")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Storage memory has no schema to migrate")
}

func TestInvalidServerConfig(t *testing.T) {
	useSQLite(t)
	t.Setenv("STORAGE_TYPE", "cassandra")

	_, err := run(t, "identity", "list")
	assert.ErrorContains(t, err, "STORAGE_TYPE")
}

// API commands

type apiFixture struct {
	server    *httptest.Server
	app       *factory.TestApp
	tokenFile string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHEETADM_TOKEN", "")

	app, err := factory.NewTestApp(dir)
	require.NoError(t, err)

	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:       testutil.NopLogger(),
		AuthService:  app.AuthService,
		SheetService: app.SheetService,
	}))
	t.Cleanup(server.Close)

	return &apiFixture{
		server:    server,
		app:       app,
		tokenFile: filepath.Join(dir, "token"),
	}
}

func (f *apiFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return run(t, append([]string{"--server", f.server.URL, "--token-file", f.tokenFile}, args...)...)
}

func TestStatus(t *testing.T) {
	f := newAPIFixture(t)

	out, err := f.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "Session: none")
}

func TestStatusShowsSession(t *testing.T) {
	f := newAPIFixture(t)
	alice, err := f.app.AddPlayer(t.Context(), "alice")
	require.NoError(t, err)

	_, err = f.run(t, "login", "--identity", strconv.FormatInt(int64(alice.ID), 10))
	require.NoError(t, err)

	out, err := f.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Session: alice (%d)", alice.ID))
}

func TestStatusWithStaleToken(t *testing.T) {
	f := newAPIFixture(t)

	out, err := f.run(t, "--token", "stale", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: none")
}

func TestLogoutWithStaleToken(t *testing.T) {
	f := newAPIFixture(t)
	require.NoError(t, os.WriteFile(f.tokenFile, []byte("stale\n"), 0o600))

	out, err := f.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.NoFileExists(t, f.tokenFile)
}

func TestLoginMeLogout(t *testing.T) {
	f := newAPIFixture(t)
	alice, err := f.app.AddPlayer(t.Context(), "alice")
	require.NoError(t, err)

	out, err := f.run(t, "login", "--identity", strconv.FormatInt(int64(alice.ID), 10))
	require.NoError(t, err)
	assert.Contains(t, out, "Identity: alice")
	assert.Contains(t, out, "Token: ")

	token, err := os.ReadFile(f.tokenFile)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	out, err = f.run(t, "me")
	require.NoError(t, err)
	assert.Contains(t, out, "Identity: alice")

	out, err = f.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.NoFileExists(t, f.tokenFile)

	// The revoked token no longer works
	_, err = f.run(t, "--token", string(token), "me")
	assert.ErrorContains(t, err, "UNAUTHORIZED")
}

func TestLoginMaster(t *testing.T) {
	f := newAPIFixture(t)
	master, err := f.app.AddMaster(t.Context(), "gm", "hunter2")
	require.NoError(t, err)
	id := strconv.FormatInt(int64(master.ID), 10)

	_, err = f.run(t, "login", "--identity", id)
	assert.ErrorContains(t, err, "PASSWORD_REQUIRED")

	_, err = f.run(t, "login", "--identity", id, "--password", "nope")
	assert.ErrorContains(t, err, "INVALID_CREDENTIALS")

	out, err := f.run(t, "login", "--identity", id, "--password", "hunter2", "-o", "json")
	require.NoError(t, err)
	var session response.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &session))
	assert.True(t, session.Identity.IsMaster)
}

func TestLogoutWithoutSession(t *testing.T) {
	f := newAPIFixture(t)

	_, err := f.run(t, "logout")
	assert.ErrorContains(t, err, "not logged in")
}

func TestCharacters(t *testing.T) {
	f := newAPIFixture(t)
	alice, err := f.app.AddPlayer(t.Context(), "alice")
	require.NoError(t, err)

	rook, err := f.app.SheetService.Create(t.Context(), alice, sheet.CreateInput{
		Name: "Rook",
		Fields: url.Values{
			sheet.FieldArchetype:  {"Scout"},
			sheet.FieldResilience: {"2"},
			sheet.FieldMind:       {"1"},
			sheet.FieldItems:      {"sword, shield"},
			"skill_stealth":       {"3"},
		},
	})
	require.NoError(t, err)
	id := strconv.FormatInt(int64(rook.ID), 10)

	_, err = f.run(t, "login", "--identity", strconv.FormatInt(int64(alice.ID), 10))
	require.NoError(t, err)

	out, err := f.run(t, "characters", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Rook")
	assert.Contains(t, out, "Scout")

	out, err = f.run(t, "characters", "get", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Character: Rook")
	assert.Contains(t, out, "PV: 16 / 16  Flow: 4 / 4  Paradox: 0")
	assert.Contains(t, out, "stealth: 3")
	assert.Contains(t, out, "Items: sword, shield")

	out, err = f.run(t, "characters", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Character "+id+" deleted")

	_, err = f.run(t, "characters", "get", id)
	assert.ErrorContains(t, err, "CHARACTER_NOT_FOUND")

	out, err = f.run(t, "chars", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No characters")
}

func TestCharactersInvalidID(t *testing.T) {
	f := newAPIFixture(t)

	_, err := f.run(t, "characters", "get", "abc")
	assert.ErrorContains(t, err, "invalid character id")

	_, err = f.run(t, "characters", "delete")
	assert.Error(t, err)
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("SHEETADM_SERVER", "http://sheets.example:9000")
	t.Setenv("SHEETADM_TOKEN_FILE", "/tmp/sheetadm-token")
	t.Setenv("SHEETADM_OUTPUT", "json")

	c := DefaultConfig()
	assert.Equal(t, "http://sheets.example:9000", c.ServerURL)
	assert.Equal(t, "/tmp/sheetadm-token", c.TokenFile)
	assert.Equal(t, OutputJSON, c.Output)
	assert.Equal(t, ".env", c.EnvFile)
	assert.NoError(t, c.Validate())
}

func TestTokenRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "nested", "token")}

	require.NoError(t, c.LoadToken())
	assert.Empty(t, c.Token)

	require.NoError(t, c.SaveToken("abc"))
	info, err := os.Stat(c.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded := &Config{TokenFile: c.TokenFile}
	require.NoError(t, loaded.LoadToken())
	assert.Equal(t, "abc", loaded.Token)

	require.NoError(t, loaded.ClearToken())
	require.NoError(t, loaded.ClearToken())
	assert.NoFileExists(t, c.TokenFile)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run(t, "-o", "yaml", "status")
	assert.ErrorContains(t, err, `unknown output format "yaml"`)
}
