package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/charsheets/internal/api"
	"github.com/mcoot/charsheets/internal/api/response"
	"github.com/mcoot/charsheets/internal/factory"
	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/storage/portrait"
	"github.com/mcoot/charsheets/internal/web"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
	env        []string
}

func newCLIRunner(t *testing.T, ts *testServer) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "sheetadm-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sheetadm")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  ts.addr,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
		// Local commands share the server's database
		env: append(os.Environ(),
			"STORAGE_TYPE=sqlite",
			"DATABASE_DSN="+ts.dsn,
			"BCRYPT_COST=4",
			"SHEETADM_TOKEN=",
			"SHEETADM_ENV_FILE="+filepath.Join(t.TempDir(), "missing.env"),
		),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = r.env
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = r.env
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *api.Server
	addr     string
	dsn      string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// The listener stays open so no other process can take the port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	dir := t.TempDir()
	dsn := filepath.Join(dir, "sheets.db")
	uploads, err := portrait.NewDiskStore(filepath.Join(dir, "uploads"), factory.UploadURLPrefix)
	require.NoError(t, err)

	// Create application
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(context.Background(), factory.Config{
		AuthConfig: auth.Config{
			SessionDuration: time.Hour,
			BcryptCost:      bcrypt.MinCost,
		},
		Logger:      logger,
		StorageType: factory.StorageTypeSQLite,
		DatabaseDSN: dsn,
		Portraits:   uploads,
	})
	require.NoError(t, err)

	// Create routers
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		AuthService:  app.AuthService,
		SheetService: app.SheetService,
	})
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:       logger,
		AuthService:  app.AuthService,
		SheetService: app.SheetService,
		UploadDir:    uploads.Dir(),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle(api.PathPrefix+"/", apiRouter)
	mux.Handle("/", webRouter)

	server := api.NewServer(mux, api.DefaultServerConfig(), logger)

	// Start server
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		dsn:    dsn,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// browser drives the HTML interface with a cookie jar
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: base, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, string(body)
}

func (b *browser) createSheet(fields map[string]string, portraitName string, portraitData []byte) (int, string) {
	b.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(b.t, mw.WriteField(name, value))
	}
	fw, err := mw.CreateFormFile("portrait", portraitName)
	require.NoError(b.t, err)
	_, err = fw.Write(portraitData)
	require.NoError(b.t, err)
	require.NoError(b.t, mw.Close())

	resp, err := b.client.Post(b.base+"/criar", mw.FormDataContentType(), &buf)
	require.NoError(b.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, string(body)
}

type messageResponse struct {
	Message string `json:"message"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_Status(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts)

	output, err := cli.run("status")
	require.NoError(t, err, "output: %s", output)

	var resp struct {
		Server   string             `json:"server"`
		Status   string             `json:"status"`
		Identity *response.Identity `json:"identity"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ts.addr, resp.Server)
	assert.Nil(t, resp.Identity)
}

func TestCLI_IdentityAndSession(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts)

	// Identities are created directly in the shared database
	output, err := cli.run("identity", "add", "--name", "alice")
	require.NoError(t, err, "output: %s", output)
	alice := decode[response.Identity](t, output)
	assert.Equal(t, "alice", alice.Username)

	output, err = cli.run("identity", "add", "--name", "gm", "--password", "hunter2", "--master")
	require.NoError(t, err, "output: %s", output)
	master := decode[response.Identity](t, output)
	assert.True(t, master.IsMaster)

	output, err = cli.run("identity", "list")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[[]response.Identity](t, output), 2)

	// The running server sees them
	output, err = cli.run("login", "--identity", fmt.Sprint(alice.ID))
	require.NoError(t, err, "output: %s", output)
	session := decode[response.SessionResponse](t, output)
	assert.Equal(t, "alice", session.Identity.Username)

	output, err = cli.run("me")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, alice.ID, decode[response.Identity](t, output).ID)

	output, err = cli.run("characters", "list")
	require.NoError(t, err, "output: %s", output)
	assert.Empty(t, decode[response.CharacterList](t, output).Characters)

	// Master needs the password
	output, err = cli.run("login", "--identity", fmt.Sprint(master.ID))
	require.Error(t, err)
	assert.Contains(t, output, "PASSWORD_REQUIRED")

	// Logout revokes the saved token
	output, err = cli.run("logout")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "Logged out", decode[messageResponse](t, output).Message)

	output, err = cli.runWithToken(session.SessionToken, "me")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}

func TestE2E_SheetCreatedOnWebVisibleToCLI(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts)

	output, err := cli.run("identity", "add", "--name", "alice")
	require.NoError(t, err, "output: %s", output)
	alice := decode[response.Identity](t, output)
	output, err = cli.run("identity", "add", "--name", "bob")
	require.NoError(t, err, "output: %s", output)
	bob := decode[response.Identity](t, output)
	output, err = cli.run("identity", "add", "--name", "gm", "--password", "hunter2", "--master")
	require.NoError(t, err, "output: %s", output)
	master := decode[response.Identity](t, output)

	// Alice picks her identity and fills the creation form
	b := newBrowser(t, ts.addr)
	status, body := b.get(fmt.Sprintf("/login/%d", alice.ID))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Welcome, alice!")

	status, body = b.createSheet(map[string]string{
		"name":          "Rook",
		"archetype":     "Scout",
		"resilience":    "2",
		"mind":          "1",
		"skill_stealth": "3",
		"trade":         "tanner",
		"items":         "sword, , shield,",
	}, "rook face.png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Rook was created")

	// The CLI sees the sheet through the API
	output, err = cli.run("login", "--identity", fmt.Sprint(alice.ID))
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("characters", "list")
	require.NoError(t, err, "output: %s", output)
	list := decode[response.CharacterList](t, output)
	require.Len(t, list.Characters, 1)
	rook := list.Characters[0]
	assert.Equal(t, "Rook", rook.Name)
	assert.Equal(t, "/uploads/rook_face.png", rook.PortraitURL)
	assert.Equal(t, 16, rook.Sheet.Status.PVMax)
	assert.Equal(t, 4, rook.Sheet.Status.FlowMax)
	assert.Equal(t, []string{"sword", "shield"}, rook.Sheet.Items)

	// The portrait is served by the web router
	status, body = b.get(rook.PortraitURL)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "png-bytes", body)

	// Bob may not look at it
	output, err = cli.run("login", "--identity", fmt.Sprint(bob.ID))
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("characters", "get", fmt.Sprint(rook.ID))
	require.Error(t, err)
	assert.Contains(t, output, "FORBIDDEN")

	// The master can, and deletes it
	output, err = cli.run("login", "--identity", fmt.Sprint(master.ID), "--password", "hunter2")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("characters", "get", fmt.Sprint(rook.ID))
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "tanner", decode[response.Character](t, output).Sheet.Skills["trade"].String())

	output, err = cli.run("characters", "delete", fmt.Sprint(rook.ID))
	require.NoError(t, err, "output: %s", output)

	// Gone from Alice's dashboard
	status, body = b.get("/dashboard")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, strings.Contains(body, "Rook"), "deleted sheet still listed")
}
