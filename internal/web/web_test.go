package web_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheets/internal/factory"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/testutil"
	"github.com/mcoot/charsheets/internal/web"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	cookies *cookieJar
}

// newWebTestServer creates a new test server with all dependencies wired
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	app, err := factory.NewTestApp(t.TempDir())
	require.NoError(t, err)

	router := web.NewRouter(web.RouterConfig{
		Logger:       testutil.NopLogger(),
		AuthService:  app.AuthService,
		SheetService: app.SheetService,
		UploadDir:    app.Uploads.Dir(),
	})

	return &webTestServer{
		t:       t,
		handler: router,
		app:     app,
		cookies: newCookieJar(),
	}
}

// send runs a request through the router, carrying cookies like a browser
func (ts *webTestServer) send(req *http.Request) *httptest.ResponseRecorder {
	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return ts.send(req)
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil)
}

// post makes a POST request with form data
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form)
}

// postMultipart makes a multipart POST, attaching a portrait when filename is set
func (ts *webTestServer) postMultipart(path string, form url.Values, filename string, content []byte) *httptest.ResponseRecorder {
	ts.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range form {
		for _, value := range values {
			require.NoError(ts.t, mw.WriteField(key, value))
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("portrait", filename)
		require.NoError(ts.t, err)
		_, err = part.Write(content)
		require.NoError(ts.t, err)
	}
	require.NoError(ts.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.send(req)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// hasSession returns true if the session cookie is set
func (j *cookieJar) hasSession() bool {
	_, ok := j.cookies["session"]
	return ok
}

// Helper functions for common test operations

// addPlayer registers a player identity directly
func (ts *webTestServer) addPlayer(username string) *model.Identity {
	ts.t.Helper()
	identity, err := ts.app.AddPlayer(ts.t.Context(), username)
	require.NoError(ts.t, err)
	return identity
}

// addMaster registers the master identity directly
func (ts *webTestServer) addMaster(password string) *model.Identity {
	ts.t.Helper()
	identity, err := ts.app.AddMaster(ts.t.Context(), "gm", password)
	require.NoError(ts.t, err)
	return identity
}

// loginAs selects a player identity through the web flow
func (ts *webTestServer) loginAs(identity *model.Identity) {
	ts.t.Helper()
	rr := ts.get(identityPath(identity.ID))
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after selecting identity")
	require.True(ts.t, ts.cookies.hasSession(), "Expected session cookie to be set")
}

// loginMaster logs in with the master password
func (ts *webTestServer) loginMaster(password string) {
	ts.t.Helper()
	rr := ts.post("/login-mestre", url.Values{"password": {password}})
	require.Equal(ts.t, http.StatusSeeOther, rr.Code)
	require.Equal(ts.t, "/dashboard", rr.Header().Get("Location"))
	require.True(ts.t, ts.cookies.hasSession(), "Expected session cookie to be set")
}

// logout clears the session
func (ts *webTestServer) logout() {
	ts.t.Helper()
	rr := ts.post("/logout", nil)
	require.Equal(ts.t, http.StatusSeeOther, rr.Code)
}

// createSheet submits the creation form and returns the new sheet's id
func (ts *webTestServer) createSheet(name string, fields url.Values) model.CharacterID {
	ts.t.Helper()
	form := url.Values{"name": {name}}
	for key, values := range fields {
		form[key] = values
	}
	rr := ts.post("/criar", form)
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after creating sheet")
	require.Equal(ts.t, "/dashboard", rr.Header().Get("Location"))

	all, err := ts.app.Storage.ListCharacters(ts.t.Context())
	require.NoError(ts.t, err)
	require.NotEmpty(ts.t, all)
	return all[len(all)-1].ID
}

// followRedirect follows a redirect and returns the response
func (ts *webTestServer) followRedirect(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	ts.t.Helper()
	location := rr.Header().Get("Location")
	require.NotEmpty(ts.t, location, "Expected Location header for redirect")
	return ts.get(location)
}

func identityPath(id model.IdentityID) string {
	return "/login/" + strconv.FormatInt(int64(id), 10)
}

func sheetPath(prefix string, id model.CharacterID) string {
	return prefix + strconv.FormatInt(int64(id), 10)
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}
