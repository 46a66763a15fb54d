package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/auth"
	"github.com/erazemk/afalagi/internal/db"
	"github.com/erazemk/afalagi/internal/metrics"
	"github.com/erazemk/afalagi/internal/model"
	"github.com/erazemk/afalagi/internal/store"
)

const testSecret = "test-secret"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	member    = model.Viewer{ID: "u2", Name: "Hana Girma", Email: "hana@example.com", Role: model.RoleUser}
	owner     = model.Viewer{ID: "u1", Name: "Abebe Kebede", Email: "abebe@example.com", Role: model.RoleUser}
	moderator = model.Viewer{ID: "u9", Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
)

type apiCall struct {
	method string
	path   string
	auth   string
	reqID  string
	body   map[string]any
}

// fakeAPI is an in-memory stand-in for the platform API.
type fakeAPI struct {
	mu    sync.Mutex
	cases map[string]map[string]any
	calls []apiCall
	fail  map[string]int // "METHOD path" -> status

	// bareSightings makes POST /sightings echo only the new id.
	bareSightings bool
}

func newCase(id, status, reporterID string, verified bool) map[string]any {
	return map[string]any{
		"_id":            id,
		"caseNumber":     "MP-" + strings.ToUpper(id),
		"status":         status,
		"isVerified":     verified,
		"priority":       "high",
		"views":          3,
		"sightingsCount": 0,
		"reportedBy":     map[string]any{"_id": reporterID, "firstName": "Abebe", "lastName": "Kebede"},
		"personalInfo":   map[string]any{"firstName": "Sara", "lastName": "Tesfaye", "age": 14, "gender": "Female"},
		"lastSeenInfo": map[string]any{
			"date":     "2026-03-01T00:00:00.000Z",
			"location": map[string]any{"city": "Addis Ababa", "specificLocation": "Merkato"},
		},
		"contactInfo": map[string]any{"primaryContact": map[string]any{"name": "Abebe", "phone": "+251911000000"}},
		"createdAt":   "2026-03-01T10:00:00.000Z",
	}
}

func (f *fakeAPI) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cases[id]["status"] = status
}

// count returns how many calls matched method and path.
func (f *fakeAPI) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.method == method && c.path == path {
			n++
		}
	}
	return n
}

func (f *fakeAPI) last(method, path string) *apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method && f.calls[i].path == path {
			c := f.calls[i]
			return &c
		}
	}
	return nil
}

func writeEnvelope(w http.ResponseWriter, status int, env map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := apiCall{
		method: r.Method,
		path:   strings.TrimPrefix(r.URL.Path, "/api"),
		auth:   r.Header.Get("Authorization"),
		reqID:  r.Header.Get("X-Request-ID"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		json.Unmarshal(data, &call.body)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)

	if status, ok := f.fail[call.method+" "+call.path]; ok {
		writeEnvelope(w, status, map[string]any{"success": false, "message": "upstream refused"})
		return
	}

	id, sub, _ := strings.Cut(strings.TrimPrefix(call.path, "/missing-persons/"), "/")
	switch {
	case call.method == http.MethodPost && call.path == "/auth/login":
		if call.body["password"] != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   "api-token",
			"user":    map[string]any{"_id": "u2", "firstName": "Hana", "lastName": "Girma", "email": call.body["email"], "role": "user"},
		})

	case call.method == http.MethodGet && call.path == "/missing-persons":
		list := []map[string]any{}
		for _, c := range f.cases {
			if s := r.URL.Query().Get("status"); s != "" && c["status"] != s {
				continue
			}
			list = append(list, c)
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": list, "total": len(list)})

	case call.method == http.MethodPost && call.path == "/missing-persons":
		c := newCase("new1", "active", "u2", false)
		c["personalInfo"] = call.body["personalInfo"]
		f.cases["new1"] = c
		writeEnvelope(w, http.StatusCreated, map[string]any{"success": true, "data": c})

	case call.method == http.MethodPost && call.path == "/sightings" && f.bareSightings:
		writeEnvelope(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"_id": "s9"}})

	case call.method == http.MethodPost && call.path == "/sightings":
		writeEnvelope(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{
			"_id":           "s1",
			"missingPerson": call.body["missingPerson"],
			"status":        "unverified",
			"sightingInfo":  call.body["sightingInfo"],
			"createdAt":     "2026-03-10T12:00:00.000Z",
		}})

	case strings.HasPrefix(call.path, "/missing-persons/"):
		c, ok := f.cases[id]
		if !ok {
			writeEnvelope(w, http.StatusNotFound, map[string]any{"success": false, "message": "Missing person not found"})
			return
		}
		switch {
		case call.method == http.MethodGet && sub == "":
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": c, "sightings": []any{}})
		case call.method == http.MethodPut && sub == "found":
			c["status"] = "found"
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": c})
		case call.method == http.MethodPut && sub == "":
			if v, ok := call.body["isVerified"]; ok {
				c["isVerified"] = v
			}
			if p, ok := call.body["personalInfo"]; ok {
				c["personalInfo"] = p
			}
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": c})
		case call.method == http.MethodDelete && sub == "":
			delete(f.cases, id)
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true})
		default:
			http.NotFound(w, r)
		}

	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	server  *Server
	api     *fakeAPI
	site    *httptest.Server
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := &fakeAPI{
		cases: map[string]map[string]any{
			"c1": newCase("c1", "active", "u1", false),
			"c2": newCase("c2", "found", "u1", true),
		},
		fail: map[string]int{},
	}
	upstream := httptest.NewServer(fake)
	t.Cleanup(upstream.Close)

	database := db.NewTestDB(t)
	s := &Server{
		DB:        database,
		API:       apiclient.New(upstream.URL + "/api"),
		JWTSecret: testSecret,
		Sessions:  NewSessionStore([]byte("0123456789abcdef0123456789abcdef"), false),
		Drafts:    store.Drafts{DB: database},
		Location:  time.UTC,
		Now:       func() time.Time { return testNow },
	}
	m := metrics.New()
	handler, err := NewRouter(s, m)
	require.NoError(t, err)

	site := httptest.NewServer(handler)
	t.Cleanup(site.Close)

	return &testEnv{server: s, api: fake, site: site, metrics: m}
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	client *http.Client
	base   string
}

func (e *testEnv) browser(t *testing.T, as *model.Viewer) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	b := &browser{
		t:    t,
		base: e.site.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	if as != nil {
		token, err := auth.GenerateToken(testSecret, *as, "api-token-"+as.ID)
		require.NoError(t, err)
		u, _ := url.Parse(e.site.URL)
		jar.SetCookies(u, []*http.Cookie{{Name: tokenCookie, Value: token, Path: "/"}})
	}
	return b
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

// wizardID reads the wizard id from the browser's session cookie.
func (b *browser) wizardID(t *testing.T, env *testEnv) string {
	t.Helper()
	u, err := url.Parse(env.site.URL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range b.client.Jar.Cookies(u) {
		req.AddCookie(c)
	}
	session, err := env.server.Sessions.Get(req, sessionName)
	require.NoError(t, err)

	id, _ := session.Values["wizard_id"].(string)
	require.NotEmpty(t, id)
	return id
}
