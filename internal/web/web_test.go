package web

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseDetailNotFound(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, nil)

	resp, body := b.get("/missing-persons/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Not found")

	resp, _ = b.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCaseDetailActionsByViewer(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.browser(t, nil).get("/missing-persons/c1")
	assert.Contains(t, body, "Log in to report a sighting")
	assert.NotContains(t, body, "Verify case")
	assert.NotContains(t, body, "/missing-persons/c1/edit")

	_, body = env.browser(t, &member).get("/missing-persons/c1")
	assert.Contains(t, body, `href="/report-sighting/c1"`)
	assert.NotContains(t, body, "Verify case")
	assert.NotContains(t, body, "Mark as found")
	assert.NotContains(t, body, "/missing-persons/c1/delete")

	_, body = env.browser(t, &owner).get("/missing-persons/c1")
	assert.Contains(t, body, "/missing-persons/c1/edit")
	assert.Contains(t, body, "/missing-persons/c1/found")
	assert.Contains(t, body, "/missing-persons/c1/delete")
	assert.NotContains(t, body, "Verify case")

	_, body = env.browser(t, &moderator).get("/missing-persons/c1")
	assert.Contains(t, body, "Verify case")
}

func TestCaseDetailClosedCaseHidesSightingEntry(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.browser(t, &member).get("/missing-persons/c2")
	assert.NotContains(t, body, `href="/report-sighting/c2"`)
	assert.Contains(t, body, "New sightings are no longer accepted")
}

func TestCasesPageFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.browser(t, nil).get("/missing-persons?status=found")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "MP-C2")
	assert.NotContains(t, body, "MP-C1")

	call := env.api.last(http.MethodGet, "/missing-persons")
	require.NotNil(t, call)
}

func TestUpstreamFailureShowsMessage(t *testing.T) {
	env := newTestEnv(t)
	env.api.fail["GET /missing-persons"] = http.StatusInternalServerError

	resp, body := env.browser(t, nil).get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "upstream refused")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, nil)

	resp, body := b.post("/login", url.Values{"email": {"hana@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid credentials")

	resp, _ = b.post("/login", url.Values{
		"email":    {"hana@example.com"},
		"password": {"secret"},
		"next":     {"/missing-persons/c1"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1", resp.Header.Get("Location"))

	_, body = b.get("/missing-persons/c1")
	assert.Contains(t, body, "Hana Girma")
	assert.Contains(t, body, "Welcome back!")

	// Calls on behalf of the user carry the API token from login.
	call := env.api.last(http.MethodGet, "/missing-persons/c1")
	require.NotNil(t, call)
	assert.Equal(t, "Bearer api-token", call.auth)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	// Keep a copy of the token to replay after logout.
	u, _ := url.Parse(env.site.URL)
	var token string
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == tokenCookie {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	resp, _ := b.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	replay := env.browser(t, nil)
	replay.client.Jar.SetCookies(u, []*http.Cookie{{Name: tokenCookie, Value: token, Path: "/"}})
	resp, _ = replay.get("/report-missing")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login"))
}

func TestVerifyIssuesSinglePut(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.browser(t, &member).post("/missing-persons/c1/verify", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, env.api.count(http.MethodPut, "/missing-persons/c1"))

	b := env.browser(t, &moderator)
	resp, _ = b.post("/missing-persons/c1/verify", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1", resp.Header.Get("Location"))
	require.Equal(t, 1, env.api.count(http.MethodPut, "/missing-persons/c1"))
	assert.Equal(t, map[string]any{"isVerified": true}, env.api.last(http.MethodPut, "/missing-persons/c1").body)

	_, body := b.get("/missing-persons/c1")
	assert.Contains(t, body, "Case verified successfully")
	assert.NotContains(t, body, "Verify case")
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &owner)

	resp, _ := b.post("/missing-persons/c1/delete", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1/delete", resp.Header.Get("Location"))
	assert.Equal(t, 0, env.api.count(http.MethodDelete, "/missing-persons/c1"))

	resp, _ = b.post("/missing-persons/c1/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons", resp.Header.Get("Location"))
	assert.Equal(t, 1, env.api.count(http.MethodDelete, "/missing-persons/c1"))
}

func TestMarkFound(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &owner)

	resp, body := b.post("/missing-persons/c1/found", url.Values{"foundLocation": {"  "}, "notes": {"with family"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please enter where the person was found")
	assert.Contains(t, body, "with family")
	assert.Equal(t, 0, env.api.count(http.MethodPut, "/missing-persons/c1/found"))

	env.api.fail["PUT /missing-persons/c1/found"] = http.StatusBadGateway
	resp, body = b.post("/missing-persons/c1/found", url.Values{"foundLocation": {"Adama"}})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "upstream refused")
	assert.Contains(t, body, `value="Adama"`)

	delete(env.api.fail, "PUT /missing-persons/c1/found")
	resp, _ = b.post("/missing-persons/c1/found", url.Values{"foundLocation": {"Adama"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 2, env.api.count(http.MethodPut, "/missing-persons/c1/found"))
}

func TestAdminRequiresStaff(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.browser(t, nil).get("/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?next="))

	resp, _ = env.browser(t, &member).get("/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body := env.browser(t, &moderator).get("/admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Total cases")
}

func TestAdminDelete(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &moderator)

	resp, _ := b.post("/admin/cases/c1/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin?tab=cases", resp.Header.Get("Location"))
	assert.Equal(t, 1, env.api.count(http.MethodDelete, "/missing-persons/c1"))

	_, body := b.get("/admin?tab=cases")
	assert.Contains(t, body, "Case deleted successfully")
	assert.NotContains(t, body, "MP-C1")
}

func TestReportMissing(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	resp, body := b.post("/report-missing", url.Values{"firstName": {"Dawit"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Last name is required")
	assert.Contains(t, body, `value="Dawit"`)
	assert.Equal(t, 0, env.api.count(http.MethodPost, "/missing-persons"))

	resp, _ = b.post("/report-missing", url.Values{
		"firstName":           {"Dawit"},
		"lastName":            {"Alemu"},
		"age":                 {"9"},
		"gender":              {"Male"},
		"lastSeenDate":        {"2026-03-08"},
		"lastSeenCity":        {"Addis Ababa"},
		"lastSeenLocation":    {"Piassa"},
		"primaryContactName":  {"Alemu Bekele"},
		"primaryContactPhone": {"+251911111111"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/new1", resp.Header.Get("Location"))

	call := env.api.last(http.MethodPost, "/missing-persons")
	require.NotNil(t, call)
	assert.Equal(t, "Bearer api-token-u2", call.auth)
	personal := call.body["personalInfo"].(map[string]any)
	assert.Equal(t, "Dawit", personal["firstName"])
	assert.EqualValues(t, 9, personal["age"])
}

func TestEditRequiresOwnerOrStaff(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.browser(t, &member).get("/missing-persons/c1/edit")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1", resp.Header.Get("Location"))

	resp, body := env.browser(t, &owner).get("/missing-persons/c1/edit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="Sara"`)
	assert.Contains(t, body, `value="2026-03-01"`)
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	env := newTestEnv(t)
	env.browser(t, nil).get("/missing-persons/c1")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("GET /missing-persons/{id}", "200")))
}

func TestRequestIDIsForwarded(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, nil)

	req, err := http.NewRequest(http.MethodGet, env.site.URL+"/missing-persons/c1", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "6f1c3f0e-4b8e-4a43-9d2b-6b0d1c3e2f11")
	resp, err := b.client.Do(req)
	require.NoError(t, err)
	readBody(t, resp)

	assert.Equal(t, "6f1c3f0e-4b8e-4a43-9d2b-6b0d1c3e2f11", resp.Header.Get("X-Request-ID"))
	call := env.api.last(http.MethodGet, "/missing-persons/c1")
	require.NotNil(t, call)
	assert.Equal(t, "6f1c3f0e-4b8e-4a43-9d2b-6b0d1c3e2f11", call.reqID)
}
