package web

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkToSubmit fills in the first three steps of the wizard for caseID.
func walkToSubmit(t *testing.T, b *browser, caseID string) {
	t.Helper()
	path := "/report-sighting/" + caseID
	steps := []url.Values{
		{"action": {"next"}, "sightingDate": {"2026-03-09"}, "sightingTime": {"14:00"}},
		{"action": {"next"}, "city": {"Adama"}, "specificLocation": {"Bus station"}},
		{"action": {"next"}, "description": {"Seen buying bread near the bus station"}, "personCondition": {"appeared_well"}, "wasAlone": {"true"}},
	}
	for _, form := range steps {
		resp, _ := b.post(path, form)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, path, resp.Header.Get("Location"))
	}
}

func TestSightingWizardSubmitsOnce(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	resp, body := b.get("/report-sighting/c1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="sightingDate"`)

	walkToSubmit(t, b, "c1")
	assert.Equal(t, 0, env.api.count(http.MethodPost, "/sightings"))

	_, body = b.get("/report-sighting/c1")
	assert.Contains(t, body, "Review and submit")
	assert.Contains(t, body, "Bus station")

	resp, _ = b.post("/report-sighting/c1", url.Values{"action": {"submit"}, "isAnonymous": {"true"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1", resp.Header.Get("Location"))

	require.Equal(t, 1, env.api.count(http.MethodPost, "/sightings"))
	call := env.api.last(http.MethodPost, "/sightings")
	assert.Equal(t, "c1", call.body["missingPerson"])
	assert.Equal(t, true, call.body["isAnonymous"])
	assert.Equal(t, "Bearer api-token-u2", call.auth)
	info := call.body["sightingInfo"].(map[string]any)
	assert.Equal(t, "2026-03-09", info["date"])
	assert.Equal(t, "14:00", info["time"])
	assert.Equal(t, true, info["wasAlone"])

	_, body = b.get("/missing-persons/c1")
	assert.Contains(t, body, "Sighting reported successfully! Thank you for your help.")

	// The draft is gone, so the next report starts over.
	_, body = b.get("/report-sighting/c1")
	assert.Contains(t, body, `name="sightingDate"`)
	assert.NotContains(t, body, "2026-03-09")
}

func TestSightingWizardIncompleteReplyCountsAsSubmitted(t *testing.T) {
	env := newTestEnv(t)
	env.api.bareSightings = true
	b := env.browser(t, &member)

	walkToSubmit(t, b, "c1")
	resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"submit"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1", resp.Header.Get("Location"))
	assert.Equal(t, 1, env.api.count(http.MethodPost, "/sightings"))

	_, body := b.get("/missing-persons/c1")
	assert.Contains(t, body, "Sighting reported successfully! Thank you for your help.")
	assert.NotContains(t, body, "Error submitting sighting")

	_, body = b.get("/report-sighting/c1")
	assert.NotContains(t, body, "2026-03-09")
}

func TestSightingWizardCaseClosedBeforeSubmit(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	walkToSubmit(t, b, "c1")
	env.api.setStatus("c1", "found")

	resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"submit"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1", resp.Header.Get("Location"))
	assert.Equal(t, 0, env.api.count(http.MethodPost, "/sightings"))

	_, body := b.get("/missing-persons/c1")
	assert.Contains(t, body, "This case is no longer active")
}

func TestSightingWizardEntryGuard(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.browser(t, nil).get("/report-sighting/c1")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?next="))

	b := env.browser(t, &member)
	resp, _ = b.get("/report-sighting/c2")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c2", resp.Header.Get("Location"))

	_, body := b.get("/missing-persons/c2")
	assert.Contains(t, body, "This case is no longer active")

	resp, _ = b.get("/report-sighting/missing")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons", resp.Header.Get("Location"))
	_, body = b.get("/missing-persons")
	assert.Contains(t, body, "Error loading missing person details")
}

func TestSightingWizardStaysOnInvalidStep(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"next"}, "sightingDate": {"2026-03-11"}, "sightingTime": {"09:00"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := b.get("/report-sighting/c1")
	assert.Contains(t, body, "Sighting cannot be in the future")
	assert.Contains(t, body, `value="2026-03-11"`)
	assert.Contains(t, body, `name="sightingDate"`)
}

func TestSightingWizardFollowUpFieldsReachable(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	for _, form := range []url.Values{
		{"action": {"next"}, "sightingDate": {"2026-03-09"}, "sightingTime": {"14:00"}},
		{"action": {"next"}, "city": {"Adama"}, "specificLocation": {"Bus station"}},
	} {
		resp, _ := b.post("/report-sighting/c1", form)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}

	// The companion field is on the page, collapsed until "with others" is picked.
	_, body := b.get("/report-sighting/c1")
	assert.Contains(t, body, `<div id="companions" class="conditional">`)
	assert.Contains(t, body, `name="companionDescription"`)
	assert.NotContains(t, body, " hidden")

	_, css := b.get("/static/style.css")
	assert.Contains(t, css, `.form:has(input[name="wasAlone"][value="false"]:checked) #companions`)
	assert.Contains(t, css, `.form:has(input[name="didAttemptContact"]:checked) #contact`)

	// Once the answer is stored the field is rendered open.
	resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"next"}, "description": {"Seen buying bread near the bus station"}, "wasAlone": {"false"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = b.get("/report-sighting/c1")
	assert.Contains(t, body, `<div id="companions" class="conditional open">`)
	assert.Contains(t, body, "Please describe the companion(s)")
}

func TestSightingWizardBackKeepsValues(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	walkToSubmit(t, b, "c1")
	for range 2 {
		resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"back"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}

	_, body := b.get("/report-sighting/c1")
	assert.Contains(t, body, `value="Adama"`)
	assert.Contains(t, body, `value="Bus station"`)
}

func TestSightingWizardSubmitFailureKeepsDraft(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)
	env.api.fail["POST /sightings"] = http.StatusServiceUnavailable

	walkToSubmit(t, b, "c1")
	resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"submit"}, "photoUrl": {"https://example.com/p.jpg"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/report-sighting/c1", resp.Header.Get("Location"))
	assert.Equal(t, 1, env.api.count(http.MethodPost, "/sightings"))

	_, body := b.get("/report-sighting/c1")
	assert.Contains(t, body, "upstream refused")
	assert.Contains(t, body, "Review and submit")
	assert.Contains(t, body, `value="https://example.com/p.jpg"`)
}

func TestSightingWizardCancelDropsDraft(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)

	walkToSubmit(t, b, "c1")
	resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"cancel"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/missing-persons/c1", resp.Header.Get("Location"))

	_, body := b.get("/report-sighting/c1")
	assert.Contains(t, body, `name="sightingDate"`)
}

func TestSightingWizardRejectsConcurrentSubmit(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t, &member)
	walkToSubmit(t, b, "c1")

	// Hold the lock as an in-flight submission would.
	id := b.wizardID(t, env)
	key := id + ":c1"
	require.True(t, env.server.submits.TryLock(key))
	defer env.server.submits.Unlock(key)

	resp, _ := b.post("/report-sighting/c1", url.Values{"action": {"submit"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, env.api.count(http.MethodPost, "/sightings"))

	_, body := b.get("/missing-persons/c1")
	assert.Contains(t, body, "already being submitted")
}
