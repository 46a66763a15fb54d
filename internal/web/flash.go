package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionName = "afalagi"

// FlashKind selects how a toast is styled.
type FlashKind string

// Flash kinds.
const (
	FlashSuccess FlashKind = "success"
	FlashWarning FlashKind = "warning"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

// NewSessionStore returns the cookie store used for flashes and the wizard id.
func NewSessionStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Server) session(r *http.Request) *sessions.Session {
	session, err := s.Sessions.Get(r, sessionName)
	if err != nil {
		// A cookie signed with an old key; Get still returns a fresh session.
		slog.Warn("discarding unreadable session", "error", err)
	}
	return session
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		slog.Error("failed to save session", "error", err)
	}
}

// flash queues a notice for the next page.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, kind FlashKind, message string) {
	session := s.session(r)
	session.AddFlash(string(kind) + ":" + message)
	s.saveSession(w, r, session)
}

// flashes returns and clears pending notices. It must run before the
// response body is written.
func (s *Server) flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := s.session(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	s.saveSession(w, r, session)

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		kind, message, _ := strings.Cut(str, ":")
		out = append(out, Flash{Kind: FlashKind(kind), Message: message})
	}
	return out
}

// wizardID returns the per-browser id that wizard drafts are keyed by,
// creating one on first use.
func (s *Server) wizardID(w http.ResponseWriter, r *http.Request) string {
	session := s.session(r)
	if id, ok := session.Values["wizard_id"].(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	session.Values["wizard_id"] = id
	s.saveSession(w, r, session)
	return id
}
