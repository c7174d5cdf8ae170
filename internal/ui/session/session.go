// Package session tracks per-browser UI state. The cookie carries only a
// session ID; everything else lives server-side and is lost on restart.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/chdoc/internal/sqlgen"
)

// cookieName is the session cookie set on first contact.
const cookieName = "chdoc_session"

// ChatEntry is one question and its outcome. Exactly one of Result and
// Err is set; SQL is present whenever generation succeeded, even if the
// query later failed.
type ChatEntry struct {
	Question string
	SQL      string
	Result   *sqlgen.Result
	Err      string
	Asked    time.Time
}

// Context is the server-side state of one browser session: the schema
// browser selection and the chat transcript. It is created on first
// interaction and cleared only by explicit user action.
type Context struct {
	ID string

	mu         sync.Mutex
	database   string
	table      string
	transcript []ChatEntry
}

// Select records the schema browser selection.
func (c *Context) Select(database, table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.database = database
	c.table = table
}

// Selection returns the selected database and table, either may be empty.
func (c *Context) Selection() (database, table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.database, c.table
}

// Append adds an entry to the end of the chat transcript.
func (c *Context) Append(entry ChatEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, entry)
}

// Transcript returns a copy of the chat transcript, oldest first.
func (c *Context) Transcript() []ChatEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatEntry, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// ClearTranscript empties the chat transcript.
func (c *Context) ClearTranscript() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = nil
}

// Manager resolves session contexts from request cookies.
type Manager struct {
	store *sessions.CookieStore

	mu     sync.Mutex
	active map[string]*Context
}

// NewManager creates a Manager whose cookies are signed with secret.
func NewManager(secret string) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400 * 30) // 30 days
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	return &Manager{
		store:  store,
		active: make(map[string]*Context),
	}
}

// Resolve returns the Context for the request's session, minting a new
// session ID (and Set-Cookie header) on first contact. A tampered cookie
// is replaced rather than rejected.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) *Context {
	sess, _ := m.store.Get(r, cookieName)

	id, ok := sess.Values["id"].(string)
	if !ok || id == "" {
		id = uuid.New().String()
		sess.Values["id"] = id
		_ = sess.Save(r, w)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.active[id]
	if !ok {
		ctx = &Context{ID: id}
		m.active[id] = ctx
	}
	return ctx
}
