package web

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jogardn/shop-console/internal/session"
)

const (
	cookieName     = "shop-console"
	sessionIDValue = "session_id"
)

// NewCookieStore keeps the session token in a signed cookie that lives
// for a year, the browser's durable storage for the console.
func NewCookieStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// cookieStore adapts a gorilla session cookie to session.Store for a
// single request.
type cookieStore struct {
	store sessions.Store
	w     http.ResponseWriter
	r     *http.Request
}

func (c cookieStore) Load(ctx context.Context) (string, error) {
	// A cookie that fails to decode (rotated key) counts as no session.
	s, err := c.store.Get(c.r, cookieName)
	if err != nil {
		return "", session.ErrNoSession
	}
	id, _ := s.Values[sessionIDValue].(string)
	if id == "" {
		return "", session.ErrNoSession
	}
	return id, nil
}

func (c cookieStore) Save(ctx context.Context, id string) error {
	s, _ := c.store.Get(c.r, cookieName)
	s.Values[sessionIDValue] = id
	return s.Save(c.r, c.w)
}
