// Package session keeps the proxy's login state in a sealed cookie.
//
// A Session is decoded once when a request arrives. Handlers never mutate
// it; they return an Update which the transport layer writes back into the
// response.
package session

import "time"

type (
	Session struct {
		User    string    `json:"u"`
		Token   string    `json:"t"`
		Expires time.Time `json:"e"`
	}

	updateKind byte

	// Update tells the transport layer what to do with the session cookie
	// once a handler is done.
	Update struct {
		kind    updateKind
		session Session
	}
)

const (
	keepCookie updateKind = iota
	setCookie
	clearCookie
)

// Authenticated requires both a user and a token, a session missing either
// is anonymous.
func (s Session) Authenticated() bool {
	return s.User != "" && s.Token != ""
}

// Keep leaves the cookie as the browser sent it.
func Keep() Update { return Update{kind: keepCookie} }

// Set replaces the cookie with s. A zero Expires gets the codec's full
// duration when written.
func Set(s Session) Update { return Update{kind: setCookie, session: s} }

// Clear removes the cookie.
func Clear() Update { return Update{kind: clearCookie} }

func (u Update) IsKeep() bool  { return u.kind == keepCookie }
func (u Update) IsClear() bool { return u.kind == clearCookie }

// Session returns the value carried by Set, false for Keep and Clear.
func (u Update) Session() (Session, bool) {
	return u.session, u.kind == setCookie
}
