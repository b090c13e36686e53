// Package proxy serves the browser facing pages and forwards credentials
// to the credential service.
//
// A request is either Anonymous or Authenticated, depending on the session
// cookie it carries. Handlers compute an outcome from the decoded session
// and the form; the outcome says which page to render or where to
// redirect, and how the session cookie changes.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/andrebq/credbox/credentials"
	"github.com/andrebq/credbox/internal/logutil"
	"github.com/andrebq/credbox/session"
	"github.com/julienschmidt/httprouter"
)

const (
	msgUnauthorized = credentials.StatusUnauthorized + " ( Please Login with valid credentials. )"
	msgNotFound     = credentials.StatusNotFound + " ( User not found. Signup. )"
	msgBackendError = "Web Service Error.."
	msgTokenExpired = "Web Service Token Expired, Session Terminated. Login Again."
	msgLoggedIn     = "LOGGED IN"
)

type (
	// Backend is the credential service as seen by the proxy,
	// credentials/client.Client implements it.
	Backend interface {
		Create(ctx context.Context, id, password string, profile json.RawMessage) (string, error)
		Authenticate(ctx context.Context, id, password string) (string, error)
		Fetch(ctx context.Context, id, token string) (json.RawMessage, error)
	}

	outcome struct {
		status   int
		view     string
		page     page
		redirect string
		session  session.Update
	}

	handlerFunc func(w http.ResponseWriter, r *http.Request, current session.Session) outcome

	profile struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}

	proxy struct {
		backend Backend
		codec   *session.Codec
		views   views
		now     func() time.Time
	}
)

// AsHandler returns the router for the proxy pages.
func AsHandler(ctx context.Context, backend Backend, codec *session.Codec) (http.Handler, error) {
	return asHandler(ctx, backend, codec, time.Now)
}

func asHandler(ctx context.Context, backend Backend, codec *session.Codec, now func() time.Time) (http.Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	p := &proxy{backend: backend, codec: codec, views: v, now: now}

	router := httprouter.New()
	router.HandlerFunc("GET", "/", p.adapt(p.showAccount))
	router.HandlerFunc("GET", "/account", p.adapt(p.showAccount))
	router.HandlerFunc("GET", "/signup", p.adapt(p.showSignup))
	router.HandlerFunc("GET", "/logout", p.adapt(p.logout))
	router.HandlerFunc("POST", "/", p.adapt(p.login))
	router.HandlerFunc("POST", "/signup", p.adapt(p.signup))
	router.NotFound = p.adapt(p.notFound)
	// a known path with another method is still a missing page
	router.MethodNotAllowed = p.adapt(p.notFound)
	return router, nil
}

// adapt decodes the session, runs h and writes its outcome.
func (p *proxy) adapt(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logutil.GetOrDefault(r.Context())
		now := p.now()
		current, refreshed := p.codec.Decode(r, now)
		out := h(w, r, current)

		update := out.session
		if update.IsKeep() && refreshed && current.Authenticated() {
			update = session.Set(current)
		}
		if err := p.codec.Write(w, update, now); err != nil {
			log.Error().Err(err).Msg("Unable to write session cookie")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if out.redirect != "" {
			http.Redirect(w, r, out.redirect, http.StatusFound)
			return
		}
		status := out.status
		if status == 0 {
			status = http.StatusOK
		}
		if err := p.views.render(w, status, out.view, out.page); err != nil {
			log.Error().Err(err).Str("view", out.view).Msg("Unable to render view")
		}
	}
}

func render(view string, pg page) outcome {
	return outcome{view: view, page: pg, session: session.Keep()}
}

func redirect(to string, update session.Update) outcome {
	return outcome{redirect: to, session: update}
}

// GET / and GET /account
func (p *proxy) showAccount(w http.ResponseWriter, r *http.Request, current session.Session) outcome {
	if !current.Authenticated() {
		return render(viewLogin, page{})
	}
	log := logutil.GetOrDefault(r.Context()).With().Str("user", current.User).Logger()
	body, err := p.backend.Fetch(r.Context(), current.User, current.Token)
	var prof profile
	if err == nil {
		err = json.Unmarshal(body, &prof)
	}
	if err != nil {
		log.Info().Err(err).Msg("Session terminated")
		out := render(viewLogin, page{Status: statusError, Message: msgTokenExpired})
		out.session = session.Clear()
		return out
	}
	return render(viewAccount, page{
		Status:    statusSuccess,
		Message:   msgLoggedIn,
		FirstName: prof.FirstName,
		LastName:  prof.LastName,
	})
}

// GET /signup
func (p *proxy) showSignup(w http.ResponseWriter, r *http.Request, current session.Session) outcome {
	if current.Authenticated() {
		return redirect("/account", session.Keep())
	}
	return render(viewSignup, page{})
}

// GET /logout
func (p *proxy) logout(w http.ResponseWriter, r *http.Request, current session.Session) outcome {
	if current.Authenticated() {
		log := logutil.GetOrDefault(r.Context())
		log.Info().Str("user", current.User).Msg("User logged out")
	}
	return redirect("/account", session.Clear())
}

// POST /
func (p *proxy) login(w http.ResponseWriter, r *http.Request, current session.Session) outcome {
	form := readLogin(w, r)
	if err := form.Validate(); err != nil {
		return render(viewLogin, page{Status: statusError, Message: err.Error(), Email: form.Email})
	}
	log := logutil.GetOrDefault(r.Context()).With().Str("user", form.ID()).Logger()
	token, err := p.backend.Authenticate(r.Context(), form.ID(), form.Password)
	if err == nil {
		log.Info().Msg("User logged in")
		return redirect("/account", session.Set(session.Session{User: form.ID(), Token: token}))
	}
	switch {
	case errors.As(err, &credentials.Unauthorized{}):
		log.Info().Msg("Login rejected")
		return render(viewLogin, page{Status: statusError, Message: msgUnauthorized, Email: form.Email})
	case errors.As(err, &credentials.NotFound{}):
		log.Info().Msg("Login for unknown user")
		return render(viewSignup, page{Status: statusError, Message: msgNotFound, Email: form.Email})
	}
	log.Error().Err(err).Msg("Unable to authenticate user")
	return render(viewLogin, page{Status: statusError, Message: msgBackendError, Email: form.Email})
}

// POST /signup
func (p *proxy) signup(w http.ResponseWriter, r *http.Request, current session.Session) outcome {
	form := readSignup(w, r)
	retry := page{Status: statusError, Email: form.Email, FirstName: form.FirstName, LastName: form.LastName}
	if err := form.Validate(); err != nil {
		retry.Message = err.Error()
		return render(viewSignup, retry)
	}
	log := logutil.GetOrDefault(r.Context()).With().Str("user", form.ID()).Logger()
	body, err := json.Marshal(profile{FirstName: strings.TrimSpace(form.FirstName), LastName: strings.TrimSpace(form.LastName)})
	if err != nil {
		log.Error().Err(err).Msg("Unable to encode profile")
		retry.Message = msgBackendError
		return render(viewSignup, retry)
	}
	token, err := p.backend.Create(r.Context(), form.ID(), form.Password, body)
	if err == nil {
		log.Info().Msg("User signed up")
		return redirect("/account", session.Set(session.Session{User: form.ID(), Token: token}))
	}
	var conflict credentials.Conflict
	if errors.As(err, &conflict) {
		log.Info().Msg("Signup for existing user")
		return render(viewLogin, page{
			Status:  statusError,
			Message: credentials.StatusExists + " ( " + conflict.Error() + " ), Please Login.",
			Email:   form.Email,
		})
	}
	log.Error().Err(err).Msg("Unable to create user")
	retry.Message = msgBackendError
	return render(viewSignup, retry)
}

func (p *proxy) notFound(w http.ResponseWriter, r *http.Request, current session.Session) outcome {
	out := render(viewNotFound, page{})
	out.status = http.StatusNotFound
	return out
}
