package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/andrebq/credbox/credentials"
	"github.com/andrebq/credbox/internal/logutil"
	"github.com/julienschmidt/httprouter"
)

const (
	// profiles are small, anything bigger is a mistake or abuse
	maxBody = 1 << 20
)

var (
	bearerTokenRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)
)

// AsHandler exposes svc under /users.
func AsHandler(ctx context.Context, svc *credentials.Service) http.Handler {
	router := httprouter.New()
	router.HandlerFunc("PUT", "/users/:id", newUser(svc))
	router.HandlerFunc("PUT", "/users/:id/auth", authUser(svc))
	router.HandlerFunc("GET", "/users/:id", getUser(svc))
	return router
}

// PUT /users/:id?pw=PASSWORD with the profile as body
func newUser(svc *credentials.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		body, ok := readObject(r)
		if id == "" || !ok {
			sendStatus(w, http.StatusBadRequest)
			return
		}
		token, err := svc.Create(r.Context(), id, r.URL.Query().Get("pw"), body)
		if err != nil {
			sendError(w, r, err)
			return
		}
		send(w, r, http.StatusCreated, credentials.Reply{Status: credentials.StatusCreated, AuthToken: token})
	}
}

// PUT /users/:id/auth with {"pw": PASSWORD} as body
func authUser(svc *credentials.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		body, ok := readObject(r)
		if id == "" || !ok {
			sendStatus(w, http.StatusBadRequest)
			return
		}
		var req credentials.AuthRequest
		// a non-string pw is treated as a wrong password
		_ = json.Unmarshal(body, &req)
		token, err := svc.Authenticate(r.Context(), id, req.Password)
		if err != nil {
			sendError(w, r, err)
			return
		}
		send(w, r, http.StatusOK, credentials.Reply{Status: credentials.StatusOK, AuthToken: token})
	}
}

// GET /users/:id with Authorization: Bearer TOKEN
func getUser(svc *credentials.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if id == "" {
			sendStatus(w, http.StatusBadRequest)
			return
		}
		profile, err := svc.Fetch(r.Context(), id, bearerToken(r))
		if err != nil {
			sendError(w, r, err)
			return
		}
		w.Header().Set("Location", requestURL(r))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(profile)))
		w.WriteHeader(http.StatusOK)
		w.Write(profile)
	}
}

func bearerToken(r *http.Request) string {
	groups := bearerTokenRE.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(groups) == 0 {
		return ""
	}
	return groups[1]
}

// readObject returns the request body if it is a json object with at
// least one field.
func readObject(r *http.Request) (json.RawMessage, bool) {
	buf, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buf, &fields); err != nil || len(fields) == 0 {
		return nil, false
	}
	return buf, true
}

func sendError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid      credentials.InvalidInput
		conflict     credentials.Conflict
		notFound     credentials.NotFound
		unauthorized credentials.Unauthorized
	)
	switch {
	case errors.As(err, &invalid):
		sendStatus(w, http.StatusBadRequest)
	case errors.As(err, &conflict):
		send(w, r, http.StatusSeeOther, credentials.Reply{Status: credentials.StatusExists, Info: conflict.Error()})
	case errors.As(err, &notFound):
		send(w, r, http.StatusNotFound, credentials.Reply{Status: credentials.StatusNotFound, Info: notFound.Error()})
	case errors.As(err, &unauthorized):
		send(w, r, http.StatusUnauthorized, credentials.Reply{Status: credentials.StatusUnauthorized, Info: unauthorized.Error()})
	default:
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Unable to serve request")
		sendStatus(w, http.StatusInternalServerError)
	}
}

func send(w http.ResponseWriter, r *http.Request, status int, reply credentials.Reply) {
	buf, err := json.Marshal(reply)
	if err != nil {
		sendStatus(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Location", requestURL(r))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	w.Write(buf)
}

func sendStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%v://%v%v", scheme, r.Host, r.URL.EscapedPath())
}
