package proxy

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	viewLogin    = "login"
	viewSignup   = "signup"
	viewAccount  = "account"
	viewNotFound = "notfound"

	statusError   = "ERROR"
	statusSuccess = "SUCCESS"
)

type (
	// page is everything a template can show. Passwords never go here.
	page struct {
		Title     string
		Status    string
		Message   string
		Email     string
		FirstName string
		LastName  string
	}

	views map[string]*template.Template
)

var titles = map[string]string{
	viewLogin:    "Login Page",
	viewSignup:   "Signup Page",
	viewAccount:  "Accounts Page",
	viewNotFound: "Not Found",
}

func loadViews() (views, error) {
	v := views{}
	for name := range titles {
		t, err := template.ParseFS(templateFS, "templates/layout.html", fmt.Sprintf("templates/%v.html", name))
		if err != nil {
			return nil, fmt.Errorf("unable to parse view %v, cause %w", name, err)
		}
		v[name] = t
	}
	return v, nil
}

func (v views) render(w http.ResponseWriter, status int, name string, data page) error {
	t, ok := v[name]
	if !ok {
		return fmt.Errorf("view %v does not exist", name)
	}
	if data.Title == "" {
		data.Title = titles[name]
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
