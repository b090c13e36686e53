package proxy

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	msgEmailEmpty      = "( Email field cannot be empty. )"
	msgEmailInvalid    = "( Not a valid email. )"
	msgPasswordEmpty   = "( Password field cannot be empty. )"
	msgPasswordsEmpty  = "( Password fields cannot be empty. )"
	msgFirstNameEmpty  = "First Name cannot be empty"
	msgLastNameEmpty   = "Last Name cannot be empty"
	msgPasswordsDiffer = "Password and Confirm Password should match."
	msgPasswordPolicy  = "Need atleast 8 characters in password, no spaces & atleast one digit"

	minPasswordLen = 8
	maxFormSize    = 64 << 10
)

var (
	emailRE = regexp.MustCompile(`(?i)^([\w\-\.]+)@((\[([0-9]{1,3}\.){3}[0-9]{1,3}\])|(([\w\-]+\.)+)([a-zA-Z]{2,4}))$`)
)

type (
	LoginForm struct {
		Email    string
		Password string
	}

	SignupForm struct {
		Email           string
		Password        string
		ConfirmPassword string
		FirstName       string
		LastName        string
	}

	// FormError is shown to the user next to the form that caused it.
	FormError struct {
		Field   string
		Message string
	}
)

func (f FormError) Error() string {
	return f.Message
}

func readLogin(w http.ResponseWriter, r *http.Request) LoginForm {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	return LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
}

func readSignup(w http.ResponseWriter, r *http.Request) SignupForm {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	return SignupForm{
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		FirstName:       r.PostFormValue("firstName"),
		LastName:        r.PostFormValue("lastName"),
	}
}

// Validate checks presence before shape, the first failing rule wins.
func (f LoginForm) Validate() error {
	switch {
	case f.Email == "":
		return FormError{Field: "email", Message: msgEmailEmpty}
	case f.Password == "":
		return FormError{Field: "password", Message: msgPasswordEmpty}
	case !validEmail(f.Email):
		return FormError{Field: "email", Message: msgEmailInvalid}
	}
	return nil
}

// Validate runs the signup rules in order, the first failing rule wins.
func (f SignupForm) Validate() error {
	switch {
	case f.Email == "":
		return FormError{Field: "email", Message: msgEmailEmpty}
	case !validEmail(f.Email):
		return FormError{Field: "email", Message: msgEmailInvalid}
	case f.Password == "" || f.ConfirmPassword == "":
		return FormError{Field: "password", Message: msgPasswordsEmpty}
	case strings.TrimSpace(f.FirstName) == "":
		return FormError{Field: "firstName", Message: msgFirstNameEmpty}
	case strings.TrimSpace(f.LastName) == "":
		return FormError{Field: "lastName", Message: msgLastNameEmpty}
	case f.Password != f.ConfirmPassword:
		return FormError{Field: "confirmPassword", Message: msgPasswordsDiffer}
	case !validPassword(f.Password):
		return FormError{Field: "password", Message: msgPasswordPolicy}
	}
	return nil
}

// ID is the account id sent to the credential service.
func (f LoginForm) ID() string { return strings.TrimSpace(f.Email) }

func (f SignupForm) ID() string { return strings.TrimSpace(f.Email) }

func validEmail(email string) bool {
	return emailRE.MatchString(strings.TrimSpace(email))
}

func validPassword(pw string) bool {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return false
	}
	var digit bool
	for _, r := range pw {
		if unicode.IsSpace(r) {
			return false
		}
		if r >= '0' && r <= '9' {
			digit = true
		}
	}
	return digit
}
