package credentials

import "fmt"

type (
	// InvalidInput is always correctable by whoever sent the request.
	InvalidInput struct {
		Field  string
		Reason string
	}

	NotFound struct {
		ID   string
		Info string
	}

	Unauthorized struct {
		ID   string
		Info string
	}

	// Conflict is returned when creating an id that is already taken.
	Conflict struct {
		ID   string
		Info string
	}

	// Unavailable covers everything the caller cannot fix: network
	// failures, timeouts and unexpected replies from the other side.
	Unavailable struct {
		Status  int
		Timeout bool
		cause   error
	}
)

func (i InvalidInput) Error() string {
	return fmt.Sprintf("invalid %v: %v", i.Field, i.Reason)
}

func (n NotFound) Error() string {
	if n.Info != "" {
		return n.Info
	}
	return fmt.Sprintf("user %v not found", n.ID)
}

func (u Unauthorized) Error() string {
	if u.Info != "" {
		return u.Info
	}
	return fmt.Sprintf("request for user %v is not authorized", u.ID)
}

func (c Conflict) Error() string {
	if c.Info != "" {
		return c.Info
	}
	return fmt.Sprintf("user %v already exists", c.ID)
}

func NewUnavailable(status int, timeout bool, cause error) Unavailable {
	return Unavailable{Status: status, Timeout: timeout, cause: cause}
}

func (u Unavailable) Error() string {
	switch {
	case u.Timeout:
		return fmt.Sprintf("credential service timed out, cause %v", u.cause)
	case u.cause != nil:
		return fmt.Sprintf("credential service unavailable, cause %v", u.cause)
	}
	return fmt.Sprintf("credential service replied with unexpected status %v", u.Status)
}

func (u Unavailable) Unwrap() error {
	return u.cause
}
