package credentials

const (
	StatusCreated      = "CREATED"
	StatusExists       = "EXISTS"
	StatusOK           = "OK"
	StatusUnauthorized = "ERROR_UNAUTHORIZED"
	StatusNotFound     = "ERROR_NOT_FOUND"
)

type (
	// Reply is the body sent by the credential service for everything
	// except a successful fetch, which returns the profile itself.
	Reply struct {
		Status    string `json:"status"`
		Info      string `json:"info,omitempty"`
		AuthToken string `json:"authToken,omitempty"`
	}

	AuthRequest struct {
		Password string `json:"pw"`
	}
)
