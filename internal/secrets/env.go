// Package secrets loads deployment secrets from the environment.
//
// Secrets are never passed as flags. A flag names the environment variable
// holding a base64 encoded value, the variable is cleared once read so
// child processes do not inherit it.
package secrets

import (
	"encoding/base64"
	"fmt"
	"os"
)

const (
	TokenSecretEnvVar   = "CREDBOX_TOKEN_SECRET"
	SessionSecretEnvVar = "CREDBOX_SESSION_SECRET"

	MinSize = 32
)

func FromEnv(varname string, getfn func(string) string, setfn func(string, string) error) ([]byte, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	setfn(varname, "")
	if val == "" {
		return nil, fmt.Errorf("secrets: environment variable %v is empty", varname)
	}
	secret, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("secrets: cannot decode %v as base64, cause %v", varname, err)
	} else if len(secret) < MinSize {
		return nil, fmt.Errorf("secrets: decoded %v too short got %v expecting at least %v bytes", varname, len(secret), MinSize)
	}
	return secret, nil
}
