package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andrebq/credbox/internal/logutil"
	"github.com/andrebq/credbox/userstore"
)

type (
	Config struct {
		// StrictSubject makes Fetch reject tokens issued to a different id.
		StrictSubject bool
	}

	Service struct {
		store  userstore.Store
		hasher Hasher
		tokens *Issuer
		config Config
	}
)

func NewService(store userstore.Store, hasher Hasher, tokens *Issuer, config Config) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		config: config,
	}
}

// Create registers id with the given password and profile and returns a
// token for the new user. An existing id yields Conflict and is left
// untouched.
func (s *Service) Create(ctx context.Context, id, password string, profile json.RawMessage) (string, error) {
	log := logutil.GetOrDefault(ctx).With().Str("user", id).Logger()
	if id == "" {
		return "", InvalidInput{Field: "id", Reason: "cannot be empty"}
	}
	if isEmptyObject(profile) {
		return "", InvalidInput{Field: "profile", Reason: "must be a non-empty json object"}
	}
	if password == "" {
		return "", InvalidInput{Field: "pw", Reason: "cannot be empty"}
	}
	_, err := s.store.Find(ctx, id)
	if err == nil {
		log.Info().Msg("User already exists")
		return "", Conflict{ID: id, Info: fmt.Sprintf("user %v already exists", id)}
	} else if !errors.As(err, &userstore.NotFound{}) {
		return "", fmt.Errorf("unable to check for user %v, cause %w", id, err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	_, err = s.store.Create(ctx, userstore.Record{ID: id, Profile: profile, PasswordHash: hash})
	if errors.As(err, &userstore.Duplicate{}) {
		log.Info().Msg("User created concurrently")
		return "", Conflict{ID: id, Info: fmt.Sprintf("user %v already exists", id)}
	} else if err != nil {
		return "", err
	}
	log.Info().Msg("User created")
	return s.tokens.Issue(id)
}

// Authenticate checks password against the stored hash and mints a new
// token on success.
func (s *Service) Authenticate(ctx context.Context, id, password string) (string, error) {
	log := logutil.GetOrDefault(ctx).With().Str("user", id).Logger()
	if id == "" {
		return "", InvalidInput{Field: "id", Reason: "cannot be empty"}
	}
	rec, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	if !s.hasher.Verify(password, rec.PasswordHash) {
		log.Info().Msg("User not authorized")
		return "", Unauthorized{ID: id, Info: fmt.Sprintf("/users/%v/auth requires a valid 'pw' password query parameter", id)}
	}
	log.Info().Msg("User authorized")
	return s.tokens.Issue(id)
}

// Fetch returns the profile of id if bearer is a valid token.
func (s *Service) Fetch(ctx context.Context, id, bearer string) (json.RawMessage, error) {
	log := logutil.GetOrDefault(ctx).With().Str("user", id).Logger()
	if id == "" {
		return nil, InvalidInput{Field: "id", Reason: "cannot be empty"}
	}
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	denied := Unauthorized{ID: id, Info: fmt.Sprintf("/users/%v requires a bearer authorization header", id)}
	if bearer == "" {
		return nil, denied
	}
	claims, err := s.tokens.Verify(bearer)
	if err != nil {
		log.Info().Err(err).Msg("Token rejected")
		return nil, denied
	}
	if s.config.StrictSubject && claims.Subject != id {
		log.Warn().Str("subject", claims.Subject).Msg("Token issued to another user")
		return nil, denied
	}
	return rec.Profile, nil
}

func (s *Service) find(ctx context.Context, id string) (userstore.Record, error) {
	rec, err := s.store.Find(ctx, id)
	if errors.As(err, &userstore.NotFound{}) {
		return userstore.Record{}, NotFound{ID: id, Info: fmt.Sprintf("user %v not found", id)}
	} else if err != nil {
		return userstore.Record{}, fmt.Errorf("unable to load user %v, cause %w", id, err)
	}
	return rec, nil
}

func isEmptyObject(body json.RawMessage) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &fields); err != nil {
		return true
	}
	return len(fields) == 0
}
