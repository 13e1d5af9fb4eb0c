package mlclient

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Authorizer turns an unsigned request into one ready to send.
type Authorizer interface {
	Authorize(req *http.Request) (*http.Request, error)
}

// TokenAuthorizer sets a bearer token from an oauth2 token source.
type TokenAuthorizer struct {
	source oauth2.TokenSource
}

func NewTokenAuthorizer(source oauth2.TokenSource) *TokenAuthorizer {
	return &TokenAuthorizer{source: oauth2.ReuseTokenSource(nil, source)}
}

// NewDefaultAuthorizer uses Google Application Default Credentials.
func NewDefaultAuthorizer(ctx context.Context) (*TokenAuthorizer, error) {
	source, err := google.DefaultTokenSource(ctx, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}
	return NewTokenAuthorizer(source), nil
}

func (a *TokenAuthorizer) Authorize(req *http.Request) (*http.Request, error) {
	token, err := a.source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}
	signed := req.Clone(req.Context())
	token.SetAuthHeader(signed)
	return signed, nil
}

// NoAuth sends requests unchanged.
type NoAuth struct{}

func (NoAuth) Authorize(req *http.Request) (*http.Request, error) {
	return req, nil
}
