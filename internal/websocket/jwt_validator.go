package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken reports a token that failed signature or claim
// validation.
var ErrInvalidToken = errors.New("invalid token")

// ErrWorkspaceNotFound reports a valid token whose subject has no
// workspace.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// WorkspaceLookup resolves an Auth0 user to their workspace. The
// WebSocket handshake authenticates per workspace, not per user, so a
// token is only as good as the workspace behind it.
type WorkspaceLookup interface {
	GetWorkspaceByAuth0ID(auth0ID string) (workspaceID int32, err error)
}

// CustomClaims is empty: the handshake only needs the subject, which
// lives in the registered claims.
type CustomClaims struct{}

// Validate satisfies validator.CustomClaims.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator checks Auth0 tokens presented during the
// WebSocket handshake and maps them to a workspace.
type Auth0JWTValidator struct {
	validator       *validator.Validator
	workspaceLookup WorkspaceLookup
}

// NewAuth0JWTValidator builds a validator for the given Auth0 tenant
// domain and API audience, mirroring the HTTP middleware's settings
// so a token good for the API is good for the socket.
func NewAuth0JWTValidator(domain, audience string, workspaceLookup WorkspaceLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	keyProvider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		keyProvider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator:       jwtValidator,
		workspaceLookup: workspaceLookup,
	}, nil
}

// ValidateToken verifies the token and returns the workspace its
// subject belongs to. Validation failures collapse to ErrInvalidToken
// so callers never leak why a token was rejected.
func (v *Auth0JWTValidator) ValidateToken(token string) (workspaceID int32, err error) {
	claims, err := v.validator.ValidateToken(context.Background(), token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	wsID, err := v.workspaceLookup.GetWorkspaceByAuth0ID(validatedClaims.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrWorkspaceNotFound
	}

	return wsID, nil
}
