package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
)

// AnonymousOwner owns every request when authentication is disabled.
const AnonymousOwner = "anonymous"

const ownerKey = "owner"

var errMissingToken = errors.New("missing bearer token")

// TokenVerifier verifies a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

// OIDCVerifier verifies ID tokens issued by an OIDC provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's keys and returns a verifier for
// tokens minted for clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify checks the token signature, issuer, audience and expiry.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}
	if token.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return token.Subject, nil
}

// AuthMiddleware resolves the owner of each API request.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware instance. A nil verifier
// disables authentication and every request runs as AnonymousOwner.
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth ensures the request carries a valid bearer token.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	if m.verifier == nil {
		c.Locals(ownerKey, AnonymousOwner)
		return c.Next()
	}

	raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return unauthorized(c)
	}

	sub, err := m.verifier.Verify(c.Context(), raw)
	if err != nil {
		return unauthorized(c)
	}

	c.Locals(ownerKey, sub)
	return c.Next()
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  "unauthorized",
	})
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

// Owner returns the owner resolved by RequireAuth.
func Owner(c fiber.Ctx) string {
	if owner, ok := c.Locals(ownerKey).(string); ok && owner != "" {
		return owner
	}
	return AnonymousOwner
}
