package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// ErrNoToken is returned when a request carries no bearer token.
var ErrNoToken = errors.New("no token")

// Validator checks bearer tokens issued by the configured auth service.
type Validator struct {
	issuer  string
	keyfunc jwt.Keyfunc
	methods []string
}

// NewValidator fetches signing keys from baseURL's JWKS endpoint. An empty
// baseURL disables authentication and returns a nil Validator.
func NewValidator(baseURL string) (*Validator, error) {
	if baseURL == "" {
		return nil, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid auth base URL: %w", err)
	}
	jwks, err := keyfunc.NewDefault([]string{strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return newValidator(u.Scheme+"://"+u.Host, jwks.Keyfunc, "EdDSA", "RS256", "ES256"), nil
}

func newValidator(issuer string, kf jwt.Keyfunc, methods ...string) *Validator {
	return &Validator{issuer: issuer, keyfunc: kf, methods: methods}
}

// Validate parses and verifies tokenString, returning its claims.
func (v *Validator) Validate(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the "token" query parameter used by browser websockets.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		if tok := strings.TrimSpace(h[len(bearerPrefix):]); tok != "" {
			return tok, nil
		}
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, nil
	}
	return "", ErrNoToken
}

// DisplayNameFromClaims returns the first word of the "name" claim, or fallback.
func DisplayNameFromClaims(claims jwt.MapClaims, fallback string) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return fallback
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
