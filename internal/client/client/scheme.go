package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/common"
)

// authScheme decides where the credential goes in each request.
type authScheme interface {
	// credentialField names the JSON field carrying the credential at login
	// and registration.
	credentialField() string

	// authorize attaches creds to an authenticated request.
	authorize(req *http.Request, body map[string]any, creds models.Credentials)

	// profileRequest describes how the current account is read back.
	profileRequest(creds models.Credentials) (method, path string, body map[string]any)

	// accountBody is the body of DELETE /delete-user.
	accountBody(creds models.Credentials) map[string]any

	// issuesToken reports whether login/registration must return a token.
	issuesToken() bool
}

func newScheme(s models.Scheme) (authScheme, error) {
	switch s {
	case models.SchemeKey:
		return keyScheme{}, nil
	case models.SchemeToken:
		return tokenScheme{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownScheme, s)
	}
}

type keyScheme struct{}

func (keyScheme) credentialField() string { return "encryption_key" }

func (k keyScheme) loginBody(creds models.Credentials) map[string]any {
	return map[string]any{"email": creds.Email, k.credentialField(): creds.Secret}
}

func (k keyScheme) authorize(_ *http.Request, body map[string]any, creds models.Credentials) {
	if body != nil {
		body["auth"] = k.loginBody(creds)
	}
}

// The key scheme has no session on the server; the account is read back
// by logging in again with the stored key.
func (k keyScheme) profileRequest(creds models.Credentials) (string, string, map[string]any) {
	return http.MethodPost, "/login", k.loginBody(creds)
}

func (k keyScheme) accountBody(creds models.Credentials) map[string]any {
	return k.loginBody(creds)
}

func (keyScheme) issuesToken() bool { return false }

type tokenScheme struct{}

func (tokenScheme) credentialField() string { return "password" }

func (tokenScheme) authorize(req *http.Request, _ map[string]any, creds models.Credentials) {
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+creds.Secret)
}

func (tokenScheme) profileRequest(models.Credentials) (string, string, map[string]any) {
	return http.MethodGet, "/me", nil
}

func (tokenScheme) accountBody(models.Credentials) map[string]any { return nil }

func (tokenScheme) issuesToken() bool { return true }
