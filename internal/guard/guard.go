// Package guard gates entry to protected screens based on the current
// session's role claim. Decisions are purely local: no network round trip
// happens before or during an authorization check, so a role-mismatched
// user never triggers a fetch.
package guard

import (
	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/internal/session"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "ALLOW"
	case RedirectLogin:
		return "REDIRECT_LOGIN"
	case RedirectUnauthorized:
		return "REDIRECT_UNAUTHORIZED"
	}
	return "UNKNOWN"
}

// CredentialSource is the read side of the session store.
type CredentialSource interface {
	Get() (session.Credential, bool)
}

// Authorize decides whether the current session may enter a screen that
// requires one of the given roles. An absent credential always redirects
// to login, regardless of the required set.
func Authorize(creds CredentialSource, required ...models.Role) Decision {
	cred, ok := creds.Get()
	if !ok {
		return RedirectLogin
	}
	for _, r := range required {
		if cred.Role == r {
			return Allow
		}
	}
	return RedirectUnauthorized
}
