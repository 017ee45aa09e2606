// Package auth verifies bearer credentials against the external
// identity provider (Firebase). The service keeps no session state:
// every request revalidates its token remotely and only the stable
// subject (uid) crosses into the rest of the application.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrUnauthenticated is returned for missing, invalid or expired
// credentials. Handlers translate it into a 401 response.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrUnavailable is returned when the identity provider is not
// configured or not reachable. Handlers translate it into a 503
// response so clients can distinguish a server-side outage from a bad
// token.
var ErrUnavailable = errors.New("identity provider unavailable")

// Verifier validates bearer tokens. A Verifier with no underlying
// client is valid but degraded: every Verify call fails with
// ErrUnavailable.
type Verifier struct {
	client *fbauth.Client
}

// Process-wide verifier state, guarded so that Init is idempotent. The
// SDK keeps its own app registry behind a package global; holding the
// handle explicitly here keeps initialization in one reviewable place.
var (
	initMu   sync.Mutex
	verifier *Verifier
)

// Init initializes the identity provider client from a service-account
// credentials file and returns a Verifier. It is safe to call multiple
// times: subsequent calls return the existing handle. When the
// credentials file is missing, Init logs a warning and returns a
// degraded Verifier so the rest of the service can still start;
// authenticated endpoints then answer 503.
func Init(ctx context.Context, credentialsPath string) *Verifier {
	initMu.Lock()
	defer initMu.Unlock()
	if verifier != nil {
		return verifier
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		log.Printf("auth: credentials file not found at %s; authenticated endpoints will be unavailable", credentialsPath)
		verifier = &Verifier{}
		return verifier
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		log.Printf("auth: identity provider init failed: %v; authenticated endpoints will be unavailable", err)
		verifier = &Verifier{}
		return verifier
	}
	client, err := app.Auth(ctx)
	if err != nil {
		log.Printf("auth: identity provider client failed: %v; authenticated endpoints will be unavailable", err)
		verifier = &Verifier{}
		return verifier
	}
	log.Printf("auth: identity provider initialized")
	verifier = &Verifier{client: client}
	return verifier
}

// Verify validates a raw bearer token and returns the stable user id
// (the token subject). Invalid or expired tokens yield
// ErrUnauthenticated; a missing client yields ErrUnavailable.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	if v == nil || v.client == nil {
		return "", ErrUnavailable
	}
	if token == "" {
		return "", ErrUnauthenticated
	}
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return decoded.UID, nil
}
