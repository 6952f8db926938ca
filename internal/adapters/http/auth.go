package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/alizenart/closeted/internal/infrastructure/identity"
)

// Authenticator validates bearer tokens and puts their subject on the
// request context as the record owner.
type Authenticator struct {
	keyfunc func(ctx context.Context) jwt.Keyfunc
	methods []string
	issuer  string
	leeway  time.Duration
}

// NewHMACAuthenticator accepts HS256 tokens signed with a shared secret.
func NewHMACAuthenticator(secret, issuer string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth secret is empty")
	}
	key := []byte(secret)
	return &Authenticator{
		keyfunc: func(context.Context) jwt.Keyfunc {
			return func(*jwt.Token) (any, error) { return key, nil }
		},
		methods: []string{jwt.SigningMethodHS256.Alg()},
		issuer:  issuer,
		leeway:  30 * time.Second,
	}, nil
}

// NewJWKSAuthenticator validates RS256/ES256 tokens against a remote key set
// that is refreshed in the background until ctx ends.
func NewJWKSAuthenticator(ctx context.Context, jwksURL, issuer string) (*Authenticator, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create jwks keyfunc: %w", err)
	}
	return NewAuthenticatorWithKeyfunc(kf, issuer), nil
}

func NewAuthenticatorWithKeyfunc(kf keyfunc.Keyfunc, issuer string) *Authenticator {
	return &Authenticator{
		keyfunc: kf.KeyfuncCtx,
		methods: []string{"RS256", "ES256"},
		issuer:  issuer,
		leeway:  30 * time.Second,
	}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := a.subject(r)
		if err != nil {
			slog.Debug("auth_rejected",
				"request_id", requestIDFromContext(r.Context()),
				"error", err,
			)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithOwner(r.Context(), subject)))
	})
}

func (a *Authenticator) subject(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("missing bearer token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(a.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.leeway),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, a.keyfunc(r.Context()), opts...); err != nil {
		return "", err
	}
	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}
