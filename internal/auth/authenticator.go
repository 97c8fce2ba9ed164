package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"v2v-radar/service/internal/config"
)

// SubjectStore is the auth collaborator's user lookup. The core never sees
// credentials, only whether a token subject is a known user.
type SubjectStore interface {
	SubjectExists(ctx context.Context, subject string) (bool, error)
}

type cacheEntry struct {
	expiresAt time.Time
}

// Authenticator validates bearer tokens in three tiers: static allow-list
// from config, then a local TTL cache, then the user store.
type Authenticator struct {
	secret         []byte
	staticSubjects map[string]bool
	localCache     sync.Map
	users          SubjectStore
	ttl            time.Duration
}

func NewAuthenticator(cfg *config.Config, users SubjectStore) *Authenticator {
	staticSubjects := make(map[string]bool, len(cfg.AuthStaticSubjects))
	for _, s := range cfg.AuthStaticSubjects {
		staticSubjects[s] = true
	}

	return &Authenticator{
		secret:         []byte(cfg.AuthJWTSecret),
		staticSubjects: staticSubjects,
		users:          users,
		ttl:            time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
	}
}

// Validate parses and verifies the token, then resolves its subject.
func (a *Authenticator) Validate(ctx context.Context, token string) bool {
	subject, err := a.subject(token)
	if err != nil || subject == "" {
		return false
	}

	// Level 0: static config subjects
	if a.staticSubjects[subject] {
		return true
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(subject); ok {
		entry := raw.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		a.localCache.Delete(subject)
	}

	// Level 2: user store lookup
	if a.users == nil {
		return false
	}
	exists, err := a.users.SubjectExists(ctx, subject)
	if err != nil || !exists {
		return false
	}

	a.localCache.Store(subject, cacheEntry{expiresAt: time.Now().Add(a.ttl)})
	return true
}

func (a *Authenticator) subject(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return parsed.Claims.GetSubject()
}
