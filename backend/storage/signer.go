package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/sync/errgroup"
)

const signConcurrency = 8

type objectClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// Signer issues and checks signed object URLs of the form
// <base>/<key>?token=<jwt>.
type Signer struct {
	secret  []byte
	baseURL string
}

// NewSigner signs URLs under baseURL, e.g. https://api.example/storage/avatars.
func NewSigner(secret, baseURL string) *Signer {
	return &Signer{secret: []byte(secret), baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Signer) Token(key string, ttl time.Duration) (string, error) {
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	now := time.Now()
	claims := objectClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign object url: %w", err)
	}
	return token, nil
}

func (s *Signer) SignedURL(key string, ttl time.Duration) (string, error) {
	token, err := s.Token(key, ttl)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + url.PathEscape(key) + "?token=" + url.QueryEscape(token), nil
}

// Verify checks that token was issued for key and has not expired.
func (s *Signer) Verify(key, token string) error {
	parsed, err := jwt.ParseWithClaims(token, &objectClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*objectClaims)
	if !ok || !parsed.Valid || claims.Key != key {
		return ErrInvalidToken
	}
	return nil
}

// SignMany signs every key in parallel and returns key -> URL.
func (s *Signer) SignMany(ctx context.Context, keys []string, ttl time.Duration) (map[string]string, error) {
	var mu sync.Mutex
	urls := make(map[string]string, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			u, err := s.SignedURL(key, ttl)
			if err != nil {
				return fmt.Errorf("sign %s: %w", key, err)
			}
			mu.Lock()
			urls[key] = u
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
