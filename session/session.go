// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/trustvote/cliparse"
)

// CookieName is the cookie the wallet gateway sets for browsers
const CookieName = "wallet_session"

var (
	ErrNoToken        = errors.New("no session token")
	ErrInvalidToken   = errors.New("invalid session token")
	ErrInvalidAddress = errors.New("invalid wallet address")
)

// Session is the wallet connection as reported by the wallet gateway.
// It is read-only here: this service never connects or disconnects.
type Session struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

// Owner is the normalized address used to key per-wallet state
func (s Session) Owner() string {
	return strings.ToLower(s.Address)
}

// Claims carried by the gateway's session token
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Reader extracts sessions from requests
type Reader struct {
	secret []byte
	parser *jwt.Parser
}

func NewReader(cfg cliparse.Config) *Reader {
	return &Reader{
		secret: []byte(cfg.SessionSecret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Read returns the request's session. Any problem with the token yields a
// disconnected session.
func (r *Reader) Read(req *http.Request) Session {
	token := bearerToken(req)
	if token == "" {
		return Session{}
	}
	sess, err := r.Parse(token)
	if err != nil {
		return Session{}
	}
	return sess
}

// Parse validates a session token
func (r *Reader) Parse(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoToken
	}

	var claims Claims
	_, err := r.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return r.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !ValidAddress(claims.Address) {
		return Session{}, ErrInvalidAddress
	}
	return Session{Connected: true, Address: claims.Address}, nil
}

func bearerToken(req *http.Request) string {
	if h := req.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := req.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ValidAddress checks for a 0x-prefixed 20 byte hex address
func ValidAddress(addr string) bool {
	hexPart, ok := strings.CutPrefix(addr, "0x")
	if !ok || len(hexPart) != 40 {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil
}

// Fingerprint creates a one-way hash of a wallet address for the journal.
// Includes salt to prevent lookups against known addresses.
func Fingerprint(address, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(strings.ToLower(address)))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) - enough for correlation
	return hex.EncodeToString(sum[:8])
}

type ctxKey struct{}

// WithSession attaches a session to ctx
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by WithSession, or a
// disconnected session
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(ctxKey{}).(Session)
	return s
}
