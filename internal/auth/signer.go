// Package auth implements the request signature scheme and optional HTTP
// Basic credentials.
package auth

import (
	"crypto/sha1" // #nosec G505 -- the server's signature scheme is defined over SHA-1
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrInvalidUserAuth = errors.New("user auth must be in the form user:password")
)

// Signer stamps outgoing requests with the timestamp, API key and signature
// headers, plus Basic credentials when configured.
type Signer struct {
	apiKey    string
	apiSecret string
	username  string
	password  string
	now       func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithBasicAuth layers HTTP Basic credentials on top of the signature.
func WithBasicAuth(username, password string) Option {
	return func(s *Signer) {
		s.username = username
		s.password = password
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a signer for the given key pair.
func NewSigner(apiKey, apiSecret string, opts ...Option) *Signer {
	signer := &Signer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(signer)
	}

	return signer
}

// Signature returns the lowercase hex SHA-1 of secret, timestamp and URL
// concatenated.
func Signature(secret string, timestamp int64, url string) string {
	// #nosec G401 -- required by the API's signature scheme
	sum := sha1.Sum([]byte(secret + strconv.FormatInt(timestamp, 10) + url))

	return hex.EncodeToString(sum[:])
}

// Sign sets the credential headers on req. The signature covers the fully
// qualified URL including the query string, so req.URL must be final.
func (s *Signer) Sign(req *http.Request) {
	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	timestamp := s.now().Unix()

	req.Header.Set(constants.HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(constants.HeaderAPIKey, s.apiKey)
	req.Header.Set(constants.HeaderAPISignature, Signature(s.apiSecret, timestamp, req.URL.String()))
}

// HasBasicAuth reports whether Basic credentials are configured.
func (s *Signer) HasBasicAuth() bool {
	return s.username != "" && s.password != ""
}

// ParseUserAuth splits "user:password" at the first colon.
func ParseUserAuth(userAuth string) (string, string, error) {
	username, password, ok := strings.Cut(userAuth, ":")
	if !ok || username == "" {
		return "", "", ErrInvalidUserAuth
	}

	return username, password, nil
}
