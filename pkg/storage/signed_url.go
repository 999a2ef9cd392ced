package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token errors returned by Parse.
var (
	ErrTokenMalformed = errors.New("storage: malformed download token")
	ErrTokenSignature = errors.New("storage: download token signature mismatch")
	ErrTokenExpired   = errors.New("storage: download token expired")
)

const defaultLinkTTL = 5 * time.Minute

// SignedURLSigner issues short lived download tokens for private material
// files. A token is "<bucket>.<unix expiry>.<b64 path>.<hex hmac>".
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner returns a signer; a non-positive ttl means five minutes.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = defaultLinkTTL
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the default validity window.
func (s *SignedURLSigner) TTL() time.Duration { return s.ttl }

// Generate binds bucket and relPath until now+ttl. A non-positive ttl uses
// the signer default.
func (s *SignedURLSigner) Generate(bucket, relPath string, ttl time.Duration) (string, time.Time, error) {
	switch {
	case bucket == "" || relPath == "":
		return "", time.Time{}, fmt.Errorf("storage: bucket and path required")
	case len(s.secret) == 0:
		return "", time.Time{}, fmt.Errorf("storage: signing secret missing")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	expiresAt := s.now().Add(ttl).Truncate(time.Second)
	payload := strings.Join([]string{
		bucket,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(relPath)),
	}, ".")
	return payload + "." + s.mac(payload), expiresAt, nil
}

// Parse verifies token and returns what it grants. allowExpired skips the
// expiry check, which is only useful for diagnostics.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (bucket, relPath string, expiresAt time.Time, err error) {
	dot := strings.LastIndexByte(token, '.')
	if dot <= 0 {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	payload, signature := token[:dot], token[dot+1:]
	parts := strings.Split(payload, ".")
	if len(parts) != 3 {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	if !hmac.Equal([]byte(s.mac(payload)), []byte(signature)) {
		return "", "", time.Time{}, ErrTokenSignature
	}
	exp, convErr := strconv.ParseInt(parts[1], 10, 64)
	if convErr != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	path, decErr := base64.RawURLEncoding.DecodeString(parts[2])
	if decErr != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	expiresAt = time.Unix(exp, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return parts[0], string(path), expiresAt, nil
}

func (s *SignedURLSigner) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
