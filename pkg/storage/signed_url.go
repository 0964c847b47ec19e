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

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// DownloadClaims is what a download token vouches for.
type DownloadClaims struct {
	ExportID  string
	Path      string
	ExpiresAt time.Time
}

// TokenSigner issues and checks HMAC-signed download tokens of the form
// <export id>.<expiry unix>.<base64url path>.<hex signature>.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner constructs a signer. A non-positive ttl defaults to 24h.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for the export's stored file.
func (s *TokenSigner) Sign(exportID, path string) (string, time.Time, error) {
	if exportID == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("export id and path required")
	}
	if strings.Contains(exportID, ".") {
		return "", time.Time{}, fmt.Errorf("export id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	token := strings.Join([]string{exportID, exp, encodedPath, s.sign(exportID, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Verify checks the signature and, unless allowExpired, the expiry.
func (s *TokenSigner) Verify(token string, allowExpired bool) (DownloadClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadClaims{}, ErrTokenMalformed
	}
	exportID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(exportID, exp, encodedPath)), []byte(signature)) {
		return DownloadClaims{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return DownloadClaims{}, ErrTokenMalformed
	}
	path, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return DownloadClaims{}, ErrTokenMalformed
	}
	claims := DownloadClaims{ExportID: exportID, Path: string(path), ExpiresAt: time.Unix(unix, 0)}
	if !allowExpired && s.now().After(claims.ExpiresAt) {
		return DownloadClaims{}, ErrTokenExpired
	}
	return claims, nil
}

func (s *TokenSigner) sign(exportID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(exportID + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
