// Package auth identifies the user behind a connection.
package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrInvalidToken is returned for tokens that are malformed or carry a bad
// MAC.
var ErrInvalidToken = errors.New("invalid token")

// Identity is an authenticated user.
type Identity struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
}

// TokenVerifier checks tokens of the form "<uid>.<name>.<mac>" where mac is a
// keyed BLAKE2b-256 of "<uid>.<name>", hex encoded.
type TokenVerifier struct {
	key []byte
}

// NewTokenVerifier keys the verifier with secret. Secrets longer than a
// BLAKE2b key are hashed down first.
func NewTokenVerifier(secret []byte) (*TokenVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	key := secret
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(secret)
		key = sum[:]
	}
	return &TokenVerifier{key: append([]byte(nil), key...)}, nil
}

func (v *TokenVerifier) mac(payload string) []byte {
	// New256 only fails for keys over 64 bytes, which NewTokenVerifier rules out.
	h, _ := blake2b.New256(v.key)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

// Issue returns a token for id.
func (v *TokenVerifier) Issue(id Identity) (string, error) {
	if id.UserID <= 0 {
		return "", fmt.Errorf("user id must be positive, got %d", id.UserID)
	}
	if id.Name == "" {
		return "", errors.New("user name must not be empty")
	}
	payload := strconv.Itoa(id.UserID) + "." + id.Name
	return payload + "." + hex.EncodeToString(v.mac(payload)), nil
}

// Verify returns the identity a token was issued for. Names may contain dots;
// the uid ends at the first one and the mac starts after the last.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	first := strings.IndexByte(token, '.')
	last := strings.LastIndexByte(token, '.')
	if first <= 0 || last <= first+1 || last == len(token)-1 {
		return Identity{}, ErrInvalidToken
	}
	payload, sig := token[:last], token[last+1:]

	uid, err := strconv.Atoi(token[:first])
	if err != nil || uid <= 0 {
		return Identity{}, ErrInvalidToken
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare(got, v.mac(payload)) != 1 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: uid, Name: token[first+1 : last]}, nil
}

// IssueToken is a convenience for tooling that only has the secret.
func IssueToken(secret []byte, id Identity) (string, error) {
	v, err := NewTokenVerifier(secret)
	if err != nil {
		return "", err
	}
	return v.Issue(id)
}
