package main

import (
	"crypto/rand"
	"encoding/base32"
)

// generateTokenKey returns a new opaque bearer credential. 26 random
// bytes come out as a 42-character base32 string with no structure to
// parse: validity is decided only by an exact lookup in the token store.
func generateTokenKey() (string, error) {
	b := make([]byte, 26)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

// issueOrReuseToken returns the user's existing token key if one is
// live, otherwise mints and persists a new one. Logging in never
// rotates a token; only logout does.
func issueOrReuseToken(s storage, u *user) (string, error) {
	key, err := s.getTokenForUser(u.ID)
	if err != nil {
		return "", err
	}
	if key != "" {
		return key, nil
	}
	key, err = generateTokenKey()
	if err != nil {
		return "", err
	}
	err = s.insertToken(key, u.ID)
	if err != nil {
		return "", err
	}
	return key, nil
}
