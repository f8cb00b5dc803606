package auth

import (
	"crypto/subtle"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
)

// Gate is the operator credential check. It compares against a single
// configured username and password and is not meant as real access control.
type Gate struct {
	username string
	password string
}

func NewGate(username, password string) *Gate {
	return &Gate{username: username, password: password}
}

func (g *Gate) Check(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
