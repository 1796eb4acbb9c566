package main

import (
	"encoding/json"
	"regexp"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{
		errors: make(map[string]string),
	}
}

// validationError carries the per-field message map to the response
// boundary as a ready-to-send JSON object.
type validationError struct {
	body string
}

func (e *validationError) Error() string {
	return e.body
}

func (v *validator) toError() error {
	data, err := json.Marshal(v.errors)
	if err != nil {
		return err
	}
	return &validationError{body: string(data)}
}

func (v *validator) hasErrors() bool {
	return len(v.errors) != 0
}

// checkCond records msg under key when cond fails; the first failure
// per key wins.
func (v *validator) checkCond(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *validator) checkUsername(username string) {
	v.checkCond(username != "", "username", "must be provided")
	v.checkCond(len(username) <= 150, "username", "must be atmost 150 characters")
}

func (v *validator) checkEmail(email string) {
	v.checkCond(email != "", "email", "must be provided")
	v.checkCond(emailRegexp.Match([]byte(email)), "email", "must be a valid email address")
}

func (v *validator) checkPassword(password string) {
	v.checkCond(password != "", "password", "must be provided")
	v.checkCond(len(password) >= 6, "password", "must be atleast 6 characters long")
	v.checkCond(len(password) <= 72, "password", "must be atmost 72 characters long")
}

// checkTitle expects title to be trimmed already.
func (v *validator) checkTitle(title string) {
	v.checkCond(title != "", "title", "cannot be empty or whitespace")
	v.checkCond(len(title) <= 200, "title", "must be atmost 200 characters")
}
