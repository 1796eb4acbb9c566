package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("Invalid credentials")

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	v := newValidator()
	v.checkUsername(input.Username)
	v.checkEmail(input.Email)
	v.checkPassword(input.Password)
	v.checkCond(input.Password == input.Password2, "password2", "passwords do not match")
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	existing, err := app.storage.getUserByUsername(input.Username)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	v.checkCond(existing == nil, "username", "a user with that username already exists")

	existing, err = app.storage.getUserByEmail(input.Email)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	v.checkCond(existing == nil, "email", "a user with that email already exists")

	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	u := &user{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}
	err = app.storage.insertUser(u)
	if err != nil {
		// The uniqueness pre-checks race with concurrent registrations;
		// a lost race surfaces here as a constraint violation, not a 500.
		switch {
		case errors.Is(err, errDuplicateUsername):
			v.checkCond(false, "username", "a user with that username already exists")
			writeError(w, v.toError(), http.StatusBadRequest)
		case errors.Is(err, errDuplicateEmail):
			v.checkCond(false, "email", "a user with that email already exists")
			writeError(w, v.toError(), http.StatusBadRequest)
		default:
			log.Println(err)
			writeError(w, errInternal, http.StatusInternalServerError)
		}
		return
	}

	key, err := issueOrReuseToken(app.storage, u)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	if app.mailer != nil {
		go func() {
			err := app.mailer.send(u.Email, welcomeTmpl, u)
			if err != nil {
				log.Println(err)
			}
		}()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": map[string]any{
			"id":       u.ID,
			"username": u.Username,
			"email":    u.Email,
		},
		"token":   key,
		"message": "User registered successfully",
	})
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	v := newValidator()
	v.checkCond(input.Username != "", "username", "must be provided")
	v.checkCond(input.Password != "", "password", "must be provided")
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	// An unknown username and a wrong password produce the same
	// response so the endpoint confirms nothing about which part failed.
	u, err := app.storage.getUserByUsername(input.Username)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if u == nil {
		writeError(w, errInvalidCredentials, http.StatusUnauthorized)
		return
	}
	err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password))
	if err != nil {
		writeError(w, errInvalidCredentials, http.StatusUnauthorized)
		return
	}

	key, err := issueOrReuseToken(app.storage, u)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":    key,
		"user_id":  u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	err := app.storage.deleteTokensForUser(u.ID)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}

type profileResponse struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newProfileResponse(u *user) profileResponse {
	return profileResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	writeJSON(w, http.StatusOK, newProfileResponse(u))
}

// updateProfileHandler serves both PUT and PATCH with partial
// semantics: absent fields are left as they are. Username is immutable.
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)

	var input struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	v := newValidator()
	if input.Email != nil {
		v.checkEmail(*input.Email)
		if !v.hasErrors() {
			other, err := app.storage.getUserByEmail(*input.Email)
			if err != nil {
				log.Println(err)
				writeError(w, errInternal, http.StatusInternalServerError)
				return
			}
			v.checkCond(other == nil || other.ID == u.ID, "email", "a user with that email already exists")
		}
	}
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	if input.Email != nil {
		u.Email = *input.Email
	}
	if input.FirstName != nil {
		u.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		u.LastName = *input.LastName
	}

	err = app.storage.updateUser(u)
	if err != nil {
		if errors.Is(err, errDuplicateEmail) {
			v.checkCond(false, "email", "a user with that email already exists")
			writeError(w, v.toError(), http.StatusBadRequest)
			return
		}
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(u))
}
