package main

import "time"

type user struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
}

type task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	UserID      int       `json:"-"`
	Username    string    `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// taskQuery is the validated query surface of the task list endpoint.
// An ordering outside taskOrderings never reaches the store.
type taskQuery struct {
	completed *bool
	search    string
	ordering  string
	page      int
	pageSize  int
}

// taskOrderings whitelists the orderable fields and maps each to the
// ORDER BY clause used by the Postgres store. The id tiebreak keeps
// pages stable when timestamps collide.
var taskOrderings = map[string]string{
	"created_at":  "created_at ASC, id ASC",
	"-created_at": "created_at DESC, id DESC",
	"updated_at":  "updated_at ASC, id ASC",
	"-updated_at": "updated_at DESC, id DESC",
	"title":       "title ASC, id ASC",
	"completed":   "completed ASC, id ASC",
}

const (
	defaultOrdering = "-created_at"
	defaultPageSize = 50
	maxPageSize     = 100
)
