package main

import "errors"

// Returned by insertUser/updateUser when a write loses the race against
// a concurrent registration and hits a uniqueness constraint that the
// handler's pre-checks did not see.
var (
	errDuplicateUsername = errors.New("duplicate username")
	errDuplicateEmail    = errors.New("duplicate email")
)

// storage is everything the handlers need from the persistence layer.
// Lookups return (nil, nil) when the record is absent. Task reads and
// writes are keyed by (userID, taskID), so another user's task is
// indistinguishable from a missing one at this layer already.
type storage interface {
	insertUser(u *user) error
	updateUser(u *user) error
	getUserByUsername(username string) (*user, error)
	getUserByEmail(email string) (*user, error)

	getUserForToken(key string) (*user, error)
	getTokenForUser(userID int) (string, error)
	insertToken(key string, userID int) error
	deleteTokensForUser(userID int) error

	insertTask(t *task) error
	getTask(userID, taskID int) (*task, error)
	getTasks(userID int, q taskQuery) ([]*task, int, error)
	updateTask(t *task) error
	deleteTask(userID, taskID int) (bool, error)
}
