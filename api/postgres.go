package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            serial PRIMARY KEY,
	created_at    timestamptz NOT NULL DEFAULT now(),
	username      text UNIQUE NOT NULL,
	email         text UNIQUE NOT NULL,
	password_hash bytea NOT NULL,
	first_name    text NOT NULL DEFAULT '',
	last_name     text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tokens (
	key        text PRIMARY KEY,
	user_id    integer UNIQUE NOT NULL REFERENCES users ON DELETE CASCADE,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id          serial PRIMARY KEY,
	user_id     integer NOT NULL REFERENCES users ON DELETE CASCADE,
	title       text NOT NULL,
	description text NOT NULL DEFAULT '',
	completed   boolean NOT NULL DEFAULT false,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS tasks_user_id_idx ON tasks (user_id);`

func createTables(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, schema)
	return err
}

// escapeLikePattern neutralizes the LIKE metacharacters so a search
// term always matches as a literal substring, never as a pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

type postgresStorage struct {
	db *sql.DB
}

func newPostgresStorage(db *sql.DB) *postgresStorage {
	return &postgresStorage{
		db: db,
	}
}

func (s *postgresStorage) scanUser(row *sql.Row) (*user, error) {
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *postgresStorage) getUserByUsername(username string) (*user, error) {
	query := `SELECT id, created_at, username, email, password_hash, first_name, last_name
			  FROM users
			  WHERE username = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *postgresStorage) getUserByEmail(email string) (*user, error) {
	query := `SELECT id, created_at, username, email, password_hash, first_name, last_name
			  FROM users
			  WHERE email = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// mapUniqueViolation translates a unique-constraint failure on the
// users table into the matching duplicate sentinel.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_username_key":
			return errDuplicateUsername
		case "users_email_key":
			return errDuplicateEmail
		}
	}
	return err
}

func (s *postgresStorage) insertUser(u *user) error {
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName)
	err := row.Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (s *postgresStorage) updateUser(u *user) error {
	query := `UPDATE users SET email = $1, password_hash = $2, first_name = $3, last_name = $4
			  WHERE id = $5`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.ID)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (s *postgresStorage) getUserForToken(key string) (*user, error) {
	query := `SELECT u.id, u.created_at, u.username, u.email, u.password_hash, u.first_name, u.last_name
			  FROM users u
			  INNER JOIN tokens t ON t.user_id = u.id
			  WHERE t.key = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.scanUser(s.db.QueryRowContext(ctx, query, key))
}

func (s *postgresStorage) getTokenForUser(userID int) (string, error) {
	query := `SELECT key FROM tokens WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var key string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&key)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", nil
		default:
			return "", err
		}
	}
	return key, nil
}

func (s *postgresStorage) insertToken(key string, userID int) error {
	query := `INSERT INTO tokens (key, user_id) VALUES ($1, $2)`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, key, userID)
	return err
}

func (s *postgresStorage) deleteTokensForUser(userID int) error {
	query := `DELETE FROM tokens WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, userID)
	return err
}

func (s *postgresStorage) insertTask(t *task) error {
	query := `INSERT INTO tasks (user_id, title, description, completed)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at, updated_at`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Title, t.Description, t.Completed)
	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (s *postgresStorage) getTask(userID, taskID int) (*task, error) {
	query := `SELECT id, user_id, title, description, completed, created_at, updated_at
			  FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var t task
	err := s.db.QueryRowContext(ctx, query, taskID, userID).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *postgresStorage) getTasks(userID int, q taskQuery) ([]*task, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	if q.completed != nil {
		args = append(args, *q.completed)
		where = append(where, fmt.Sprintf("completed = $%d", len(args)))
	}
	if q.search != "" {
		args = append(args, "%"+escapeLikePattern(q.search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	// q.ordering was validated against taskOrderings by the handler;
	// the fallback keeps this method safe to call directly.
	orderBy, ok := taskOrderings[q.ordering]
	if !ok {
		orderBy = taskOrderings[defaultOrdering]
	}

	args = append(args, q.pageSize, (q.page-1)*q.pageSize)
	query := fmt.Sprintf(`SELECT count(*) OVER(), id, user_id, title, description, completed, created_at, updated_at
			  FROM tasks
			  WHERE %s
			  ORDER BY %s
			  LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), orderBy, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	tasks := []*task{}
	for rows.Next() {
		var t task
		err = rows.Scan(&total, &t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	// An empty page carries no window count, but the total can still be
	// non-zero when the page lies past the last row.
	if len(tasks) == 0 {
		countQuery := fmt.Sprintf(`SELECT count(*) FROM tasks WHERE %s`, strings.Join(where, " AND "))
		err = s.db.QueryRowContext(ctx, countQuery, args[:len(args)-2]...).Scan(&total)
		if err != nil {
			return nil, 0, err
		}
	}
	return tasks, total, nil
}

func (s *postgresStorage) updateTask(t *task) error {
	query := `UPDATE tasks SET title = $1, description = $2, completed = $3, updated_at = now()
			  WHERE id = $4 AND user_id = $5
			  RETURNING updated_at`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.Title, t.Description, t.Completed, t.ID, t.UserID)
	return row.Scan(&t.UpdatedAt)
}

func (s *postgresStorage) deleteTask(userID, taskID int) (bool, error) {
	query := `DELETE FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := s.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
