package main

import (
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStorage is the storage double the handler tests run against. The
// fake clock advances one second per write so ordering tests see
// distinct, deterministic timestamps.
type memStorage struct {
	mu         sync.RWMutex
	users      map[int]*user
	tokens     map[string]int
	tasks      map[int]*task
	nextUserID int
	nextTaskID int
	now        time.Time
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:  make(map[int]*user),
		tokens: make(map[string]int),
		tasks:  make(map[int]*task),
		now:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick must be called with mu held.
func (m *memStorage) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memStorage) insertUser(u *user) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Username == u.Username {
			return errDuplicateUsername
		}
		if other.Email == u.Email {
			return errDuplicateEmail
		}
	}
	m.nextUserID++
	u.ID = m.nextUserID
	u.CreatedAt = m.tick()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStorage) updateUser(u *user) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.ID != u.ID && other.Email == u.Email {
			return errDuplicateEmail
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStorage) getUserByUsername(username string) (*user, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStorage) getUserByEmail(email string) (*user, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStorage) getUserForToken(key string) (*user, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tokens[key]
	if !ok {
		return nil, nil
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStorage) getTokenForUser(userID int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, id := range m.tokens {
		if id == userID {
			return key, nil
		}
	}
	return "", nil
}

func (m *memStorage) insertToken(key string, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = userID
	return nil
}

func (m *memStorage) deleteTokensForUser(userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, id := range m.tokens {
		if id == userID {
			delete(m.tokens, key)
		}
	}
	return nil
}

func (m *memStorage) insertTask(t *task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTaskID++
	t.ID = m.nextTaskID
	t.CreatedAt = m.tick()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memStorage) getTask(userID, taskID int) (*task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memStorage) getTasks(userID int, q taskQuery) ([]*task, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []*task{}
	for _, t := range m.tasks {
		if t.UserID != userID {
			continue
		}
		if q.completed != nil && t.Completed != *q.completed {
			continue
		}
		if q.search != "" {
			needle := strings.ToLower(q.search)
			if !strings.Contains(strings.ToLower(t.Title), needle) &&
				!strings.Contains(strings.ToLower(t.Description), needle) {
				continue
			}
		}
		cp := *t
		matched = append(matched, &cp)
	}

	ordering := q.ordering
	if _, ok := taskOrderings[ordering]; !ok {
		ordering = defaultOrdering
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch ordering {
		case "created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case "-created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		case "updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
			return a.ID < b.ID
		case "-updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.ID > b.ID
		case "title":
			if a.Title != b.Title {
				return a.Title < b.Title
			}
			return a.ID < b.ID
		case "completed":
			if a.Completed != b.Completed {
				return !a.Completed
			}
			return a.ID < b.ID
		}
		return false
	})

	total := len(matched)
	start := (q.page - 1) * q.pageSize
	if start > total {
		start = total
	}
	end := start + q.pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memStorage) updateTask(t *task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tasks[t.ID]
	if !ok || stored.UserID != t.UserID {
		return sql.ErrNoRows
	}
	stored.Title = t.Title
	stored.Description = t.Description
	stored.Completed = t.Completed
	stored.UpdatedAt = m.tick()
	t.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *memStorage) deleteTask(userID, taskID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(m.tasks, taskID)
	return true, nil
}
