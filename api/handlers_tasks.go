package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
)

var errTaskNotFound = errors.New("task not found")

// parseTaskQuery validates the list query surface against the
// whitelisted fields. An unrecognized ordering value is a validation
// error, not a silent fallback; the contract stays explicit.
func parseTaskQuery(r *http.Request, v *validator) taskQuery {
	q := taskQuery{
		ordering: defaultOrdering,
		page:     1,
		pageSize: defaultPageSize,
	}
	qs := r.URL.Query()

	if s := qs.Get("completed"); s != "" {
		b, err := strconv.ParseBool(s)
		v.checkCond(err == nil, "completed", "must be true or false")
		if err == nil {
			q.completed = &b
		}
	}

	q.search = qs.Get("search")

	if s := qs.Get("ordering"); s != "" {
		_, ok := taskOrderings[s]
		v.checkCond(ok, "ordering", "must be one of created_at, -created_at, updated_at, -updated_at, title, completed")
		if ok {
			q.ordering = s
		}
	}

	if s := qs.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		v.checkCond(err == nil && n >= 1, "page", "must be a positive integer")
		if err == nil && n >= 1 {
			q.page = n
		}
	}
	if s := qs.Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		v.checkCond(err == nil && n >= 1 && n <= maxPageSize, "page_size", "must be between 1 and 100")
		if err == nil && n >= 1 && n <= maxPageSize {
			q.pageSize = n
		}
	}

	return q
}

func (app *application) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)

	v := newValidator()
	q := parseTaskQuery(r, v)
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	tasks, total, err := app.storage.getTasks(u.ID, q)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	for _, t := range tasks {
		t.Username = u.Username
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   total,
		"results": tasks,
	})
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(input.Title)
	v := newValidator()
	v.checkTitle(title)
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	// The owner is always the caller. Any owner field in the input is
	// not even decoded, so it cannot be spoofed.
	t := &task{
		Title:       title,
		Description: input.Description,
		Completed:   input.Completed,
		UserID:      u.ID,
		Username:    u.Username,
	}
	err = app.storage.insertTask(t)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// taskFromRequest resolves the {id} path segment to a task owned by
// the caller. A foreign task and a missing one both come back nil:
// reporting them differently would confirm the existence of another
// user's data.
func (app *application) taskFromRequest(r *http.Request, u *user) (*task, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		return nil, nil
	}
	t, err := app.storage.getTask(u.ID, id)
	if err != nil {
		return nil, err
	}
	if t != nil {
		t.Username = u.Username
	}
	return t, nil
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	t, err := app.taskFromRequest(r, u)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// updateTaskHandler serves both PUT and PATCH with partial semantics:
// absent fields keep their stored values. Owner, id and created_at are
// not updatable through any input.
func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	t, err := app.taskFromRequest(r, u)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}
	err = json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		v := newValidator()
		v.checkTitle(title)
		if v.hasErrors() {
			writeError(w, v.toError(), http.StatusBadRequest)
			return
		}
		t.Title = title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Completed != nil {
		t.Completed = *input.Completed
	}

	err = app.storage.updateTask(t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Deleted between the read and the write.
			writeError(w, errTaskNotFound, http.StatusNotFound)
			return
		}
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}

	deleted, err := app.storage.deleteTask(u.ID, id)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if !deleted {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Task deleted successfully",
	})
}
