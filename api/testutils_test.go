package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestApplication() *application {
	return &application{
		config:  config{env: "test"},
		storage: newMemStorage(),
	}
}

// doRequest runs one request through the full route/middleware stack
// and decodes the JSON response body, which may be nil for empty
// bodies.
func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var decoded map[string]any
	if rr.Body.Len() > 0 {
		err := json.Unmarshal(rr.Body.Bytes(), &decoded)
		require.NoError(t, err, "response body is not valid JSON: %s", rr.Body.String())
	}
	return rr.Code, decoded
}

// newAuthHeaderRequest sends a GET with a raw Authorization header
// value and returns the status code.
func newAuthHeaderRequest(t *testing.T, h http.Handler, path, header string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func registerTestUser(t *testing.T, h http.Handler, username, email, password string) string {
	t.Helper()
	status, body := doRequest(t, h, http.MethodPost, "/api/auth/register/", "", map[string]any{
		"username":  username,
		"email":     email,
		"password":  password,
		"password2": password,
	})
	require.Equal(t, http.StatusCreated, status, "register %s: %v", username, body)
	token, ok := body["token"].(string)
	require.True(t, ok, "register response has no token: %v", body)
	return token
}

func createTestTask(t *testing.T, h http.Handler, token string, fields map[string]any) map[string]any {
	t.Helper()
	status, body := doRequest(t, h, http.MethodPost, "/api/tasks/", token, fields)
	require.Equal(t, http.StatusCreated, status, "create task: %v", body)
	return body
}

func taskID(t *testing.T, body map[string]any) int {
	t.Helper()
	id, ok := body["id"].(float64)
	require.True(t, ok, "task body has no id: %v", body)
	return int(id)
}

func resultTitles(t *testing.T, body map[string]any) []string {
	t.Helper()
	results, ok := body["results"].([]any)
	require.True(t, ok, "list body has no results: %v", body)
	titles := make([]string, 0, len(results))
	for _, r := range results {
		task, ok := r.(map[string]any)
		require.True(t, ok)
		titles = append(titles, task["title"].(string))
	}
	return titles
}
