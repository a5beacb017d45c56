package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server   *httptest.Server
	attempts *app.AttemptService
	handler  *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUserStore()
	catalog := memory.NewCatalog(users)
	quizzes := memory.NewQuizRepository(catalog, time.Minute)
	attempts := app.NewAttemptService(
		memory.NewSessionStore(),
		quizzes,
		memory.NewCheckpointStore(),
		catalog,
		app.WithTickInterval(0),
		app.WithLogger(logger),
	)
	handler := NewHandler(
		attempts,
		app.NewCatalogService(catalog, quizzes, logger),
		app.NewAuthService(users, memory.NewCheckpointStore(), "test-secret", time.Hour, logger),
		logger,
	)
	handler.ws.tick = 20 * time.Millisecond

	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	t.Cleanup(attempts.Wait)
	return &testEnv{server: server, attempts: attempts, handler: handler}
}

// do sends a JSON request and decodes the JSON response into out, if given.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) signUp(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	status := e.do(t, http.MethodPost, "/api/auth/register", "", domain.Registration{
		Email: email, Name: "Test", Role: role, Password: "password1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var login loginResponse
	status = e.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: email, Password: "password1"}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.Token)
	return login.Token
}

// publishQuiz creates a two-question quiz whose answer key is [1, 2].
func (e *testEnv) publishQuiz(t *testing.T, token string) domain.Quiz {
	t.Helper()
	var quiz domain.Quiz
	status := e.do(t, http.MethodPost, "/api/quizzes", token, domain.QuizDraft{
		Title:            "Numbers",
		Author:           "Mr. Lee",
		TimeLimitMinutes: 5,
		Questions: []domain.QuestionDraft{
			{Prompt: "1 + 0?", Answers: []string{"0", "1", "2", "3"}, CorrectAnswer: 1},
			{Prompt: "1 + 1?", Answers: []string{"0", "1", "2", "3"}, CorrectAnswer: 2},
		},
	}, &quiz)
	require.Equal(t, http.StatusCreated, status)
	return quiz
}
