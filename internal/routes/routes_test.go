package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskdesk-api/internal/auth"
	"taskdesk-api/internal/denylist"
	"taskdesk-api/internal/handlers"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/realtime"
	"taskdesk-api/internal/service"
	"taskdesk-api/internal/store/gormstore"
	"taskdesk-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)

	stores := gormstore.New(db)
	hub := realtime.NewHub()
	issuer := auth.NewIssuer("test-secret", "taskdesk-api", "taskdesk", time.Hour)
	users := service.NewUserService(stores.Users, issuer, denylist.New())
	tasks := service.NewTaskService(stores.Tasks, stores.Users, hub)
	queries := service.NewQueryService(stores.Queries, stores.Tasks, stores.Users, hub)

	h := handlers.New(users, tasks, queries, hub)
	return &testServer{router: SetupRoutes(h, users), db: db, issuer: issuer}
}

func (s *testServer) token(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := s.issuer.GenerateToken(u)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var sess struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &sess))
	require.NotEmpty(t, sess.Token)
	require.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodGet, "/api/users/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/logout", sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/me", sess.Token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthenticated", decode(t, w).Error)
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_argument", decode(t, w).Error)
}

func TestTasks_EnvelopeAndIgnoredFields(t *testing.T) {
	s := newTestServer(t)
	u1 := testutil.SeedUser(t, s.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, s.db, "u2", models.RoleUser)
	admin := testutil.SeedUser(t, s.db, "root", models.RoleAdmin)

	w := s.do(t, http.MethodPost, "/api/tasks", s.token(t, admin), map[string]any{
		"title": "Ship it", "assignedTo": u2.ID, "dueDate": "2030-01-02", "tags": []string{"release"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	require.Equal(t, u2.ID, created["assignedTo"])
	require.Equal(t, true, created["canAssign"])
	taskID := created["id"].(string)

	// The assignee sees the task but cannot change it.
	w = s.do(t, http.MethodGet, "/api/tasks/"+taskID, s.token(t, u2), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var viewed map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &viewed))
	require.Equal(t, false, viewed["canEdit"])
	require.Equal(t, true, viewed["canComment"])

	w = s.do(t, http.MethodPut, "/api/tasks/"+taskID, s.token(t, u2), map[string]any{"status": "completed"})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "permission_denied", decode(t, w).Error)

	w = s.do(t, http.MethodGet, "/api/tasks/"+taskID, s.token(t, u1), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/tasks/"+taskID, s.token(t, admin), map[string]any{
		"status": "completed", "dueDate": nil,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &updated))
	require.Equal(t, "completed", updated["status"])
	require.NotNil(t, updated["completedAt"])
	require.Nil(t, updated["dueDate"])
	require.NotContains(t, updated, "ignoredFields")
}

func TestTasks_OwnerStatusReportedIgnored(t *testing.T) {
	s := newTestServer(t)
	u1 := testutil.SeedUser(t, s.db, "u1", models.RoleUser)
	task := testutil.SeedTask(t, s.db, "T", u1.ID, u1.ID, models.TaskPending)

	w := s.do(t, http.MethodPut, "/api/tasks/"+task.ID, s.token(t, u1), map[string]any{
		"title": "T2", "status": "completed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &updated))
	require.Equal(t, "T2", updated["title"])
	require.Equal(t, "pending", updated["status"])
	require.Equal(t, []any{"status"}, updated["ignoredFields"])
}

func TestTasks_ListPagination(t *testing.T) {
	s := newTestServer(t)
	u1 := testutil.SeedUser(t, s.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, s.db, "u2", models.RoleUser)
	for i := 0; i < 3; i++ {
		testutil.SeedTask(t, s.db, "mine", u1.ID, u1.ID, models.TaskPending)
	}
	testutil.SeedTask(t, s.db, "theirs", u2.ID, u2.ID, models.TaskPending)

	w := s.do(t, http.MethodGet, "/api/tasks?limit=2&page=1&sortBy=title:asc", s.token(t, u1), nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	require.Equal(t, 2, env.Count)
	require.EqualValues(t, 3, env.Total)
	require.Equal(t, 2, env.Pages)

	w = s.do(t, http.MethodGet, "/api/tasks?status=bogus", s.token(t, u1), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTasks_AssignUnknownUser(t *testing.T) {
	s := newTestServer(t)
	u1 := testutil.SeedUser(t, s.db, "u1", models.RoleUser)
	admin := testutil.SeedUser(t, s.db, "root", models.RoleAdmin)
	task := testutil.SeedTask(t, s.db, "T", u1.ID, u1.ID, models.TaskPending)

	w := s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/assign", s.token(t, admin), map[string]string{"userId": "ghost"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "User not found", decode(t, w).Message)
}

func TestQueries_CommentAdvancesStatus(t *testing.T) {
	s := newTestServer(t)
	u1 := testutil.SeedUser(t, s.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, s.db, "u2", models.RoleUser)
	task := testutil.SeedTask(t, s.db, "T", u1.ID, u2.ID, models.TaskPending)

	w := s.do(t, http.MethodPost, "/api/queries", s.token(t, u1), map[string]string{
		"title": "Blocked", "description": "need input", "taskId": task.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var q map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &q))
	queryID := q["id"].(string)

	w = s.do(t, http.MethodPost, "/api/queries/"+queryID+"/comments", s.token(t, u2), map[string]string{"text": "on it"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		QueryStatus string `json:"queryStatus"`
		Comment     struct {
			Text   string `json:"text"`
			Author string `json:"author"`
		} `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	require.Equal(t, "in-progress", res.QueryStatus)
	require.Equal(t, u2.ID, res.Comment.Author)

	w = s.do(t, http.MethodPost, "/api/queries/"+queryID+"/comments", s.token(t, u2), map[string]string{"text": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	u1 := testutil.SeedUser(t, s.db, "u1", models.RoleUser)
	admin := testutil.SeedUser(t, s.db, "root", models.RoleAdmin)

	w := s.do(t, http.MethodGet, "/api/users", s.token(t, u1), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/tasks/users", s.token(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, decode(t, w).Count)

	w = s.do(t, http.MethodGet, "/api/queries/users", s.token(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, decode(t, w).Count)
}
