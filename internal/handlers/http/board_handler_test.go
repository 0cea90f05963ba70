package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/services"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/middleware"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/repositories/memory"
	"github.com/Uttham-412/Whiteboard/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiFixture struct {
	router *gin.Engine
	auth   services.AuthService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop().Sugar()
	boardCache := cache.New(time.Minute)
	t.Cleanup(boardCache.Stop)

	authService := services.NewAuthService("test-secret", time.Hour)
	boardService := services.NewBoardService(
		memory.NewBoardRepository(),
		memory.NewHistoryRepository(),
		boardCache,
		logger,
	)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	NewAuthHandler(authService, time.Hour).SetupRoutes(router)
	NewBoardHandler(boardService).SetupRoutes(router, middleware.AuthMiddleware(authService))

	return &apiFixture{router: router, auth: authService}
}

func (f *apiFixture) login(t *testing.T, username string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesToken(t *testing.T) {
	f := newAPIFixture(t)

	token := f.login(t, "alice")
	claims, err := f.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginRejectsInvalidUsername(t *testing.T) {
	f := newAPIFixture(t)

	body, _ := json.Marshal(map[string]string{"username": "no spaces allowed"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBoardRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/boards", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndGetBoard(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t, "alice")

	w := f.request(t, http.MethodPost, "/api/v1/boards", token, map[string]string{})
	require.Equal(t, http.StatusCreated, w.Code)

	var board domain.Board
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.NotEmpty(t, board.SessionID)
	assert.Equal(t, "alice", board.CreatorUsername)

	w = f.request(t, http.MethodGet, "/api/v1/boards/"+string(board.SessionID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched domain.Board
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, board.SessionID, fetched.SessionID)
	assert.NotNil(t, fetched.CanvasState)
}

func TestGetBoardNotFound(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t, "alice")

	w := f.request(t, http.MethodGet, "/api/v1/boards/NOPE", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveCanvasRoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t, "alice")

	w := f.request(t, http.MethodPost, "/api/v1/boards", token, map[string]string{})
	require.Equal(t, http.StatusCreated, w.Code)
	var board domain.Board
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))

	save := map[string]interface{}{
		"canvasState": []map[string]interface{}{
			{"tool": "pen", "points": [][]int{{0, 0}, {5, 5}}},
			{"tool": "eraser", "points": [][]int{{1, 1}}},
		},
	}
	w = f.request(t, http.MethodPut, "/api/v1/boards/"+string(board.SessionID)+"/canvas", token, save)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/boards/"+string(board.SessionID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched domain.Board
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Len(t, fetched.CanvasState, 2)
}

func TestSaveCanvasUnknownBoard(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t, "alice")

	save := map[string]interface{}{
		"canvasState": []map[string]interface{}{{"tool": "pen"}},
	}
	w := f.request(t, http.MethodPut, "/api/v1/boards/NOPE/canvas", token, save)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
