package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"chatsense/internal/domain"
	"chatsense/internal/engine"
	"chatsense/internal/repository"
	"chatsense/internal/service"
)

type mockUserRepo struct {
	users map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

type mockAnalysisRepo struct {
	records []domain.AnalysisRecord
}

func (m *mockAnalysisRepo) Create(_ context.Context, rec domain.AnalysisRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockAnalysisRepo) GetByID(_ context.Context, userID, id string) (domain.AnalysisRecord, error) {
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return domain.AnalysisRecord{}, pgx.ErrNoRows
}

func (m *mockAnalysisRepo) ListByUser(_ context.Context, userID string, limit, offset int, includeBulk bool) ([]domain.AnalysisRecord, error) {
	var out []domain.AnalysisRecord
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		if !includeBulk && r.Source == domain.SourceBulkImport {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockAnalysisRepo) ListSince(_ context.Context, userID string, since time.Time) ([]domain.AnalysisRecord, error) {
	var out []domain.AnalysisRecord
	for _, r := range m.records {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAnalysisRepo) Delete(_ context.Context, userID, id string) (bool, error) {
	for i, r := range m.records {
		if r.ID == id && r.UserID == userID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAnalysisRepo) FindSimilarMoods(_ context.Context, userID string, _ pgvector.Vector, k int) ([]domain.AnalysisRecord, error) {
	out, _ := m.ListByUser(context.Background(), userID, k, 0, true)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type mockChatRepo struct {
	records []domain.ChatAnalysisRecord
}

func (m *mockChatRepo) Create(_ context.Context, rec domain.ChatAnalysisRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockChatRepo) GetByID(_ context.Context, userID, id string) (domain.ChatAnalysisRecord, error) {
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return domain.ChatAnalysisRecord{}, pgx.ErrNoRows
}

func (m *mockChatRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.ChatAnalysisRecord, error) {
	return m.records, nil
}

type mockMessageRepo struct {
	messages []repository.ImportedMessage
}

func (m *mockMessageRepo) Create(_ context.Context, msg repository.ImportedMessage) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockMessageRepo) ListByChatAnalysis(_ context.Context, chatAnalysisID string) ([]repository.ImportedMessage, error) {
	return m.messages, nil
}

type testEnv struct {
	router   *gin.Engine
	jwtSvc   *service.JWTService
	analyses *mockAnalysisRepo
	chats    *mockChatRepo
	messages *mockMessageRepo
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := newMockUserRepo()
	analyses := &mockAnalysisRepo{}
	chats := &mockChatRepo{}
	messages := &mockMessageRepo{}

	jwtSvc := service.NewJWTService("secret", 15*time.Minute, time.Hour)
	userSvc := service.NewUserService(logger, users)
	eng := engine.New(nil, logger)
	analysisSvc := service.NewAnalysisService(logger, eng, analyses, chats, messages, nil)
	dashboardSvc := service.NewDashboardService(logger, analyses)

	r := NewRouter(
		logger,
		jwtSvc,
		NewAuthHandler(logger, userSvc, jwtSvc),
		NewAnalysisHandler(logger, analysisSvc),
		NewDashboardHandler(logger, dashboardSvc),
	)
	return &testEnv{router: r, jwtSvc: jwtSvc, analyses: analyses, chats: chats, messages: messages}
}

func performRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, env *testEnv) string {
	t.Helper()
	rec := performRequest(env.router, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "user@example.com",
		"password":  "supersegura",
		"full_name": "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.Tokens.AccessToken == "" {
		t.Fatalf("expected tokens in register response")
	}
	return resp.Tokens.AccessToken
}

func TestHealth(t *testing.T) {
	env := setupRouter(t)
	rec := performRequest(env.router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupRouter(t)
	registerAndLogin(t, env)

	rec := performRequest(env.router, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "user@example.com",
		"password": "supersegura",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	env := setupRouter(t)
	registerAndLogin(t, env)

	rec := performRequest(env.router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "supersegura",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	rec = performRequest(env.router, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": resp.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	// El refresh usado queda revocado.
	rec = performRequest(env.router, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": resp.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupRouter(t)
	registerAndLogin(t, env)

	rec := performRequest(env.router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "incorrecta!",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAnalyzeRequiresAuth(t *testing.T) {
	env := setupRouter(t)
	rec := performRequest(env.router, http.MethodPost, "/analysis/analyze", "", map[string]string{
		"message": "I'm feeling great today!",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	env := setupRouter(t)
	token := registerAndLogin(t, env)

	rec := performRequest(env.router, http.MethodPost, "/analysis/analyze", token, map[string]string{
		"message": "I'm feeling great today! 😊",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode analyze response: %v", err)
	}
	if resp.Sentiment != "positive" {
		t.Fatalf("expected positive sentiment, got %q", resp.Sentiment)
	}
	if len(env.analyses.records) != 1 {
		t.Fatalf("expected 1 stored analysis, got %d", len(env.analyses.records))
	}
}

func TestAnalyzeEmptyMessage(t *testing.T) {
	env := setupRouter(t)
	token := registerAndLogin(t, env)

	rec := performRequest(env.router, http.MethodPost, "/analysis/analyze", token, map[string]string{
		"message": "   ",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestImportChatEndpoint(t *testing.T) {
	env := setupRouter(t)
	token := registerAndLogin(t, env)

	content := "12/31/2023, 10:30 PM - Alice: I'm feeling great today! 😊\n" +
		"12/31/2023, 10:31 PM - Bob: Awesome!"
	rec := performRequest(env.router, http.MethodPost, "/analysis/import-chat", token, map[string]string{
		"content":           content,
		"current_user_name": "Alice",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.messages.messages) != 2 {
		t.Fatalf("expected 2 imported messages, got %d", len(env.messages.messages))
	}
	if len(env.chats.records) != 1 {
		t.Fatalf("expected 1 chat analysis, got %d", len(env.chats.records))
	}

	// El rollup guardado queda disponible en el historial de chats.
	rec = performRequest(env.router, http.MethodGet, "/analysis/chat-history/"+env.chats.records[0].ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestHistoryNotFound(t *testing.T) {
	env := setupRouter(t)
	token := registerAndLogin(t, env)

	rec := performRequest(env.router, http.MethodGet, "/analysis/history/does-not-exist", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	rec = performRequest(env.router, http.MethodDelete, "/analysis/history/does-not-exist", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestDeleteHistory(t *testing.T) {
	env := setupRouter(t)
	token := registerAndLogin(t, env)

	rec := performRequest(env.router, http.MethodPost, "/analysis/analyze", token, map[string]string{
		"message": "I'm feeling great today!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	id := env.analyses.records[0].ID

	rec = performRequest(env.router, http.MethodDelete, "/analysis/history/"+id, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if len(env.analyses.records) != 0 {
		t.Fatalf("expected record removed, got %d", len(env.analyses.records))
	}
}

func TestDashboardEndpoint(t *testing.T) {
	env := setupRouter(t)
	token := registerAndLogin(t, env)

	for _, msg := range []string{"I'm feeling great today!", "This is wonderful news, I love it"} {
		rec := performRequest(env.router, http.MethodPost, "/analysis/analyze", token, map[string]string{"message": msg})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	}

	rec := performRequest(env.router, http.MethodGet, "/dashboard?range=7d", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var dash service.Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard response: %v", err)
	}
	if dash.TotalAnalyses != 2 || dash.RiskLevel != service.RiskLow {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}

	rec = performRequest(env.router, http.MethodGet, "/dashboard/mood-trends", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
