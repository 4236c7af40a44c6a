package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/service"
	"github.com/wonbook/wonbook-backend/internal/testutil"
)

func newAPITokenHandlerFixture() (*APITokenHandler, *testutil.MockUserRepository, *testutil.MockAPITokenRepository) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	tokenRepo := testutil.NewMockAPITokenRepository()

	authService := service.NewAuthService(userRepo, workspaceRepo)
	apiTokenService := service.NewAPITokenService(tokenRepo)

	return NewAPITokenHandler(apiTokenService, authService), userRepo, tokenRepo
}

func TestCreateAPIToken_Success(t *testing.T) {
	e := echo.New()
	handler, userRepo, _ := newAPITokenHandlerFixture()

	userRepo.AddUser(&domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|tok",
		Email:   "tok@example.com",
	})

	body := `{"description":"CI integration"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/api-tokens", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|tok", "tok@example.com", "", "", 1)

	if err := handler.CreateAPIToken(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.CreateAPITokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !strings.HasPrefix(resp.Token, "wbk_") {
		t.Errorf("Expected token with wbk_ prefix, got %q", resp.Token)
	}
	if !strings.HasSuffix(resp.TokenPrefix, "...") {
		t.Errorf("Expected truncated display prefix, got %q", resp.TokenPrefix)
	}
	if resp.Description != "CI integration" {
		t.Errorf("Expected description to round-trip, got %q", resp.Description)
	}
}

func TestCreateAPIToken_MissingDescription(t *testing.T) {
	e := echo.New()
	handler, userRepo, _ := newAPITokenHandlerFixture()

	userRepo.AddUser(&domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|tok",
		Email:   "tok@example.com",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/api-tokens", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|tok", "tok@example.com", "", "", 1)

	if err := handler.CreateAPIToken(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateAPIToken_LimitReached(t *testing.T) {
	e := echo.New()
	handler, userRepo, tokenRepo := newAPITokenHandlerFixture()

	userID := uuid.New()
	userRepo.AddUser(&domain.User{
		ID:      userID,
		Auth0ID: "auth0|tok",
		Email:   "tok@example.com",
	})
	for i := 0; i < 10; i++ {
		if err := tokenRepo.Create(context.Background(), &domain.APIToken{
			UserID:      userID,
			WorkspaceID: 1,
			Description: "existing",
			TokenHash:   uuid.NewString(),
			TokenPrefix: "wbk_exist...",
		}); err != nil {
			t.Fatalf("Failed to seed token: %v", err)
		}
	}

	body := `{"description":"one too many"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/api-tokens", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|tok", "tok@example.com", "", "", 1)

	if err := handler.CreateAPIToken(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetAPITokens_OmitsRawToken(t *testing.T) {
	e := echo.New()
	handler, userRepo, tokenRepo := newAPITokenHandlerFixture()

	userID := uuid.New()
	userRepo.AddUser(&domain.User{ID: userID, Auth0ID: "auth0|tok", Email: "tok@example.com"})
	if err := tokenRepo.Create(context.Background(), &domain.APIToken{
		UserID:      userID,
		WorkspaceID: 1,
		Description: "laptop",
		TokenHash:   "deadbeef",
		TokenPrefix: "wbk_abcd1234...",
	}); err != nil {
		t.Fatalf("Failed to seed token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/api-tokens", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|tok", "tok@example.com", "", "", 1)

	if err := handler.GetAPITokens(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var tokens []domain.APITokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("Expected 1 token, got %d", len(tokens))
	}
	if tokens[0].TokenPrefix != "wbk_abcd1234..." {
		t.Errorf("Expected display prefix, got %q", tokens[0].TokenPrefix)
	}
	if strings.Contains(rec.Body.String(), "deadbeef") {
		t.Error("Token hash leaked into the list response")
	}
}

func TestRevokeAPIToken_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newAPITokenHandlerFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/api-tokens/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	setupAuthContextWithWorkspace(c, "auth0|tok", "tok@example.com", "", "", 1)

	if err := handler.RevokeAPIToken(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestRevokeAPIToken_InvalidID(t *testing.T) {
	e := echo.New()
	handler, _, _ := newAPITokenHandlerFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/api-tokens/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	setupAuthContextWithWorkspace(c, "auth0|tok", "tok@example.com", "", "", 1)

	if err := handler.RevokeAPIToken(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
