package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/testutil"
)

func TestAuthenticateUser_NewUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|12345"
	email := "new@example.com"
	name := "New User"

	result, err := service.AuthenticateUser(auth0ID, email, &name, nil)
	if err != nil {
		t.Fatalf("AuthenticateUser() error = %v", err)
	}
	if !result.IsNewUser {
		t.Error("Expected IsNewUser to be true for new user")
	}
	if result.User == nil || result.User.Auth0ID != auth0ID {
		t.Fatalf("Expected user with auth0ID %s, got %+v", auth0ID, result.User)
	}
	if result.User.Email != email {
		t.Errorf("Expected email %s, got %s", email, result.User.Email)
	}
	if result.Workspace == nil {
		t.Fatal("Expected workspace, got nil")
	}
	if result.Workspace.Name != "Personal" {
		t.Errorf("Expected default workspace name 'Personal', got %s", result.Workspace.Name)
	}
	if result.Workspace.UserID != result.User.ID {
		t.Error("Workspace should belong to the new user")
	}
}

func TestAuthenticateUser_ExistingUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|existing"
	name := "Existing User"
	user := &domain.User{
		ID:      uuid.New(),
		Auth0ID: auth0ID,
		Email:   "existing@example.com",
		Name:    &name,
	}
	userRepo.AddUser(user)
	workspaceRepo.AddWorkspace(&domain.Workspace{
		ID:     7,
		UserID: user.ID,
		Name:   "Household",
	}, auth0ID)

	result, err := service.AuthenticateUser(auth0ID, user.Email, &name, nil)
	if err != nil {
		t.Fatalf("AuthenticateUser() error = %v", err)
	}
	if result.IsNewUser {
		t.Error("Expected IsNewUser to be false for existing user")
	}
	if result.Workspace.ID != 7 || result.Workspace.Name != "Household" {
		t.Errorf("Expected existing workspace, got %+v", result.Workspace)
	}
}

func TestAuthService_GetUserByID(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo, testutil.NewMockWorkspaceRepository())

	user := &domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|test",
		Email:   "test@example.com",
	}
	userRepo.AddUser(user)

	found, err := service.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("Expected user ID %s, got %s", user.ID, found.ID)
	}

	if _, err := service.GetUserByID(uuid.New()); err != domain.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_GetWorkspaceByAuth0ID(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|ws", Email: "ws@example.com"}
	userRepo.AddUser(user)
	workspaceRepo.AddWorkspace(&domain.Workspace{ID: 3, UserID: user.ID, Name: "Personal"}, user.Auth0ID)

	ws, err := service.GetWorkspaceByAuth0ID("auth0|ws")
	if err != nil {
		t.Fatalf("GetWorkspaceByAuth0ID() error = %v", err)
	}
	if ws.ID != 3 {
		t.Errorf("Expected workspace ID 3, got %d", ws.ID)
	}

	if _, err := service.GetWorkspaceByAuth0ID("auth0|unknown"); err != domain.ErrWorkspaceNotFound {
		t.Errorf("Expected ErrWorkspaceNotFound, got %v", err)
	}
}
