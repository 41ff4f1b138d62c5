package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
)

func setupShareHandler() (*ShareHandler, *testutil.MockShareRepository) {
	users := testutil.NewMockUserRepository()
	users.AddUser(&domain.User{ID: 1, Auth0ID: "auth0|owner", Email: "owner@example.com"})
	users.AddUser(&domain.User{ID: 2, Auth0ID: "auth0|partner", Email: "Partner@Example.com"})

	shares := testutil.NewMockShareRepository()
	return NewShareHandler(service.NewShareService(shares, users, nil)), shares
}

func TestCreateShare_Success(t *testing.T) {
	handler, shares := setupShareHandler()

	c, rec := newTestContext(http.MethodPost, "/api/v1/shares", `{"email": "partner@example.com", "permissionLevel": "read_write"}`)
	setupAuthContext(c, 1)

	if err := handler.CreateShare(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var share domain.DataShare
	if err := json.Unmarshal(rec.Body.Bytes(), &share); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if share.SharedWithUserID != 2 || share.PermissionLevel != domain.PermissionReadWrite {
		t.Errorf("Expected read_write share with user 2, got %+v", share)
	}
	if len(shares.Shares) != 1 {
		t.Errorf("Expected 1 stored share, got %d", len(shares.Shares))
	}
}

func TestCreateShare_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing email", `{"email": "", "permissionLevel": "read_only"}`, http.StatusBadRequest},
		{"unknown user", `{"email": "nobody@example.com", "permissionLevel": "read_only"}`, http.StatusNotFound},
		{"bad permission", `{"email": "partner@example.com", "permissionLevel": "admin"}`, http.StatusBadRequest},
		{"self", `{"email": "owner@example.com", "permissionLevel": "read_only"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := setupShareHandler()

			c, rec := newTestContext(http.MethodPost, "/api/v1/shares", tt.body)
			setupAuthContext(c, 1)

			_ = handler.CreateShare(c)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestCreateShare_Duplicate(t *testing.T) {
	handler, _ := setupShareHandler()

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		c, rec := newTestContext(http.MethodPost, "/api/v1/shares", `{"email": "partner@example.com", "permissionLevel": "read_only"}`)
		setupAuthContext(c, 1)

		_ = handler.CreateShare(c)
		if rec.Code != want {
			t.Errorf("Attempt %d: expected status %d, got %d", i+1, want, rec.Code)
		}
	}
}

func TestListShares_BothDirections(t *testing.T) {
	handler, shares := setupShareHandler()
	shares.Shares[1] = &domain.DataShare{ID: 1, OwnerUserID: 1, SharedWithUserID: 2, PermissionLevel: domain.PermissionReadOnly}
	shares.NextID = 2

	c, rec := newTestContext(http.MethodGet, "/api/v1/shares", "")
	setupAuthContext(c, 1)
	if err := handler.ListShares(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var granted []domain.DataShare
	if err := json.Unmarshal(rec.Body.Bytes(), &granted); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(granted) != 1 {
		t.Errorf("Expected 1 granted share, got %d", len(granted))
	}

	c, rec = newTestContext(http.MethodGet, "/api/v1/shares/received", "")
	setupAuthContext(c, 2)
	if err := handler.ListSharedWithMe(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var received []domain.DataShare
	if err := json.Unmarshal(rec.Body.Bytes(), &received); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(received) != 1 || received[0].OwnerUserID != 1 {
		t.Errorf("Expected share received from user 1, got %+v", received)
	}
}

func TestUpdateShare_OnlyOwner(t *testing.T) {
	handler, shares := setupShareHandler()
	shares.Shares[1] = &domain.DataShare{ID: 1, OwnerUserID: 1, SharedWithUserID: 2, PermissionLevel: domain.PermissionReadOnly}
	shares.NextID = 2

	c, rec := newTestContext(http.MethodPut, "/api/v1/shares/1", `{"permissionLevel": "read_write"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContext(c, 2)

	_ = handler.UpdateShare(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for the grantee, got %d", rec.Code)
	}

	c, rec = newTestContext(http.MethodPut, "/api/v1/shares/1", `{"permissionLevel": "read_write"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContext(c, 1)

	if err := handler.UpdateShare(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if shares.Shares[1].PermissionLevel != domain.PermissionReadWrite {
		t.Errorf("Expected read_write, got %s", shares.Shares[1].PermissionLevel)
	}
}

func TestDeleteShare(t *testing.T) {
	handler, shares := setupShareHandler()
	shares.Shares[1] = &domain.DataShare{ID: 1, OwnerUserID: 1, SharedWithUserID: 2, PermissionLevel: domain.PermissionReadOnly}
	shares.NextID = 2

	c, rec := newTestContext(http.MethodDelete, "/api/v1/shares/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContext(c, 1)

	if err := handler.DeleteShare(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if len(shares.Shares) != 0 {
		t.Error("Expected share to be revoked")
	}
}
