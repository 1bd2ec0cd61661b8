package service

import (
	"context"
	"errors"
	"testing"

	"estimato/internal/repository"
)

func TestEstimationAccess(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	viewer := registerUser(t, services, "Viewer", "viewer@example.com")
	stranger := registerUser(t, services, "Stranger", "stranger@example.com")
	est := createEstimation(t, services, owner.ID, "Roadmap")

	if _, err := services.Share.Create(ctx, owner, est.ID, "viewer@example.com", repository.ShareRoleViewer); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	tests := []struct {
		name     string
		actor    *repository.User
		wantErr  error
		wantRole string
	}{
		{"owner sees document", owner, nil, "owner"},
		{"grantee sees document", viewer, nil, "viewer"},
		{"stranger is forbidden", stranger, ErrForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := services.Estimation.Get(ctx, tt.actor, est.ID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if detail.Role != tt.wantRole {
				t.Errorf("role = %s, want %s", detail.Role, tt.wantRole)
			}
		})
	}

	if _, err := services.Estimation.Get(ctx, owner, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing estimation err = %v, want ErrNotFound", err)
	}
}

func TestGranteeAccessIsRecorded(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	viewer := registerUser(t, services, "Viewer", "viewer@example.com")
	est := createEstimation(t, services, owner.ID, "Roadmap")

	share, err := services.Share.Create(ctx, owner, est.ID, "viewer@example.com", repository.ShareRoleViewer)
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if share.LastAccessedAt != nil {
		t.Fatal("fresh share already has an access time")
	}

	if _, err := services.Estimation.Get(ctx, viewer, est.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	got, _ := repos.ShareRepo.FindByID(ctx, share.ID)
	if got.LastAccessedAt == nil {
		t.Error("grantee read did not record last access")
	}
	if !got.UpdatedAt.Equal(share.UpdatedAt) {
		t.Error("access touch must not move updated_at")
	}
}

func TestEstimationDestroyIsOwnerOnly(t *testing.T) {
	services, _, dispatcher := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	editor := registerUser(t, services, "Editor", "editor@example.com")
	est := createEstimation(t, services, owner.ID, "Roadmap")

	if _, err := services.Share.Create(ctx, owner, est.ID, "editor@example.com", repository.ShareRoleEditor); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	// Editing rights do not include destruction.
	if err := services.Estimation.Delete(ctx, editor, est.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("editor delete err = %v, want ErrForbidden", err)
	}

	before := dispatcher.eventCount()
	if err := services.Estimation.Delete(ctx, owner, est.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if dispatcher.eventCount() != before+1 {
		t.Error("destroy did not publish a notification")
	}

	if _, err := services.Estimation.Get(ctx, owner, est.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted estimation err = %v, want ErrNotFound", err)
	}
}

func TestPublicToken(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Roadmap")
	if _, err := services.Item.Create(ctx, owner, est.ID, "Task", 5, 2); err != nil {
		t.Fatalf("item failed: %v", err)
	}

	token, err := services.Estimation.EnablePublicToken(ctx, owner, est.ID)
	if err != nil {
		t.Fatalf("EnablePublicToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty public token")
	}

	// Enabling twice keeps the same token.
	again, err := services.Estimation.EnablePublicToken(ctx, owner, est.ID)
	if err != nil || again != token {
		t.Errorf("second enable = %q, %v; want same token", again, err)
	}

	detail, err := services.Estimation.GetPublic(ctx, token)
	if err != nil {
		t.Fatalf("GetPublic failed: %v", err)
	}
	if len(detail.Items) != 1 || detail.Summary.Sum != 5 {
		t.Errorf("public view items=%d sum=%v", len(detail.Items), detail.Summary.Sum)
	}

	if err := services.Estimation.DisablePublicToken(ctx, owner, est.ID); err != nil {
		t.Fatalf("DisablePublicToken failed: %v", err)
	}
	if _, err := services.Estimation.GetPublic(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("disabled token err = %v, want ErrNotFound", err)
	}
}

func TestSummaryReflectsLatestRows(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Roadmap")
	created, err := services.Item.Create(ctx, owner, est.ID, "Task", 5, 1)
	if err != nil {
		t.Fatalf("item failed: %v", err)
	}

	first, err := services.Estimation.Summary(ctx, owner, est.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if first.Sum != 5 {
		t.Fatalf("sum = %v, want 5", first.Sum)
	}

	// Change the row behind the service's back. The next read must see it;
	// aggregates are computed from the rows, never served from a cache.
	row, err := repos.ItemRepo.FindByID(ctx, created.Item.ID)
	if err != nil || row == nil {
		t.Fatalf("item lookup failed: %v", err)
	}
	row.Value = 30
	if err := repos.ItemRepo.Update(ctx, row); err != nil {
		t.Fatalf("item update failed: %v", err)
	}

	second, err := services.Estimation.Summary(ctx, owner, est.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if second.Sum != 30 {
		t.Errorf("sum after row change = %v, want 30", second.Sum)
	}

	detail, err := services.Estimation.Get(ctx, owner, est.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if detail.Summary.Sum != 30 {
		t.Errorf("detail sum = %v, want 30", detail.Summary.Sum)
	}
}

func TestBannedUserCannotLogin(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	admin := registerUser(t, services, "Admin", "admin@example.com")
	target := registerUser(t, services, "Target", "target@example.com")

	if err := services.User.BanUser(ctx, admin.ID, target.ID); err != nil {
		t.Fatalf("BanUser failed: %v", err)
	}

	_, _, _, err := services.Auth.Login(ctx, "target@example.com", "password123")
	if !errors.Is(err, ErrBanned) {
		t.Fatalf("banned login err = %v, want ErrBanned", err)
	}

	if err := services.User.UnbanUser(ctx, admin.ID, target.ID); err != nil {
		t.Fatalf("UnbanUser failed: %v", err)
	}
	if _, _, _, err := services.Auth.Login(ctx, "target@example.com", "password123"); err != nil {
		t.Errorf("unbanned login failed: %v", err)
	}

	// Non-admins cannot ban.
	if err := services.User.BanUser(ctx, target.ID, admin.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin ban err = %v, want ErrForbidden", err)
	}
}
