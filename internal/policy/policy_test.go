package policy

import "testing"

var (
	owner    = Actor{ID: "u-owner", Email: "owner@example.com"}
	editor   = Actor{ID: "u-editor", Email: "editor@example.com"}
	viewer   = Actor{ID: "u-viewer", Email: "viewer@example.com"}
	invitee  = Actor{ID: "u-invitee", Email: "Invitee@Example.com"}
	stranger = Actor{ID: "u-stranger", Email: "stranger@example.com"}

	doc = Document{ID: "e1", OwnerID: "u-owner"}

	grants = []Grant{
		{UserID: "u-editor", Role: RoleEditor, State: StateActive},
		{UserID: "u-viewer", Role: RoleViewer, State: StateActive},
		{Email: "invitee@example.com", Role: RoleViewer, State: StatePending},
	}
)

func TestCanView(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"owner", owner, true},
		{"active editor", editor, true},
		{"active viewer", viewer, true},
		{"pending invitee matched by email case-insensitively", invitee, true},
		{"stranger", stranger, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanView(tt.actor, doc, grants); got != tt.want {
				t.Errorf("CanView(%s) = %v, want %v", tt.actor.ID, got, tt.want)
			}
		})
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"owner", owner, true},
		{"active editor", editor, true},
		{"active viewer cannot edit", viewer, false},
		{"pending invitee cannot edit", invitee, false},
		{"stranger", stranger, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.actor, doc, grants); got != tt.want {
				t.Errorf("CanEdit(%s) = %v, want %v", tt.actor.ID, got, tt.want)
			}
		})
	}
}

func TestOwnerOnlyRights(t *testing.T) {
	for _, actor := range []Actor{editor, viewer, invitee, stranger} {
		if CanManageShares(actor, doc) {
			t.Errorf("CanManageShares(%s) = true, want false", actor.ID)
		}
		if CanTransferOwnership(actor, doc) {
			t.Errorf("CanTransferOwnership(%s) = true, want false", actor.ID)
		}
		if CanDestroy(actor, doc) {
			t.Errorf("CanDestroy(%s) = true, want false", actor.ID)
		}
	}
	if !CanManageShares(owner, doc) || !CanTransferOwnership(owner, doc) || !CanDestroy(owner, doc) {
		t.Error("owner must hold manage/transfer/destroy rights")
	}
}

// An editor grantee may not transfer their own share; only the current owner
// can invoke the transfer.
func TestTransferDenialForEditorGrantee(t *testing.T) {
	if CanTransferOwnership(editor, doc) {
		t.Error("editor grantee could invoke ownership transfer")
	}
}
