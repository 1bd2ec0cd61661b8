// Package policy decides what an actor may do with an estimation. Every
// right is a pure function over explicit value types; callers pass the
// document's grants in, nothing is looked up from ambient state.
//
// A denied right is always reported as forbidden by the caller, never folded
// into "not found".
package policy

import "strings"

// Role of a grant.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor" // owner-equivalent editing, not sharing
)

// State of a grant.
type State string

const (
	StatePending State = "pending" // known only by email
	StateActive  State = "active"  // resolved to a user
)

// Actor is the authenticated identity a request runs as.
type Actor struct {
	ID    string
	Email string
}

// Document is the slice of an estimation the policy needs.
type Document struct {
	ID      string
	OwnerID string
}

// Grant is one share record of the document under decision.
type Grant struct {
	UserID string // set when State == StateActive
	Email  string // set when State == StatePending
	Role   Role
	State  State
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// CanView reports whether the actor may read the document: the owner, any
// active grantee, or the addressee of a pending grant.
func CanView(actor Actor, doc Document, grants []Grant) bool {
	if actor.ID == doc.OwnerID {
		return true
	}
	email := normalizeEmail(actor.Email)
	for _, g := range grants {
		switch g.State {
		case StateActive:
			if g.UserID == actor.ID {
				return true
			}
		case StatePending:
			if email != "" && normalizeEmail(g.Email) == email {
				return true
			}
		}
	}
	return false
}

// CanEdit reports whether the actor may mutate the document or its items:
// the owner or an active editor grantee. Pending grants never edit.
func CanEdit(actor Actor, doc Document, grants []Grant) bool {
	if actor.ID == doc.OwnerID {
		return true
	}
	for _, g := range grants {
		if g.State == StateActive && g.UserID == actor.ID && g.Role == RoleEditor {
			return true
		}
	}
	return false
}

// CanManageShares is an owner-only right; editor grants do not inherit it.
func CanManageShares(actor Actor, doc Document) bool {
	return actor.ID == doc.OwnerID
}

// CanTransferOwnership is held only by the current owner of the share's
// document, never by the grantee, editor role or not.
func CanTransferOwnership(actor Actor, doc Document) bool {
	return actor.ID == doc.OwnerID
}

// CanDestroy is an owner-only right.
func CanDestroy(actor Actor, doc Document) bool {
	return actor.ID == doc.OwnerID
}
