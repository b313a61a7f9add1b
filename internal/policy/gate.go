// Package policy decides whether an actor may perform an action on a
// resource, decoupling privilege from exact identity.
package policy

import "codecourse/internal/models"

// Gate is the capability interface consulted before mutating a resource
type Gate interface {
	// CanManage reports whether actor may modify or delete a resource
	// owned by ownerID
	CanManage(actor *models.User, ownerID int64) bool

	// IsAdmin reports whether actor holds administrative privileges
	IsAdmin(actor *models.User) bool
}

// OwnerOrAdminGate grants access to the resource's owner and to any user
// carrying the admin flag. Admin status is an attribute of the account, not
// a comparison against a well-known username.
type OwnerOrAdminGate struct{}

// NewGate creates the default authorization gate
func NewGate() *OwnerOrAdminGate {
	return &OwnerOrAdminGate{}
}

func (g *OwnerOrAdminGate) CanManage(actor *models.User, ownerID int64) bool {
	if actor == nil {
		return false
	}
	return actor.ID == ownerID || actor.IsAdmin
}

func (g *OwnerOrAdminGate) IsAdmin(actor *models.User) bool {
	return actor != nil && actor.IsAdmin
}
