// internal/domain/identity/identity.go
package identity

// Identity is the resolved caller identity threaded explicitly into every
// cart, checkout and order operation. Exactly one of UserID or SessionID
// identifies a cart owner.
type Identity struct {
	UserID    *uint
	SessionID string
	IsAdmin   bool
}

// ForUser builds an authenticated identity
func ForUser(userID uint, isAdmin bool) Identity {
	return Identity{UserID: &userID, IsAdmin: isAdmin}
}

// ForSession builds an anonymous identity from a session token
func ForSession(sessionID string) Identity {
	return Identity{SessionID: sessionID}
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != nil
}

// Valid reports whether the identity can own a cart.
func (i Identity) Valid() bool {
	return i.UserID != nil || i.SessionID != ""
}

// CanAccessOrder reports whether the identity may read or act on an order
// owned by ownerID. Administrators bypass the ownership check.
func (i Identity) CanAccessOrder(ownerID uint) bool {
	if i.IsAdmin {
		return true
	}
	return i.UserID != nil && *i.UserID == ownerID
}
