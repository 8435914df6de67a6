// Package appstate holds the per-session application state shared across
// storefront pages: the signed-in user plus the cart and wishlist badge
// counts. State changes only through Reduce, a pure transition over a closed
// set of tagged actions, so every mutation site is explicit and replayable.
package appstate

// User is the signed-in account, or absent for guests.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Admin     bool   `json:"is_admin"`
}

// State is one session's application state. The zero value is a signed-out
// guest with empty badges.
type State struct {
	User          *User `json:"user,omitempty"`
	CartCount     int   `json:"cart_count"`
	WishlistCount int   `json:"wishlist_count"`
	Authenticated bool  `json:"authenticated"`
}

// Action is a state transition request. Implementations form a closed set.
type Action interface {
	isAction()
}

// SetUser signs a user in (or out, with a nil User).
type SetUser struct{ User *User }

// SetCartCount updates the cart badge.
type SetCartCount struct{ Count int }

// SetWishlistCount updates the wishlist badge.
type SetWishlistCount struct{ Count int }

// Logout resets the session to the guest state.
type Logout struct{}

func (SetUser) isAction()          {}
func (SetCartCount) isAction()     {}
func (SetWishlistCount) isAction() {}
func (Logout) isAction()           {}

// Reduce returns the state after applying action. It never mutates its
// input; unknown actions return the state unchanged.
func Reduce(s State, action Action) State {
	switch a := action.(type) {
	case SetUser:
		s.User = a.User
		s.Authenticated = a.User != nil
	case SetCartCount:
		s.CartCount = a.Count
	case SetWishlistCount:
		s.WishlistCount = a.Count
	case Logout:
		s = State{}
	}
	return s
}
