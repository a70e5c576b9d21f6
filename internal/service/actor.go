// Package service implements the bookstore rules: the access policy, the
// cart, the order lifecycle, the comment ledger, the catalog and the
// customer back office.  Every operation receives the acting user as an
// explicit Actor and runs its writes in one transaction.
package service

import "github.com/iliyamo/bookstore/internal/model"

// Actor is the user on whose behalf an operation runs.  The zero value is
// a guest.
type Actor struct {
	ID   uint64
	Role model.Role
}

// Guest returns the unauthenticated actor.
func Guest() Actor { return Actor{} }

// IsGuest reports whether the actor is not logged in.
func (a Actor) IsGuest() bool { return a.ID == 0 || !a.Role.Valid() }

// IsAdmin reports whether the actor is an administrador.
func (a Actor) IsAdmin() bool { return !a.IsGuest() && a.Role == model.RoleAdministrator }

func (a Actor) requireUser() error {
	if a.IsGuest() {
		return ErrUnauthenticated
	}
	return nil
}

func (a Actor) requireAdmin() error {
	if a.IsGuest() {
		return ErrUnauthenticated
	}
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
