package service

import "github.com/iliyamo/bookstore/internal/model"

// CanViewOrEdit reports whether a may open the edit form of c, update it
// or delete it: only its owner or an administrador.
func CanViewOrEdit(a Actor, c *model.Comment) bool {
	if a.IsGuest() || c == nil {
		return false
	}
	return a.ID == c.UserID || a.IsAdmin()
}

// CanManageCatalog reports whether a may create, update or delete books,
// authors and publishers.
func CanManageCatalog(a Actor) bool { return a.IsAdmin() }

// CanViewOrder reports whether a may read o: its customer or an
// administrador.
func CanViewOrder(a Actor, o *model.Order) bool {
	if a.IsGuest() || o == nil {
		return false
	}
	return a.ID == o.CustomerID || a.IsAdmin()
}
