// Package policy holds the authorization rules. Reads need any valid
// session; catalog writes need the admin role. There are no per-resource
// ownership checks.
package policy

import "github.com/iliyamo/inventory-service/internal/model"

// CanMutateCatalog reports whether role may create, update or delete
// catalog entries.
func CanMutateCatalog(role string) bool {
	return role == model.RoleAdmin
}
