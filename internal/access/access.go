// Package access decides who may read or modify an owned resource.
package access

import (
	"errors"

	"github.com/atinyakov/minihub/internal/models"
)

// ErrNotAccessible is returned for writes to a resource that either does
// not exist or is not owned by the requester. Callers cannot tell the two apart.
var ErrNotAccessible = errors.New("not found or no permission")

// CanRead reports whether requester may see r. publicGate is the kind-specific
// extra condition for PUBLIC items (articles must be published).
func CanRead(r *models.Resource, requester string, publicGate bool) bool {
	if r.OwnerID == requester {
		return true
	}
	switch r.Visibility {
	case models.Public:
		return publicGate
	case models.Specific:
		return r.IsGrantee(requester)
	}
	return false
}

// CanWrite reports whether requester may update or delete r.
func CanWrite(r *models.Resource, requester string) bool {
	return r.OwnerID == requester
}
