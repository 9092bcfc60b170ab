package registry

import "github.com/google/uuid"

// Gate answers whether a caller may use gated registry operations.
type Gate interface {
	IsAuthorized(caller uuid.UUID) bool
}

// AdminGate authorizes exactly one administrator identity, supplied once
// at construction and immutable thereafter.
type AdminGate struct {
	admin uuid.UUID
}

func NewAdminGate(admin uuid.UUID) *AdminGate {
	return &AdminGate{admin: admin}
}

func (g *AdminGate) IsAuthorized(caller uuid.UUID) bool {
	return caller != uuid.Nil && caller == g.admin
}
