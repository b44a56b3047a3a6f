package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GadgetStatus is the lifecycle state of a gadget.
type GadgetStatus string

const (
	StatusAvailable      GadgetStatus = "Available"
	StatusDeployed       GadgetStatus = "Deployed"
	StatusDestroyed      GadgetStatus = "Destroyed"
	StatusDecommissioned GadgetStatus = "Decommissioned"
)

// GadgetStatuses lists every valid status in declaration order.
var GadgetStatuses = []GadgetStatus{
	StatusAvailable,
	StatusDeployed,
	StatusDestroyed,
	StatusDecommissioned,
}

// Valid reports whether s is one of the known statuses.
func (s GadgetStatus) Valid() bool {
	for _, v := range GadgetStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Gadget is a tracked device. Codename is assigned once at creation.
// DecommissionedAt is set only by the decommission transition.
type Gadget struct {
	ID               uuid.UUID
	Name             string
	Codename         string
	Status           GadgetStatus
	DecommissionedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// GadgetPatch holds the fields of a partial update. Nil fields are left
// unchanged.
type GadgetPatch struct {
	Name   *string
	Status *GadgetStatus
}

// Empty reports whether the patch carries no fields.
func (p GadgetPatch) Empty() bool {
	return p.Name == nil && p.Status == nil
}

// GadgetRepository defines persistence operations for gadgets.
type GadgetRepository interface {
	Create(ctx context.Context, gadget *Gadget) error
	GetByID(ctx context.Context, id uuid.UUID) (*Gadget, error)
	// List returns gadgets newest first. A nil status returns all of them.
	List(ctx context.Context, status *GadgetStatus) ([]Gadget, error)
	// Update writes Name, Status and UpdatedAt of an existing gadget.
	Update(ctx context.Context, gadget *Gadget) error
	// Decommission sets the status to Decommissioned and stamps
	// DecommissionedAt in a single statement.
	Decommission(ctx context.Context, id uuid.UUID, at time.Time) (*Gadget, error)
}
