// Package events defines the domain events modules publish. The bus itself
// lives in platform/events and is aliased here so callers need one import.
package events

import (
	"rideshare_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Vehicle Domain Events
// =============================================================================

// VehicleSubmitted is published when a driver submits a vehicle for review.
type VehicleSubmitted struct {
	BaseEvent
	VehicleID   uuid.UUID `json:"vehicleId"`
	OwnerID     uuid.UUID `json:"ownerId"`
	PlateNumber string    `json:"plateNumber"`
}

func (e VehicleSubmitted) EventName() string { return "vehicles.submitted" }

// VehicleReviewed is published when an administrator approves or rejects a vehicle.
type VehicleReviewed struct {
	BaseEvent
	VehicleID   uuid.UUID `json:"vehicleId"`
	OwnerID     uuid.UUID `json:"ownerId"`
	OwnerEmail  string    `json:"ownerEmail"`
	Vehicle     string    `json:"vehicle"`
	PlateNumber string    `json:"plateNumber"`
	Status      string    `json:"status"`
	Note        string    `json:"note,omitempty"`
	ReviewerID  uuid.UUID `json:"reviewerId"`
}

func (e VehicleReviewed) EventName() string { return "vehicles.reviewed" }

// =============================================================================
// Access Domain Events
// =============================================================================

// RoleGranted is published when a role is assigned to a user.
type RoleGranted struct {
	BaseEvent
	UserID    uuid.UUID `json:"userId"`
	Role      string    `json:"role"`
	GrantedBy uuid.UUID `json:"grantedBy"`
}

func (e RoleGranted) EventName() string { return "access.role.granted" }
