package lifecycle

import "cargo-booking/internal/data/entity"

// Policy decides which role may request which edge. It narrows the
// graph; it can never widen it.
type Policy interface {
	Allows(role entity.UserRole, from, to entity.BookingStatus) bool
}

// OpenPolicy lets any authenticated owner request any legal edge.
type OpenPolicy struct{}

func (OpenPolicy) Allows(entity.UserRole, entity.BookingStatus, entity.BookingStatus) bool {
	return true
}

// RolePolicy restricts target statuses per role.
type RolePolicy map[entity.UserRole][]entity.BookingStatus

// DefaultRolePolicy: drivers run the job, customers may only withdraw.
func DefaultRolePolicy() RolePolicy {
	return RolePolicy{
		entity.RoleDriver: {
			entity.BookingStatusAccepted,
			entity.BookingStatusRejected,
			entity.BookingStatusInTransit,
			entity.BookingStatusCompleted,
		},
		entity.RoleCustomer: {
			entity.BookingStatusCancelled,
		},
	}
}

func (p RolePolicy) Allows(role entity.UserRole, _ entity.BookingStatus, to entity.BookingStatus) bool {
	for _, allowed := range p[role] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PolicyByName maps the ROLE_POLICY setting to a Policy.
func PolicyByName(name string) Policy {
	if name == "strict" {
		return DefaultRolePolicy()
	}
	return OpenPolicy{}
}
