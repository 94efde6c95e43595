package domain

// ActorRole enumerates who may drive a lifecycle change.
type ActorRole string

const (
	ActorRoleEngineer   ActorRole = "ENGINEER"
	ActorRoleDispatcher ActorRole = "DISPATCHER"
	ActorRoleAdmin      ActorRole = "ADMIN"
	ActorRoleCustomer   ActorRole = "CUSTOMER"
	ActorRoleSystem     ActorRole = "SYSTEM"
)

// IsValid reports whether the role is known.
func (r ActorRole) IsValid() bool {
	switch r {
	case ActorRoleEngineer, ActorRoleDispatcher, ActorRoleAdmin, ActorRoleCustomer, ActorRoleSystem:
		return true
	default:
		return false
	}
}

// Actor identifies the caller behind an operation.
type Actor struct {
	ID   string
	Name string
	Role ActorRole
}

// SystemActor is used for changes made by background processes.
func SystemActor() Actor {
	return Actor{ID: "system", Name: "System", Role: ActorRoleSystem}
}
