package domain

// ActorRole is the role an authenticated caller acts under.
type ActorRole string

const (
	ActorRoleCitizen      ActorRole = "citizen"
	ActorRoleWardOfficer  ActorRole = ActorRole(OfficerRoleWard)
	ActorRoleFieldOfficer ActorRole = ActorRole(OfficerRoleField)
	ActorRoleAdmin        ActorRole = ActorRole(OfficerRoleAdmin)
)

// Actor identifies who performs an operation.
type Actor struct {
	ID   string
	Role ActorRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == ActorRoleAdmin
}

// IsStaff reports whether the actor is an officer of any kind.
func (a Actor) IsStaff() bool {
	switch a.Role {
	case ActorRoleWardOfficer, ActorRoleFieldOfficer, ActorRoleAdmin:
		return true
	}
	return false
}
