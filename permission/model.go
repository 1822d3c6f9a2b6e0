package permission

// Permissions known to the reporter service.
const (
	PermProfileRead    = "profile:read"
	PermProfileWrite   = "profile:write"
	PermIncidentReport = "incident:report"
	PermUsersList      = "users:list"
	PermUsersManage    = "users:manage"
)

// Role names as stored on user records.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultRoles builds the frozen user/admin model. The admin mask is a strict
// superset of the user mask, so an admin passes every user-level check.
func DefaultRoles() *RoleManager {
	reg := NewRegistry()
	for _, p := range []string{PermProfileRead, PermProfileWrite, PermIncidentReport, PermUsersList, PermUsersManage} {
		if _, err := reg.Register(p); err != nil {
			panic(err)
		}
	}
	reg.Freeze()

	rm := NewRoleManager(reg)
	userPerms := []string{PermProfileRead, PermProfileWrite, PermIncidentReport}
	if err := rm.RegisterRole(RoleUser, userPerms); err != nil {
		panic(err)
	}
	if err := rm.RegisterRole(RoleAdmin, append(userPerms, PermUsersList, PermUsersManage)); err != nil {
		panic(err)
	}
	rm.Freeze()
	return rm
}
