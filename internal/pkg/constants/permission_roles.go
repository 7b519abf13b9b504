package constants

// PermissionRoles maps each permission to roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewData:           {Investor, Admin, Superadmin},
	CreateProperty:     {Admin, Superadmin},
	DeleteProperty:     {Admin, Superadmin},
	BlockQuotas:        {Admin, Superadmin},
	RequestReservation: {Investor, Admin, Superadmin},
	DecideReservation:  {Admin, Superadmin},
	ViewLedgerEvents:   {Admin, Superadmin},
	CreateUser:         {Admin, Superadmin},
	AssignRole:         {Admin, Superadmin},
	ManageAdmins:       {Superadmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
