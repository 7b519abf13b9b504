package policies

import "errors"

var (
	ErrOnlySuperadminsCanAssignAdminOrSuperadmin = errors.New("Only superadmins can assign admin or superadmin roles")
	ErrTargetUserNotFound                        = errors.New("Target user not found")
	ErrUsersCannotModifyTheirOwnRole             = errors.New("Users cannot modify their own role")
	ErrMustHaveAtLeastOneSuperadmin              = errors.New("There must be at least one superadmin")
)
