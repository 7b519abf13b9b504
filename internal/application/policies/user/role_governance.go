package policies

import (
	"vivenda-backend/internal/domain"
	"vivenda-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

type ValidateRoleAssignmentParams struct {
	ActorRole    string
	TargetRole   string
	ActorUserID  string
	TargetUserID string
}

// ValidateRoleAssignment guards role changes: only superadmins may hand out
// admin or superadmin, nobody below superadmin changes their own role, and
// the last superadmin can never be downgraded.
func ValidateRoleAssignment(db *gorm.DB, params ValidateRoleAssignmentParams) error {
	if (params.TargetRole == constants.Admin || params.TargetRole == constants.Superadmin) &&
		params.ActorRole != constants.Superadmin {
		return ErrOnlySuperadminsCanAssignAdminOrSuperadmin
	}
	var target domain.User
	if err := db.Where("user_id = ?", params.TargetUserID).First(&target).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrTargetUserNotFound
		}
		return err
	}
	if params.ActorUserID == params.TargetUserID && params.ActorRole != constants.Superadmin {
		return ErrUsersCannotModifyTheirOwnRole
	}
	if target.Role == constants.Superadmin && params.TargetRole != constants.Superadmin {
		var count int64
		db.Model(&domain.User{}).Where("role = ?", constants.Superadmin).Count(&count)
		if count <= 1 {
			return ErrMustHaveAtLeastOneSuperadmin
		}
	}
	return nil
}
