package policies

import (
	"testing"

	"vivenda-backend/internal/domain"
	"vivenda-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func seed(t *testing.T, db *gorm.DB, role string) uuid.UUID {
	id := uuid.New()
	require.NoError(t, db.Create(&domain.User{
		UserID: id, UserName: "u-" + id.String()[:8], Email: id.String()[:8] + "@test.com",
		PasswordHash: "x", Fullname: "U", Role: role,
	}).Error)
	return id
}

func TestValidateRoleAssignment_AdminCannotMintAdmins(t *testing.T) {
	db := setupDB(t)
	actor := seed(t, db, constants.Admin)
	target := seed(t, db, constants.Investor)

	err := ValidateRoleAssignment(db, ValidateRoleAssignmentParams{
		ActorRole: constants.Admin, TargetRole: constants.Admin,
		ActorUserID: actor.String(), TargetUserID: target.String(),
	})
	assert.ErrorIs(t, err, ErrOnlySuperadminsCanAssignAdminOrSuperadmin)
}

func TestValidateRoleAssignment_SelfChangeRejected(t *testing.T) {
	db := setupDB(t)
	actor := seed(t, db, constants.Admin)

	err := ValidateRoleAssignment(db, ValidateRoleAssignmentParams{
		ActorRole: constants.Admin, TargetRole: constants.Investor,
		ActorUserID: actor.String(), TargetUserID: actor.String(),
	})
	assert.ErrorIs(t, err, ErrUsersCannotModifyTheirOwnRole)
}

func TestValidateRoleAssignment_LastSuperadminProtected(t *testing.T) {
	db := setupDB(t)
	actor := seed(t, db, constants.Superadmin)

	err := ValidateRoleAssignment(db, ValidateRoleAssignmentParams{
		ActorRole: constants.Superadmin, TargetRole: constants.Admin,
		ActorUserID: actor.String(), TargetUserID: actor.String(),
	})
	assert.ErrorIs(t, err, ErrMustHaveAtLeastOneSuperadmin)

	// With a second superadmin the downgrade goes through
	other := seed(t, db, constants.Superadmin)
	err = ValidateRoleAssignment(db, ValidateRoleAssignmentParams{
		ActorRole: constants.Superadmin, TargetRole: constants.Admin,
		ActorUserID: actor.String(), TargetUserID: other.String(),
	})
	assert.NoError(t, err)
}

func TestValidateRoleAssignment_TargetMissing(t *testing.T) {
	db := setupDB(t)
	actor := seed(t, db, constants.Superadmin)

	err := ValidateRoleAssignment(db, ValidateRoleAssignmentParams{
		ActorRole: constants.Superadmin, TargetRole: constants.Admin,
		ActorUserID: actor.String(), TargetUserID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, ErrTargetUserNotFound)
}
