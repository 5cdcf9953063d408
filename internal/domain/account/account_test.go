package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleUser, PermissionManageOwnContent, true},
		{RoleUser, PermissionManageAnyContent, false},
		{RoleUser, PermissionManageTaxonomy, false},
		{RoleUser, PermissionViewStats, false},
		{RoleAdmin, PermissionManageAnyContent, true},
		{RoleAdmin, PermissionManageAccounts, true},
		{Role("root"), PermissionManageOwnContent, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.perm.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Can(tt.perm))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("Admin")
	assert.Error(t, err)
}

func TestNewFromRegisterRequest(t *testing.T) {
	now := time.Now().UTC()
	a := NewFromRegisterRequest(RegisterRequest{
		Username:  " sam ",
		Email:     " Sam@Example.COM ",
		FirstName: "Sam",
		LastName:  "Doe",
	}, "hash", now)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "sam", a.Username)
	assert.Equal(t, "sam@example.com", a.Email)
	assert.Equal(t, RoleUser, a.Role)
	assert.True(t, a.IsActive)
	assert.Equal(t, "Sam Doe", a.FullName())
	assert.Equal(t, "Sam Doe", a.Profile().FullName)
}

func TestApplyProfile_OnlyTouchesProvidedFields(t *testing.T) {
	a := Account{FirstName: "Sam", Bio: "old"}
	bio := "new bio"

	a.ApplyProfile(UpdateProfileRequest{Bio: &bio}, time.Now())

	assert.Equal(t, "Sam", a.FirstName)
	assert.Equal(t, "new bio", a.Bio)
}
