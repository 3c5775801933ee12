package rbac

import (
	"testing"
)

func TestResolve(t *testing.T) {
	const ownerID = int64(100)

	tests := []struct {
		name    string
		userID  int64
		isAdmin bool
		want    string
	}{
		{
			name:   "владелец -> owner",
			userID: ownerID,
			want:   RoleOwner,
		},
		{
			name:    "владелец в реестре администраторов -> всё равно owner",
			userID:  ownerID,
			isAdmin: true,
			want:    RoleOwner,
		},
		{
			name:    "администратор из реестра -> admin",
			userID:  200,
			isAdmin: true,
			want:    RoleAdmin,
		},
		{
			name:   "обычный пользователь -> user",
			userID: 300,
			want:   RoleUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.userID, ownerID, tt.isAdmin)
			if got != tt.want {
				t.Errorf("Resolve(%d, %d, %v) = %q, хотели %q",
					tt.userID, ownerID, tt.isAdmin, got, tt.want)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required string
		want     bool
	}{
		{name: "owner >= admin", role: RoleOwner, required: RoleAdmin, want: true},
		{name: "owner >= owner", role: RoleOwner, required: RoleOwner, want: true},
		{name: "admin >= admin", role: RoleAdmin, required: RoleAdmin, want: true},
		{name: "admin < owner", role: RoleAdmin, required: RoleOwner, want: false},
		{name: "user < admin", role: RoleUser, required: RoleAdmin, want: false},
		{name: "user >= user", role: RoleUser, required: RoleUser, want: true},
		{name: "неизвестная роль < user", role: "invalid", required: RoleUser, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AtLeast(tt.role, tt.required)
			if got != tt.want {
				t.Errorf("AtLeast(%q, %q) = %v, хотели %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}
