package models

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
)

// User is an organization member. PublicKey is nil until the user key has
// been initialized.
type User struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PublicKey      *string   `json:"public_key,omitempty"`
	Roles          []string  `json:"roles"`
	IsEnabled      bool      `json:"is_enabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) IsAdministrator() bool {
	return slices.Contains(u.Roles, common.AdministratorRole)
}

func (u *User) HasPublicKey() bool {
	return u.PublicKey != nil && *u.PublicKey != ""
}

// UserView is what other members of a share may see about a user.
type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u *User) View() UserView {
	return UserView{ID: u.ID, Email: u.Email}
}
