package models

import "time"

// Share is a named collaboration scope on an external storage object.
//
// StorageUniqueIDs lists every external account taking part in the share,
// including accounts nobody has linked here yet. PublicShareKey is set once
// by the share key initialization and never changed afterwards.
type Share struct {
	ID               string      `json:"id"`
	OrganizationID   string      `json:"organization_id"`
	Name             string      `json:"name"`
	StorageType      StorageType `json:"storage_type"`
	UniqueID         string      `json:"unique_id"`
	StorageUniqueIDs []string    `json:"storage_unique_ids"`
	PublicShareKey   *string     `json:"public_share_key,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Encrypted reports whether share keys were initialized.
func (s *Share) Encrypted() bool {
	return s.PublicShareKey != nil && *s.PublicShareKey != ""
}

// Accounts expands StorageUniqueIDs into storage account keys.
func (s *Share) Accounts() []StorageAccount {
	out := make([]StorageAccount, 0, len(s.StorageUniqueIDs))
	for _, id := range s.StorageUniqueIDs {
		out = append(out, StorageAccount{Type: s.StorageType, UniqueID: id})
	}
	return out
}

func (s *Share) Ref() ShareRef {
	return ShareRef{OrganizationID: s.OrganizationID, StorageType: s.StorageType, UniqueID: s.UniqueID}
}

// ShareRef is the natural key of a share.
type ShareRef struct {
	OrganizationID string
	StorageType    StorageType
	UniqueID       string
}

// SharePatch lists the share columns to change. Nil fields are left alone.
type SharePatch struct {
	Name             *string
	StorageUniqueIDs []string
	PublicShareKey   *string
}

func (p SharePatch) Empty() bool {
	return p.Name == nil && p.StorageUniqueIDs == nil && p.PublicShareKey == nil
}

// ShareKey is the share key encrypted for one member.
type ShareKey struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	ShareID           string    `json:"share_id"`
	EncryptedShareKey string    `json:"encrypted_share_key"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ShareDetails carries the computed fields of a share as seen by one user.
type ShareDetails struct {
	Share                  *Share     `json:"share"`
	Users                  []UserView `json:"users"`
	UsersWithoutShareKey   []UserView `json:"users_without_share_key"`
	HasExternalUsers       bool       `json:"has_external_users"`
	ShareKeyForCurrentUser *string    `json:"share_key_for_current_user,omitempty"`
	Csps                   []CspView  `json:"csps"`
}
