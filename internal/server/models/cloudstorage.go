package models

import "time"

// StorageType identifies a supported cloud storage provider.
type StorageType string

const (
	StorageBox              StorageType = "box"
	StorageCIFS             StorageType = "cifs"
	StorageDropbox          StorageType = "dropbox"
	StorageGDrive           StorageType = "gdrive"
	StorageNextcloud        StorageType = "nextcloud"
	StorageOffice365Groups  StorageType = "office365groups"
	StorageOneDrive         StorageType = "onedrive"
	StorageOneDriveBusiness StorageType = "onedrivebusiness"
	StorageOwnCloud         StorageType = "owncloud"
	StorageSharePoint       StorageType = "sharepoint"
)

var storageTypes = map[StorageType]struct{}{
	StorageBox: {}, StorageCIFS: {}, StorageDropbox: {}, StorageGDrive: {},
	StorageNextcloud: {}, StorageOffice365Groups: {}, StorageOneDrive: {},
	StorageOneDriveBusiness: {}, StorageOwnCloud: {}, StorageSharePoint: {},
}

func (t StorageType) Valid() bool {
	_, ok := storageTypes[t]
	return ok
}

// StorageAccount is the composite key of an external account: several local
// cloud storage providers may point at the same one.
type StorageAccount struct {
	Type     StorageType
	UniqueID string
}

// CloudStorageProvider is an external storage account linked by one user.
type CloudStorageProvider struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"user_id"`
	Type               StorageType `json:"type"`
	CspID              string      `json:"csp_id"`
	UniqueID           string      `json:"unique_id"`
	AuthenticationData string      `json:"authentication_data"`
	DisplayName        string      `json:"display_name"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func (c *CloudStorageProvider) Account() StorageAccount {
	return StorageAccount{Type: c.Type, UniqueID: c.UniqueID}
}

// CspView is the part of a cloud storage provider visible to other members
// of a share. Authentication data is never exposed.
type CspView struct {
	ID          string      `json:"id"`
	CspID       string      `json:"csp_id"`
	DisplayName string      `json:"display_name"`
	Type        StorageType `json:"type"`
	UniqueID    string      `json:"unique_id"`
	UserID      string      `json:"user_id"`
}

func (c *CloudStorageProvider) View() CspView {
	return CspView{
		ID:          c.ID,
		CspID:       c.CspID,
		DisplayName: c.DisplayName,
		Type:        c.Type,
		UniqueID:    c.UniqueID,
		UserID:      c.UserID,
	}
}
