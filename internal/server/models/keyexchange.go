package models

import "time"

// ApprovalRequest is a device waiting for another device of the same user
// to hand over the encrypted user key.
type ApprovalRequest struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	DeviceID        string    `json:"device_id"`
	PublicDeviceKey string    `json:"public_device_key"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EncryptedUserKeyData is the user private key encrypted for one device.
type EncryptedUserKeyData struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	DeviceID         string    `json:"device_id"`
	PublicDeviceKey  string    `json:"public_device_key"`
	EncryptedUserKey string    `json:"encrypted_user_key"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DeletedUser is the archived snapshot written before a user is removed.
type DeletedUser struct {
	User      *User       `json:"user"`
	ShareKeys []*ShareKey `json:"share_keys"`
	DeletedBy string      `json:"deleted_by"`
	DeletedAt time.Time   `json:"deleted_at"`
}
