package api

import "time"

type CloudStorage struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	CspID              string    `json:"csp_id"`
	UniqueID           string    `json:"unique_id"`
	AuthenticationData string    `json:"authentication_data"`
	DisplayName        string    `json:"display_name"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CspView is a CSP as seen by other members of a share.
type CspView struct {
	ID          string `json:"id"`
	CspID       string `json:"csp_id"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	UniqueID    string `json:"unique_id"`
	UserID      string `json:"user_id"`
}

type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type User struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	PublicKey      *string  `json:"public_key,omitempty"`
	Roles          []string `json:"roles"`
}

type Share struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	StorageType      string    `json:"storage_type"`
	UniqueID         string    `json:"unique_id"`
	StorageUniqueIDs []string  `json:"storage_unique_ids"`
	PublicShareKey   *string   `json:"public_share_key,omitempty"`
	Encrypted        bool      `json:"encrypted"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ShareDetails struct {
	Share
	Users                  []UserView `json:"users"`
	UsersWithoutShareKey   []UserView `json:"users_without_share_key"`
	HasExternalUsers       bool       `json:"has_external_users"`
	ShareKeyForCurrentUser *string    `json:"share_key_for_current_user,omitempty"`
	Csps                   []CspView  `json:"csps"`
}

type ShareKey struct {
	ID                string `json:"id"`
	ShareID           string `json:"share_id"`
	UserID            string `json:"user_id"`
	EncryptedShareKey string `json:"encrypted_share_key"`
}

type ApprovalRequest struct {
	DeviceID        string    `json:"device_id"`
	PublicDeviceKey string    `json:"public_device_key"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type DeviceKey struct {
	DeviceID         string `json:"device_id"`
	PublicDeviceKey  string `json:"public_device_key"`
	EncryptedUserKey string `json:"encrypted_user_key"`
}

// --- requests and responses ---

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type AddCloudStorageRequest struct {
	Type               string `json:"type" validate:"required"`
	CspID              string `json:"csp_id" validate:"required"`
	UniqueID           string `json:"unique_id" validate:"required"`
	AuthenticationData string `json:"authentication_data"`
	DisplayName        string `json:"display_name"`
}

type CloudStorageResponse struct {
	CloudStorage CloudStorage `json:"cloud_storage"`
}

type DeleteCloudStorageRequest struct {
	CspID string `json:"csp_id" validate:"required"`
}

type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

type UpdateCspAuthDataRequest struct {
	CspID                 string `json:"csp_id" validate:"required"`
	OldAuthenticationData string `json:"old_authentication_data"`
	AuthenticationData    string `json:"authentication_data"`
}

type ListCloudStoragesRequest struct{}

type ListCloudStoragesResponse struct {
	CloudStorages []CloudStorage `json:"cloud_storages"`
}

type ListCspSharesRequest struct {
	CspID string `json:"csp_id" validate:"required"`
}

type AddShareRequest struct {
	Name             string   `json:"name" validate:"required"`
	StorageType      string   `json:"storage_type" validate:"required"`
	UniqueID         string   `json:"unique_id" validate:"required"`
	StorageUniqueIDs []string `json:"storage_unique_ids" validate:"dive,required"`
}

type ShareResponse struct {
	Share Share `json:"share"`
}

type UpdateShareRequest struct {
	StorageType      string   `json:"storage_type" validate:"required"`
	UniqueID         string   `json:"unique_id" validate:"required"`
	Name             *string  `json:"name,omitempty"`
	StorageUniqueIDs []string `json:"storage_unique_ids,omitempty" validate:"omitempty,dive,required"`
}

type DeleteShareRequest struct {
	StorageType string `json:"storage_type" validate:"required"`
	UniqueID    string `json:"unique_id" validate:"required"`
}

type ListSharesRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type ListSharesResponse struct {
	Shares []Share `json:"shares"`
}

type GetShareRequest struct {
	StorageType string `json:"storage_type" validate:"required"`
	UniqueID    string `json:"unique_id" validate:"required"`
}

type ShareDetailsResponse struct {
	Share ShareDetails `json:"share"`
}

type EncryptedShareKey struct {
	UserID            string `json:"user_id" validate:"required"`
	EncryptedShareKey string `json:"encrypted_share_key" validate:"required"`
}

type InitShareKeysRequest struct {
	StorageType        string              `json:"storage_type" validate:"required"`
	ShareUniqueID      string              `json:"share_unique_id" validate:"required"`
	PublicShareKey     string              `json:"public_share_key" validate:"required"`
	EncryptedShareKeys []EncryptedShareKey `json:"encrypted_share_keys" validate:"dive"`
}

type AddShareKeyRequest struct {
	StorageType       string `json:"storage_type" validate:"required"`
	ShareUniqueID     string `json:"share_unique_id" validate:"required"`
	UserID            string `json:"user_id" validate:"required"`
	EncryptedShareKey string `json:"encrypted_share_key" validate:"required"`
}

type ShareKeyResponse struct {
	ShareKey ShareKey `json:"share_key"`
}

type RemoveUserFromShareRequest struct {
	StorageType     string `json:"storage_type" validate:"required"`
	StorageUniqueID string `json:"storage_unique_id" validate:"required"`
	ShareUniqueID   string `json:"share_unique_id" validate:"required"`
}

type RemoveUserFromShareResponse struct {
	Removed bool `json:"removed"`
}

type InitUserKeyRequest struct {
	PublicKey        string `json:"public_key" validate:"required"`
	DeviceID         string `json:"device_id" validate:"required"`
	PublicDeviceKey  string `json:"public_device_key" validate:"required"`
	EncryptedUserKey string `json:"encrypted_user_key" validate:"required"`
}

type UserResponse struct {
	User User `json:"user"`
}

type RequestDeviceApprovalRequest struct {
	DeviceID        string `json:"device_id" validate:"required"`
	PublicDeviceKey string `json:"public_device_key" validate:"required"`
}

type ApprovalRequestResponse struct {
	ApprovalRequest ApprovalRequest `json:"approval_request"`
}

type ApproveDeviceRequest struct {
	DeviceID         string `json:"device_id" validate:"required"`
	PublicDeviceKey  string `json:"public_device_key" validate:"required"`
	EncryptedUserKey string `json:"encrypted_user_key" validate:"required"`
}

type DeviceKeyResponse struct {
	DeviceKey DeviceKey `json:"device_key"`
}

type DeclineDeviceRequest struct {
	DeviceID        string `json:"device_id" validate:"required"`
	PublicDeviceKey string `json:"public_device_key" validate:"required"`
}

type DeclineDeviceResponse struct {
	Declined bool `json:"declined"`
}

type ListDeviceKeysRequest struct{}

type ListDeviceKeysResponse struct {
	ApprovalRequests []ApprovalRequest `json:"approval_requests"`
	DeviceKeys       []DeviceKey       `json:"device_keys"`
}

type ResetUserKeysRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type DeleteUserRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type DeleteUserResponse struct {
	UserID string `json:"user_id"`
}
