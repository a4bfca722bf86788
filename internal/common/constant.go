package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// AdministratorRole is the role granting access to organization-wide
// operations such as key resets.
const AdministratorRole = "administrator"
