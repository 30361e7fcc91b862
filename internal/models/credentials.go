package models

// RedactedPlaceholder is substituted for secret credential fields whenever
// credentials leave the store (exports, API views).
const RedactedPlaceholder = "[REDACTED]"

// Credentials is the Login-with-Amazon credential set that authorizes
// Selling Partner API access. A single record exists per installation.
type Credentials struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Clone returns an independent copy.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Redacted returns a copy with the secret fields replaced by the placeholder.
// The client ID is an identifier, not a secret, and survives intact.
func (c *Credentials) Redacted() *Credentials {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ClientSecret = RedactedPlaceholder
	clone.RefreshToken = RedactedPlaceholder
	return &clone
}
