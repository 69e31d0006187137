package request

// CreateSessionRequest is the request body for logging in as an identity.
// Password is only read when the identity is the master.
type CreateSessionRequest struct {
	IdentityID int64  `json:"identity_id"`
	Password   string `json:"password,omitempty"`
}
