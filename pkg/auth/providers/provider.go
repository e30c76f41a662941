package providers

import "context"

// AuthProvider verifies identity tokens issued to participants.
// The verified UID is used as the participant id so that authority and turn
// ownership follow the person, not the connection.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

type TokenClaims struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
}
