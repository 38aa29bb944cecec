package adapter

import "context"

// IdentityVerifier resolves a bearer credential to an authenticated user id.
// Implementations return domain.ErrUnauthorized for anything they cannot
// verify; callers never learn why.
type IdentityVerifier interface {
	Verify(ctx context.Context, bearerToken string) (userID string, err error)
}
