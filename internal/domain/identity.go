package domain

// AuthMethod records how a caller proved its identity.
type AuthMethod string

const (
	AuthMethodSignedAssertion AuthMethod = "signed_assertion"
	AuthMethodDebug           AuthMethod = "debug_bypass"
)

// VerifiedCaller is built per request after authentication and is never
// stored.
type VerifiedCaller struct {
	Username  string
	FirstName string
	Method    AuthMethod
	ID        int64
}
