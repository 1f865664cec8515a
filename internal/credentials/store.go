package credentials

// Storage keys. The pair lives under fixed keys; the identity snapshot is an
// opaque JSON blob owned by the session manager.
const (
	accessKey   = "authToken"
	refreshKey  = "refreshToken"
	identityKey = "currentUser"
)

// Pair is the access/refresh token pair issued at login or refresh.
// It is stored and cleared as a unit: a reader never observes one token
// without the other.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store persists the credential pair and the cached identity snapshot.
// Implementations are safe for concurrent use.
type Store interface {
	// Save persists both tokens. Saving a pair with a missing token is a
	// logged no-op; a previously stored pair stays intact.
	Save(pair Pair) error
	// Load returns the pair only when both tokens are present.
	Load() (Pair, bool)
	// Clear removes both tokens unconditionally. Idempotent.
	Clear() error

	// SaveIdentity stores the serialized identity snapshot.
	SaveIdentity(data []byte) error
	// LoadIdentity returns the stored snapshot, if any.
	LoadIdentity() ([]byte, bool)
	// ClearIdentity removes the snapshot. Idempotent.
	ClearIdentity() error
}
