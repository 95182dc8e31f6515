package session

import "context"

// Persisted key names. No other key is used by the portal session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Record is the raw persisted pair. An absent key is represented by an empty string.
// User holds the UTF-8 JSON profile exactly as stored; backends never interpret it.
type Record struct {
	Token string
	User  string
}

// Empty reports whether neither key is present.
func (r Record) Empty() bool {
	return r.Token == "" && r.User == ""
}

// Store is durable key-value persistence for the session record.
// Save and Clear operate on both keys as a single atomic unit.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// Pinger is implemented by stores backed by an out-of-process service.
type Pinger interface {
	Ping(ctx context.Context) error
}
