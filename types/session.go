package types

// SessionID identifies a conversation with the binary
type SessionID string

func (id SessionID) String() string {
	return string(id)
}
