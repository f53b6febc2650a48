package badgerfx

// Entity is a value stored under its own key, optionally reachable through
// index keys whose values hold that key.
type Entity interface {
	StorageKey() string
	StorageIndexes() []string

	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}
