package badgerfx

import "github.com/dgraph-io/badger/v4"

type Config struct {
	// Dir is ignored when InMemory is set.
	Dir      string
	InMemory bool
}

func (c Config) options() badger.Options {
	if c.InMemory {
		return badger.DefaultOptions("").WithInMemory(true)
	}

	return badger.DefaultOptions(c.Dir)
}
