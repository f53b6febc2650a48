package badgerfx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Collection stores entities of one type. Every operation runs inside the
// caller's transaction.
type Collection[T Entity] struct {
	newEntity func() T
}

func NewCollection[T Entity](newEntity func() T) *Collection[T] {
	return &Collection[T]{newEntity: newEntity}
}

// List returns the entities whose keys start with prefix, in key order.
func (c *Collection[T]) List(txn *badger.Txn, prefix string) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var entities []T
	for it.Rewind(); it.Valid(); it.Next() {
		entity, err := c.decode(it.Item())
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	return entities, nil
}

func (c *Collection[T]) Read(txn *badger.Txn, key string) (T, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return c.decode(item)
}

// ReadByIndex follows the index key to the entity it points at.
func (c *Collection[T]) ReadByIndex(txn *badger.Txn, index string) (T, error) {
	key, err := c.indexTarget(txn, index)
	if err != nil {
		var zero T
		return zero, err
	}

	return c.Read(txn, string(key))
}

// Write stores entity and points all of its indexes at it.
func (c *Collection[T]) Write(txn *badger.Txn, entity T) error {
	data, err := entity.MarshalStorage()
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", entity.StorageKey(), err)
	}

	key := []byte(entity.StorageKey())
	for _, index := range entity.StorageIndexes() {
		if err = txn.Set([]byte(index), key); err != nil {
			return fmt.Errorf("failed to set index %s: %w", index, err)
		}
	}

	if err = txn.Set(key, data); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

// Delete removes the entity stored under key. Indexes already taken over by
// another entity are left in place.
func (c *Collection[T]) Delete(txn *badger.Txn, key string) error {
	entity, err := c.Read(txn, key)
	if err != nil {
		return err
	}

	for _, index := range entity.StorageIndexes() {
		target, indexErr := c.indexTarget(txn, index)
		if errors.Is(indexErr, badger.ErrKeyNotFound) {
			continue
		}
		if indexErr != nil {
			return indexErr
		}
		if !bytes.Equal(target, []byte(key)) {
			continue
		}

		if indexErr = txn.Delete([]byte(index)); indexErr != nil {
			return fmt.Errorf("failed to delete index %s: %w", index, indexErr)
		}
	}

	if err = txn.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}

func (c *Collection[T]) indexTarget(txn *badger.Txn, index string) ([]byte, error) {
	item, err := txn.Get([]byte(index))
	if err != nil {
		return nil, fmt.Errorf("failed to get index %s: %w", index, err)
	}

	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}

	return key, nil
}

func (c *Collection[T]) decode(item *badger.Item) (T, error) {
	entity := c.newEntity()
	if err := item.Value(entity.UnmarshalStorage); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal %s: %w", item.Key(), err)
	}

	return entity, nil
}
