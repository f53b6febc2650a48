package preferences

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nanogit/nanogit/pkg/badgerfx"
	"github.com/samber/lo"
)

type Store struct {
	db      *badger.DB
	entries *badgerfx.Collection[*repositoryModel]
}

func NewStore(db *badger.DB) *Store {
	return &Store{
		db:      db,
		entries: badgerfx.NewCollection(func() *repositoryModel { return &repositoryModel{} }),
	}
}

// SaveRoot records root as the most recently opened repository.
func (s *Store) SaveRoot(_ context.Context, root string) error {
	model := newRepositoryModel(root, time.Now())

	err := s.db.Update(func(txn *badger.Txn) error {
		return s.entries.Write(txn, model)
	})
	if err != nil {
		return fmt.Errorf("failed to save repository root: %w", err)
	}

	return nil
}

// LastRoot returns the most recently opened repository root.
func (s *Store) LastRoot(_ context.Context) (string, error) {
	var root string

	err := s.db.View(func(txn *badger.Txn) error {
		model, err := s.entries.ReadByIndex(txn, indexLast)
		if err != nil {
			return err
		}

		root = model.Root
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last repository root: %w", err)
	}

	return root, nil
}

// Recent lists remembered repositories, most recently opened first.
func (s *Store) Recent(_ context.Context, limit int) ([]Repository, error) {
	var models []*repositoryModel

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		models, err = s.entries.List(txn, prefixByRoot)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	slices.SortFunc(models, func(a, b *repositoryModel) int {
		return b.OpenedAt.Compare(a.OpenedAt)
	})
	if limit > 0 && len(models) > limit {
		models = models[:limit]
	}

	return lo.Map(models, func(m *repositoryModel, _ int) Repository { return m.toDomain() }), nil
}

// Forget drops root. It stops being the last root if it was one.
func (s *Store) Forget(_ context.Context, root string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return s.entries.Delete(txn, newRepositoryModel(root, time.Time{}).StorageKey())
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to forget repository root: %w", err)
	}

	return nil
}
