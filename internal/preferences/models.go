package preferences

import (
	"encoding/json"
	"time"
)

const (
	prefix = "preferences:"

	prefixByRoot = prefix + "repository:"
	indexLast    = prefix + "last_root"
)

// Repository is a working copy the user has opened.
type Repository struct {
	Root     string
	OpenedAt time.Time
}

type repositoryModel struct {
	Root     string    `json:"root"`
	OpenedAt time.Time `json:"opened_at"`
}

func newRepositoryModel(root string, openedAt time.Time) *repositoryModel {
	return &repositoryModel{
		Root:     root,
		OpenedAt: openedAt,
	}
}

func (m *repositoryModel) StorageKey() string {
	return prefixByRoot + m.Root
}

func (m *repositoryModel) StorageIndexes() []string {
	return []string{indexLast}
}

func (m *repositoryModel) MarshalStorage() ([]byte, error) {
	return json.Marshal(m)
}

func (m *repositoryModel) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, m)
}

func (m *repositoryModel) toDomain() Repository {
	return Repository{
		Root:     m.Root,
		OpenedAt: m.OpenedAt,
	}
}
