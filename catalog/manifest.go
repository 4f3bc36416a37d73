package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/vecand/blobstore"
	"github.com/hupe1980/vecand/codec"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

var (
	// ErrIncompatibleVersion is returned when the manifest version is not supported.
	ErrIncompatibleVersion = errors.New("catalog: incompatible manifest version")

	// ErrNotFound is returned when no snapshot has been saved yet.
	ErrNotFound = errors.New("catalog: manifest not found")
)

// Manifest describes one catalog snapshot.
type Manifest struct {
	Version     int                   `json:"version"`
	ID          uint64                `json:"id"`
	CreatedAt   time.Time             `json:"created_at"`
	Codec       string                `json:"codec"`
	Compression codec.CompressionType `json:"compression"`
	Indexes     []IndexInfo           `json:"indexes"`
}

// IndexInfo describes one persisted index.
type IndexInfo struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Rows     int    `json:"rows"`
	Path     string `json:"path"`     // Relative to the store root
	Size     int64  `json:"size"`     // Compressed size in bytes
	Checksum uint32 `json:"checksum"` // CRC32C of the stored blob
}

func manifestName(id uint64) string {
	return fmt.Sprintf("%s-%06d.json", ManifestFileName, id)
}

// ManifestStore manages manifest blobs and the CURRENT pointer.
type ManifestStore struct {
	store blobstore.Store
	mu    sync.Mutex
}

// NewManifestStore creates a manifest store on top of store.
func NewManifestStore(store blobstore.Store) *ManifestStore {
	return &ManifestStore{store: store}
}

// Load loads the current manifest.
func (s *ManifestStore) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific manifest ID. 0 means latest.
func (s *ManifestStore) LoadVersion(ctx context.Context, id uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := manifestName(id)
	if id == 0 {
		current, err := s.store.Get(ctx, CurrentFileName)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		name = strings.TrimSpace(string(current))
	}

	data, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", name, err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	return m, nil
}

// Save writes m as the next manifest version and points CURRENT at it.
// m.ID must hold the previous version (0 for the first save); it is
// incremented.
func (s *ManifestStore) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.ID++
	m.CreatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	name := manifestName(m.ID)
	if err := s.store.Put(ctx, name, data); err != nil {
		return err
	}
	return s.store.Put(ctx, CurrentFileName, []byte(name))
}

// ListVersions returns the IDs of all stored manifests in ascending order.
func (s *ManifestStore) ListVersions(ctx context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.store.List(ctx, ManifestFileName+"-")
	if err != nil {
		return nil, err
	}

	var ids []uint64
	for _, name := range names {
		var id uint64
		if _, err := fmt.Sscanf(name, ManifestFileName+"-%06d.json", &id); err != nil {
			continue // not a manifest
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteVersion deletes the manifest with the given ID. Index blobs are
// left alone.
func (s *ManifestStore) DeleteVersion(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Delete(ctx, manifestName(id))
}
