// Package codec centralizes snapshot encoding and compression.
//
// Codec selection is a breaking-change boundary: persisted manifests record
// the codec name and compression type so that older snapshots keep decoding.
package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Codec{
		JSON{}.Name(): JSON{},
	}
)

// Register makes c available to ByName, so snapshots written with a custom
// codec can be loaded again. Registering a name twice panics.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[c.Name()]; dup {
		panic(fmt.Sprintf("codec: %q registered twice", c.Name()))
	}
	registry[c.Name()] = c
}

// ByName returns a registered codec by its stable name.
func ByName(name string) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	c, ok := registry[name]
	return c, ok
}

// Names lists the registered codecs.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
