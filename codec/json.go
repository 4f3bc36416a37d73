package codec

import (
	"encoding/json"
)

// Default is the codec used for new snapshots.
var Default Codec = JSON{}

// JSON encodes with encoding/json. Index types implement json.Marshaler, and
// Compress recovers most of the size overhead.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }
