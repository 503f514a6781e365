package store

import _ "embed"

//go:embed defaults/workflows.json
var defaultDataset []byte

// DefaultDataset returns the bundled workflow used when nothing has been
// persisted.
func DefaultDataset() []byte {
	return append([]byte(nil), defaultDataset...)
}
