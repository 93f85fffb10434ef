package ids

import "github.com/segmentio/ksuid"

// New returns a sortable, url-safe identifier.
func New() string {
	return ksuid.New().String()
}
