package ids

import "github.com/segmentio/ksuid"

// New returns a fresh sortable identifier. KSUIDs are 27 characters, which
// keeps "approve:<id>" well inside Telegram's 64-byte callback data limit.
func New() string {
	return ksuid.New().String()
}
