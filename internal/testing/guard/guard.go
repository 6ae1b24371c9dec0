// Package guard switches the process into test mode when imported, so
// binaries under test skip connecting to real backends.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("SALESOPS_TEST_MODE") == "" {
			_ = os.Setenv("SALESOPS_TEST_MODE", "1")
		}
	})
}
