// Package guard flips the service into test mode for any test binary
// that imports it, keeping command entrypoints from binding sockets or
// dialing external services under go test.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("AUTHZ_TEST_MODE") == "" {
			_ = os.Setenv("AUTHZ_TEST_MODE", "1")
		}
	})
}
