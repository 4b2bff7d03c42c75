// Package guard switches the binaries into test mode when imported by tests,
// so no test ever opens Redis, Gotenberg or a listening socket by accident.
package guard

import (
	"os"
	"sync"
)

// EnvTestMode is the variable read by app.InTestMode.
const EnvTestMode = "WEBCANTEEN_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(EnvTestMode) == "" {
			_ = os.Setenv(EnvTestMode, "1")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}
