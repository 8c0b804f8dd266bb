// Package testing switches the application into test mode when imported by
// test binaries.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("PROVEEDORES_TEST_MODE", "1")
		// Never reach the published seed or a real renderer from tests.
		if os.Getenv("SEED_URL") == "" {
			_ = os.Setenv("SEED_URL", "http://127.0.0.1:0/proveedores.json")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
