package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/ganbootstrap/internal/config"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. Logs are
// captured at debug level and printed when GANBOOT_TEST_LOGS is "true".
func SetupAppTest(t *testing.T, appConfig *Config, loader config.Loader, opts ...Option) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	if appConfig.LogLevel == "" {
		appConfig.LogLevel = "debug"
	}
	testApp := NewApp(logBuffer, appConfig, loader, opts...)

	t.Cleanup(func() {
		if os.Getenv("GANBOOT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
