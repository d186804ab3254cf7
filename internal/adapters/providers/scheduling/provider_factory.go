package scheduling

import (
	"time"

	"github.com/carebridge/availability-sync/internal/domain/providers"
)

// SlotSourceConfig configures the EHR slot source.
type SlotSourceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewSlotSource creates the configured slot source, falling back to the
// mock adapter when no API key is present.
func NewSlotSource(cfg SlotSourceConfig) providers.SlotSource {
	if cfg.APIKey == "" {
		// No real EHR configured; use mock source for dev.
		return NewMockAdapter()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return NewEhrAdapter(cfg.BaseURL, cfg.APIKey, timeout)
}
