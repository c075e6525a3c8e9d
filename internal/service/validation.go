package service

import (
	"fmt"
	"net/url"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
)

// ValidationError marks a request the caller can fix; the API maps it to a
// 400 response.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func validateURL(raw string) error {
	if raw == "" {
		return validationErrorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return validationErrorf("url is not parseable: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validationErrorf("url must be absolute with an http or https scheme")
	}
	if u.Host == "" {
		return validationErrorf("url must include a host")
	}
	return nil
}

// validateConfigs checks field values and rejects duplicate tuples, which
// would make per-config result updates ambiguous.
func validateConfigs(configs []audit.Config) error {
	for i, cfg := range configs {
		switch cfg.Device {
		case audit.DeviceMobile, audit.DeviceDesktop:
		default:
			return validationErrorf("configs[%d]: unknown device %q", i, cfg.Device)
		}
		switch cfg.Browser {
		case audit.BrowserChrome, audit.BrowserFirefox:
		default:
			return validationErrorf("configs[%d]: unknown browser %q", i, cfg.Browser)
		}
		if cfg.Location == "" {
			return validationErrorf("configs[%d]: location is required", i)
		}
		for j := 0; j < i; j++ {
			if configs[j].Equal(cfg) {
				return validationErrorf("configs[%d] duplicates configs[%d] (%s)", i, j, cfg)
			}
		}
	}
	return nil
}
