package sbrf

import "strings"

const (
	DefaultTestBaseURL       = "https://3dsec.sberbank.ru/payment/rest/"
	DefaultProductionBaseURL = "https://securepayments.sberbank.ru/payment/rest/"
)

// Config holds the merchant credentials and endpoint selection shared by every call.
type Config struct {
	UserName string
	Password string
	TestMode bool

	// ReturnURL and FailURL fill the matching register fields when a request leaves them empty.
	ReturnURL string
	FailURL   string

	// Empty values fall back to the public sandbox and production hosts.
	TestBaseURL       string
	ProductionBaseURL string
}

// BaseURL returns the REST root selected by TestMode, always ending in a slash.
func (c Config) BaseURL() string {
	base := c.ProductionBaseURL
	fallback := DefaultProductionBaseURL
	if c.TestMode {
		base = c.TestBaseURL
		fallback = DefaultTestBaseURL
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return fallback
	}
	return strings.TrimRight(base, "/") + "/"
}

func (c Config) check() error {
	var missing []string
	if c.UserName == "" {
		missing = append(missing, "user name")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
