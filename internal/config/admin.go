package config

import (
	"fmt"
	"strings"
)

// DefaultTaxRate is the withholding percentage used when none is saved.
const DefaultTaxRate = 3.3

// AdminConfig is the operator-editable configuration the console persists
// under the "adminConfig" storage key.
type AdminConfig struct {
	// SupabaseURL and SupabaseKey enable the REST remote.
	SupabaseURL string `json:"supabaseUrl" validate:"omitempty,url"`
	SupabaseKey string `json:"supabaseKey"`

	// DatabaseURL enables the direct Postgres remote instead.
	DatabaseURL string `json:"databaseUrl,omitempty"`

	// TaxRate is the withholding percentage. Zero means DefaultTaxRate.
	TaxRate float64 `json:"taxRate" validate:"gte=0,lte=100"`
}

// Normalize trims inputs and applies the default tax rate.
func (c AdminConfig) Normalize() AdminConfig {
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	c.SupabaseKey = strings.TrimSpace(c.SupabaseKey)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	if c.TaxRate == 0 {
		c.TaxRate = DefaultTaxRate
	}
	return c
}

// Validate checks field formats and bounds.
func (c AdminConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid admin config: %w", err)
	}
	if (c.SupabaseURL == "") != (c.SupabaseKey == "") {
		return fmt.Errorf("invalid admin config: supabase url and key must be set together")
	}
	return nil
}

// RemoteConfigured reports whether any remote backend is configured.
func (c AdminConfig) RemoteConfigured() bool {
	return c.DatabaseURL != "" || (c.SupabaseURL != "" && c.SupabaseKey != "")
}

// MaskedKey returns the key with all but the last four characters hidden.
func (c AdminConfig) MaskedKey() string {
	if len(c.SupabaseKey) <= 4 {
		return strings.Repeat("*", len(c.SupabaseKey))
	}
	return strings.Repeat("*", len(c.SupabaseKey)-4) + c.SupabaseKey[len(c.SupabaseKey)-4:]
}
