package gateway

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("invalid gateway config")

const (
	// DefaultCustomerName is used when neither the request nor the purchase carries a name.
	DefaultCustomerName = "Usuário Teste"

	// DefaultProductID is the product stamped on simulated purchases.
	DefaultProductID = "teacher-poli-course"
)

// Config controls gateway policy.
type Config struct {
	// RequireActivePurchase makes CheckPurchase, CreatePassword and Login
	// reject purchases whose status is not active. When false, the existence
	// of a purchase record alone is sufficient.
	RequireActivePurchase bool

	// DefaultName fills in missing customer names.
	DefaultName string

	// DefaultProductID is stamped on simulated purchases without a product.
	DefaultProductID string
}

// DefaultConfig returns the strict policy.
func DefaultConfig() Config {
	return Config{
		RequireActivePurchase: true,
		DefaultName:           DefaultCustomerName,
		DefaultProductID:      DefaultProductID,
	}
}

// LoadConfigFromEnv reads:
//   - POLI_AUTH_REQUIRE_ACTIVE_PURCHASE (bool, default true)
//   - POLI_DEFAULT_CUSTOMER_NAME
//   - POLI_DEFAULT_PRODUCT_ID
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("POLI_AUTH_REQUIRE_ACTIVE_PURCHASE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.RequireActivePurchase = b
	}
	if v := strings.TrimSpace(os.Getenv("POLI_DEFAULT_CUSTOMER_NAME")); v != "" {
		cfg.DefaultName = v
	}
	if v := strings.TrimSpace(os.Getenv("POLI_DEFAULT_PRODUCT_ID")); v != "" {
		cfg.DefaultProductID = v
	}

	return cfg, nil
}
