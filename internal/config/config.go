package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"shiprates/internal/catalog"
)

// Catalog sources.
const (
	SourceBuiltin  = "builtin"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type Config struct {
	DatabaseURL   string
	Port          string
	LogLevel      string
	CatalogSource string
	CatalogFile   string

	// Raw policy values; parsed by Policy.
	MarkupPercent         string
	FreeShippingThreshold string
	FixedShippingPrice    string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	source := strings.ToLower(strings.TrimSpace(os.Getenv("CATALOG_SOURCE")))
	if source == "" {
		source = SourceBuiltin
	}
	return Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		Port:                  port,
		LogLevel:              os.Getenv("LOG_LEVEL"),
		CatalogSource:         source,
		CatalogFile:           os.Getenv("CATALOG_FILE"),
		MarkupPercent:         os.Getenv("SHIPPING_MARKUP_PERCENT"),
		FreeShippingThreshold: os.Getenv("FREE_SHIPPING_THRESHOLD"),
		FixedShippingPrice:    os.Getenv("FIXED_SHIPPING_PRICE"),
	}
}

// Validate checks that the selected catalog source has what it needs.
func (c Config) Validate() error {
	switch c.CatalogSource {
	case SourceBuiltin:
	case SourceFile:
		if strings.TrimSpace(c.CatalogFile) == "" {
			return errors.New("CATALOG_FILE not set for CATALOG_SOURCE=file")
		}
	case SourcePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL not set for CATALOG_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q", c.CatalogSource)
	}
	return nil
}

// Policy parses the shipping policy used with the builtin catalog. Empty
// values leave the setting unset.
func (c Config) Policy() (catalog.Policy, error) {
	var p catalog.Policy
	markup, err := parseOptional("SHIPPING_MARKUP_PERCENT", c.MarkupPercent)
	if err != nil {
		return p, err
	}
	if markup != nil {
		p.MarkupPercent = *markup
	}
	if p.FreeShippingThreshold, err = parseOptional("FREE_SHIPPING_THRESHOLD", c.FreeShippingThreshold); err != nil {
		return p, err
	}
	if p.FixedShippingPrice, err = parseOptional("FIXED_SHIPPING_PRICE", c.FixedShippingPrice); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func parseOptional(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &f, nil
}
