package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Tariff holds the billing constants. Defaults are the Singapore rates
// (9% GST); regions override them from a YAML file or the environment.
type Tariff struct {
	TaxRate           decimal.Decimal
	LargeTruckType    string
	LargeTruckRate    decimal.Decimal
	StandardTruckRate decimal.Decimal
	PalletRate        decimal.Decimal
	HelperFee         decimal.Decimal
	PODFee            decimal.Decimal
	CurrencySymbol    string
}

func DefaultTariff() Tariff {
	return Tariff{
		TaxRate:           decimal.RequireFromString("0.09"),
		LargeTruckType:    "24FT",
		LargeTruckRate:    decimal.NewFromInt(150),
		StandardTruckRate: decimal.NewFromInt(80),
		PalletRate:        decimal.NewFromInt(15),
		HelperFee:         decimal.NewFromInt(40),
		PODFee:            decimal.NewFromInt(10),
		CurrencySymbol:    "$",
	}
}

// tariffFile mirrors Tariff with optional fields so a file may override
// only some of the defaults.
type tariffFile struct {
	TaxRate           *string `yaml:"tax_rate"`
	LargeTruckType    *string `yaml:"large_truck_type"`
	LargeTruckRate    *string `yaml:"large_truck_rate"`
	StandardTruckRate *string `yaml:"standard_truck_rate"`
	PalletRate        *string `yaml:"pallet_rate"`
	HelperFee         *string `yaml:"helper_fee"`
	PODFee            *string `yaml:"pod_fee"`
	CurrencySymbol    *string `yaml:"currency_symbol"`
}

// LoadTariff starts from the defaults, applies the YAML file at path (if any),
// then the TAX_RATE, PALLET_RATE, HELPER_FEE and POD_FEE environment overrides.
func LoadTariff(path string) (Tariff, error) {
	t := DefaultTariff()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Tariff{}, fmt.Errorf("load tariff: read %q: %w", path, err)
		}
		if err := t.applyYAML(data); err != nil {
			return Tariff{}, fmt.Errorf("load tariff: %q: %w", path, err)
		}
	}

	env := map[string]*decimal.Decimal{
		"TAX_RATE":    &t.TaxRate,
		"PALLET_RATE": &t.PalletRate,
		"HELPER_FEE":  &t.HelperFee,
		"POD_FEE":     &t.PODFee,
	}
	for key, dst := range env {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Tariff{}, fmt.Errorf("load tariff: %s %q: %w", key, v, err)
		}
		*dst = d
	}

	if err := t.Validate(); err != nil {
		return Tariff{}, fmt.Errorf("load tariff: %w", err)
	}
	return t, nil
}

func (t *Tariff) applyYAML(data []byte) error {
	var f tariffFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	amounts := []struct {
		name string
		src  *string
		dst  *decimal.Decimal
	}{
		{"tax_rate", f.TaxRate, &t.TaxRate},
		{"large_truck_rate", f.LargeTruckRate, &t.LargeTruckRate},
		{"standard_truck_rate", f.StandardTruckRate, &t.StandardTruckRate},
		{"pallet_rate", f.PalletRate, &t.PalletRate},
		{"helper_fee", f.HelperFee, &t.HelperFee},
		{"pod_fee", f.PODFee, &t.PODFee},
	}
	for _, a := range amounts {
		if a.src == nil {
			continue
		}
		d, err := decimal.NewFromString(*a.src)
		if err != nil {
			return fmt.Errorf("%s: %w", a.name, err)
		}
		*a.dst = d
	}

	if f.LargeTruckType != nil {
		t.LargeTruckType = *f.LargeTruckType
	}
	if f.CurrencySymbol != nil {
		t.CurrencySymbol = *f.CurrencySymbol
	}
	return nil
}

func (t Tariff) Validate() error {
	if t.TaxRate.IsNegative() || t.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate %s must be between 0 and 1", t.TaxRate)
	}
	for name, d := range map[string]decimal.Decimal{
		"large_truck_rate":    t.LargeTruckRate,
		"standard_truck_rate": t.StandardTruckRate,
		"pallet_rate":         t.PalletRate,
		"helper_fee":          t.HelperFee,
		"pod_fee":             t.PODFee,
	} {
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
