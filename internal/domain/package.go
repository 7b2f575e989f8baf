package domain

// PackageTypePallets is the package type that carries a pallet count.
const PackageTypePallets = "Pallets"

// Represents one cargo line loaded on a trip.
// PalletCount is required, and must be positive, only for Pallets.
type Package struct {
	PackageType string
	Quantity    int
	Volume      *float64
	PalletCount *int
}

func (p Package) IsPallets() bool { return p.PackageType == PackageTypePallets }

// TotalPallets sums the pallet counts of every Pallets package.
func TotalPallets(pkgs []Package) int {
	n := 0
	for _, p := range pkgs {
		if p.IsPallets() && p.PalletCount != nil && *p.PalletCount > 0 {
			n += *p.PalletCount
		}
	}
	return n
}
