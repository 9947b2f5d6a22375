package enums

import "fmt"

// MassType identifies the kind of mass an intention is purchased for.
type MassType string

const (
	MassTypeRegular      MassType = "regular"
	MassTypeRequiem      MassType = "requiem"
	MassTypeThanksgiving MassType = "thanksgiving"
	MassTypeGregorian    MassType = "gregorian"
	MassTypeWedding      MassType = "wedding"
)

var validMassTypes = []MassType{
	MassTypeRegular,
	MassTypeRequiem,
	MassTypeThanksgiving,
	MassTypeGregorian,
	MassTypeWedding,
}

// IsValid reports whether the value is a known MassType.
func (m MassType) IsValid() bool {
	for _, candidate := range validMassTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMassType converts raw input into a MassType.
func ParseMassType(value string) (MassType, error) {
	for _, candidate := range validMassTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mass type %q", value)
}

// PriceCents returns the list price of a mass type in grosz.
func (m MassType) PriceCents() int {
	switch m {
	case MassTypeGregorian:
		return 150000
	case MassTypeWedding:
		return 60000
	case MassTypeRequiem, MassTypeThanksgiving:
		return 7000
	default:
		return 5000
	}
}
