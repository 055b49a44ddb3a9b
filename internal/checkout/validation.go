package checkout

import (
	"regexp"
	"strings"

	"storefront/internal/model"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// Normalize trims every field and fills in the default country.
func Normalize(info model.ShippingInfo) model.ShippingInfo {
	info.FullName = strings.TrimSpace(info.FullName)
	info.Email = strings.TrimSpace(info.Email)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)
	info.City = strings.TrimSpace(info.City)
	info.State = strings.TrimSpace(info.State)
	info.Pincode = strings.TrimSpace(info.Pincode)
	info.Country = strings.TrimSpace(info.Country)
	if info.Country == "" {
		info.Country = model.DefaultCountry
	}
	return info
}

// ValidateShipping checks info and returns one aggregated validation error, or nil.
// Missing fields are reported first, then the first malformed field.
func ValidateShipping(info model.ShippingInfo) error {
	info = Normalize(info)

	required := []struct {
		name  string
		value string
	}{
		{"fullName", info.FullName},
		{"email", info.Email},
		{"phone", info.Phone},
		{"address", info.Address},
		{"city", info.City},
		{"state", info.State},
		{"pincode", info.Pincode},
	}

	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return model.NewValidationError("Please fill in: " + strings.Join(missing, ", "))
	}

	if !ValidEmail(info.Email) {
		return model.NewValidationError("Please enter a valid email address")
	}
	if !phonePattern.MatchString(info.Phone) {
		return model.NewValidationError("Please enter a valid 10-digit phone number")
	}
	if !ValidPincode(info.Pincode) {
		return model.NewValidationError("Please enter a valid 6-digit pincode")
	}
	return nil
}

// ValidEmail reports whether s has a local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPincode reports whether s is a six digit pincode.
func ValidPincode(s string) bool {
	return pincodePattern.MatchString(s)
}
