package payment

import "strings"

// NormalizePhone converts a locally formatted phone number to international
// format before it is submitted to a gateway. A leading national trunk "0" is
// replaced by the country calling code; numbers already carrying "+" pass
// through unchanged. countryCode is expected in "+254" form.
func NormalizePhone(phone, countryCode string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if cleaned == "" {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "0") {
		return countryCode + cleaned[1:]
	}
	if strings.HasPrefix(cleaned, strings.TrimPrefix(countryCode, "+")) {
		return "+" + cleaned
	}
	return countryCode + cleaned
}
