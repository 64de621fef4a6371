package utils

import "fmt"

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

// DescribeSecret returns a log-safe description of a secret: presence, length and a short prefix.
// Only the four-character type marker (ghu_, ghs_) of secrets longer than eight characters is shown.
func DescribeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	if len(secret) <= 8 {
		return fmt.Sprintf("<redacted> (len=%d)", len(secret))
	}
	return fmt.Sprintf("%s… (len=%d)", secret[:4], len(secret))
}
