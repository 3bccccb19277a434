// Package validation provides input validation for the MedSafe API.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/interfaces"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Medication names: alphanumeric + Latin accents + safe punctuation
	nameRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'àáâãäéèêëíïîóôõöúùûüÿçñ]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

const (
	maxNameLength  = 200
	maxListEntries = 50
	maxAge         = 150
	maxWeightKg    = 500.0
)

// InputValidator implements the interfaces.Validator interface.
type InputValidator struct{}

// NewValidator creates a new input validator.
func NewValidator() interfaces.Validator {
	return &InputValidator{}
}

// ValidateMedicationName checks a caller-supplied medication name.
func (v *InputValidator) ValidateMedicationName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("medication name is empty")
	}
	if len(trimmed) > maxNameLength {
		return fmt.Errorf("medication name too long: %d characters", len(trimmed))
	}
	if err := checkDangerous(trimmed); err != nil {
		return fmt.Errorf("medication name: %w", err)
	}
	if !nameRegex.MatchString(trimmed) {
		return fmt.Errorf("medication name contains unsupported characters")
	}
	return nil
}

// ValidateProfile checks the patient profile before analysis.
func (v *InputValidator) ValidateProfile(profile *entities.PatientProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}

	if profile.Age < 0 || profile.Age > maxAge {
		return fmt.Errorf("invalid age: %d", profile.Age)
	}

	if profile.Weight != nil && (*profile.Weight <= 0 || *profile.Weight > maxWeightKg) {
		return fmt.Errorf("invalid weight: %.1f", *profile.Weight)
	}

	for _, list := range []struct {
		name    string
		entries []string
	}{
		{"conditions", profile.Conditions},
		{"allergies", profile.Allergies},
		{"current_medications", profile.CurrentMedications},
	} {
		if len(list.entries) > maxListEntries {
			return fmt.Errorf("too many %s: %d", list.name, len(list.entries))
		}
		for _, entry := range list.entries {
			if len(entry) > maxNameLength {
				return fmt.Errorf("%s entry too long: %d characters", list.name, len(entry))
			}
			if err := checkDangerous(entry); err != nil {
				return fmt.Errorf("%s entry: %w", list.name, err)
			}
		}
	}

	return nil
}

func checkDangerous(input string) error {
	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("contains disallowed sequence")
		}
	}
	return nil
}
