package util

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var componentName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateComponentName checks that name can be used both as a file name and
// as a CSS class. Path separators, dots and whitespace are rejected.
func ValidateComponentName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name %q contains a path separator", name)
	}
	if !componentName.MatchString(name) {
		return fmt.Errorf("name %q must start with a letter or digit and contain only letters, digits, '-' or '_'", name)
	}
	return nil
}

// ValidateID checks a task or pipeline identifier. Identifiers are free-form
// (grunt-style "copy:theme" is fine) but must be non-empty and contain no
// whitespace or control characters.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("identifier is empty")
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("identifier %q contains whitespace", id)
		}
	}
	if strings.HasPrefix(id, "!") {
		return fmt.Errorf("identifier %q must not start with '!'", id)
	}
	return nil
}
