package approval

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength = 2
	maxNameLength = 255
)

const forbiddenNameChars = `/\:*?"<>|`

// FinalizeName validates a reviewer-supplied display name and resolves the
// final filename. A name without an extension inherits the original file's
// extension; a name with one is used verbatim.
func FinalizeName(name, originalName string) (string, error) {
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) < minNameLength {
		return "", &ValidationError{
			Reason: fmt.Sprintf("name must be at least %d characters", minNameLength),
		}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", &ValidationError{
			Reason: fmt.Sprintf("name must be at most %d characters", maxNameLength),
		}
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return "", &ValidationError{
			Reason: fmt.Sprintf("name must not contain any of %s", forbiddenNameChars),
		}
	}

	if !strings.Contains(name, ".") {
		if ext := path.Ext(originalName); ext != "" {
			return name + strings.ToLower(ext), nil
		}
	}
	return name, nil
}
