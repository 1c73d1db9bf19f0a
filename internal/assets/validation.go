package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName rejects empty names and names holding '/', '\' or '.',
// so a style name can never select a file outside the styles directory or
// change its extension.
func ValidateAssetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
