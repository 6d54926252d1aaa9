// Package phiana holds the configuration, logging and flag handling shared
// by the reconstruction commands.
package phiana

import (
	"fmt"
	"strings"
)

// SelectionFlags collects repeated or comma-separated -select values. The
// first Set replaces any default list.
type SelectionFlags struct {
	Names   []string
	beenSet bool
}

func (f *SelectionFlags) Set(valueStr string) error {
	if !f.beenSet {
		f.beenSet = true
		f.Names = nil
	}

	for _, name := range strings.Split(valueStr, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("empty selection in %q", valueStr)
		}
		f.Names = append(f.Names, name)
	}
	return nil
}

func (f *SelectionFlags) String() string {
	return strings.Join(f.Names, ",")
}

// IsSet reports whether the flag appeared on the command line.
func (f *SelectionFlags) IsSet() bool {
	return f.beenSet
}
