package enums

import (
	"fmt"
	"strings"
)

// ChangeMode selects how a bulk rate or inventory change is applied.
type ChangeMode string

const (
	// ChangeModeFixed sets the value directly.
	ChangeModeFixed ChangeMode = "FIXED"
	// ChangeModePercent scales the current value by (1 + value/100).
	ChangeModePercent ChangeMode = "PERCENT"
	// ChangeModeAdd adds value to the current value.
	ChangeModeAdd ChangeMode = "ADD"
)

var validChangeModes = []ChangeMode{ChangeModeFixed, ChangeModePercent, ChangeModeAdd}

func (m ChangeMode) IsValid() bool {
	for _, candidate := range validChangeModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseChangeMode accepts any casing.
func ParseChangeMode(value string) (ChangeMode, error) {
	normalized := ChangeMode(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid change mode %q", value)
}
