package parameter

import (
	"strings"
)

// Mapper converts an option label into a parameter value.
// It reports false if it does not know the label.
type Mapper func(label string) (string, bool)

// LabelMapper returns a Mapper backed by a fixed label table.
func LabelMapper(labels map[string]string) Mapper {
	return func(label string) (string, bool) {
		value, exists := labels[label]
		return value, exists
	}
}

// OptionMapper returns a Mapper matching labels case-insensitively against the options.
// Spaces in the label match dashes in the option, so "Very High" maps to "very-high".
func OptionMapper(options []string) Mapper {
	return func(label string) (string, bool) {
		normalized := strings.ReplaceAll(strings.TrimSpace(label), " ", "-")
		for _, option := range options {
			if strings.EqualFold(option, normalized) {
				return option, true
			}
		}
		return "", false
	}
}

// chain tries the mappers in order.
func chain(mappers ...Mapper) Mapper {
	return func(label string) (string, bool) {
		for _, m := range mappers {
			if m == nil {
				continue
			}
			if value, ok := m(label); ok {
				return value, true
			}
		}
		return "", false
	}
}

// TitleLabel converts an option value into its default display label ("very-high" -> "Very High").
func TitleLabel(value string) string {
	words := strings.FieldsFunc(value, func(r rune) bool { return r == '-' || r == '_' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
