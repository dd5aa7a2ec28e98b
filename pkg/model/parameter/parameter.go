package parameter

// Parameter is a named configuration value with a closed set of allowed options.
type Parameter struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Current     string   `json:"current"`
	Options     []string `json:"options"`
	Description string   `json:"description"`
	DisplayName string   `json:"displayName"`
	// Labels maps option labels shown to users to the option values.
	Labels map[string]string `json:"labels,omitempty"`
}

// Key returns the "category.name" identifier of the parameter.
func (p *Parameter) Key() string {
	return Key(p.Category, p.Name)
}

// HasOption tells whether value is one of the allowed options.
func (p *Parameter) HasOption(value string) bool {
	for _, option := range p.Options {
		if option == value {
			return true
		}
	}
	return false
}

func (p *Parameter) clone() *Parameter {
	c := *p
	c.Options = append([]string(nil), p.Options...)
	if p.Labels != nil {
		c.Labels = make(map[string]string, len(p.Labels))
		for label, value := range p.Labels {
			c.Labels[label] = value
		}
	}
	return &c
}

// Key builds the "category.name" identifier of a parameter.
func Key(category string, name string) string {
	return category + "." + name
}
