package settings

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders the snapshot as a mapping in registry order. Secret
// values are masked.
func (s *Settings) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range s.Names() {
		field, _ := Lookup(name)
		value, _ := s.Get(name)

		var valueNode yaml.Node
		if err := valueNode.Encode(renderValue(field, value)); err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&valueNode,
		)
	}
	return node, nil
}

func renderValue(field Field, value any) any {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case []string:
		if v == nil {
			return []string{}
		}
		return v
	case string:
		if field.Secret && v != "" {
			return maskSecret(v)
		}
		return v
	default:
		return v
	}
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-4)
}
