package recipients

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/target/gha-notifier/internal/errors"
)

// document is the subset of a per-repository configuration file we read.
//
//	jobs: dev@foo.apache.org
//
// or
//
//	jobs:
//	  - dev@foo.apache.org
//	  - builds@foo.apache.org
type document struct {
	Jobs addressList `yaml:"jobs"`
}

type addressList []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (l *addressList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = addressList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(addressList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: jobs entries must be strings", item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: jobs must be a string or a list of strings", node.Line)
	}
}

// parseDocument extracts the cleaned notification addresses from data.
// A document without a jobs key yields no addresses and no error.
func parseDocument(data []byte) ([]string, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "parse recipient document")
	}

	var addrs []string
	for _, a := range doc.Jobs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs, nil
}
