package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// identitiesDoc is the on-disk layout of the identities file:
//
//	identities:
//	  - username: user
//	    password: password
//	    roles: []
type identitiesDoc struct {
	Identities []IdentityConfig `yaml:"identities"`
}

// LoadIdentities reads identities from path. An empty path yields DefaultIdentities.
func LoadIdentities(path string) ([]IdentityConfig, error) {
	if path == "" {
		return DefaultIdentities(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identities file %s: %w", path, err)
	}
	return parseIdentities(b)
}

func parseIdentities(b []byte) ([]IdentityConfig, error) {
	var doc identitiesDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("identities file is malformed: %w", err)
	}
	if len(doc.Identities) == 0 {
		return nil, fmt.Errorf("identities file defines no identities")
	}
	for i := range doc.Identities {
		if doc.Identities[i].Username == "" {
			return nil, fmt.Errorf("identity #%d: username is required", i+1)
		}
		if doc.Identities[i].Roles == nil {
			doc.Identities[i].Roles = []string{}
		}
	}
	return doc.Identities, nil
}
