package queue

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"gopkg.in/yaml.v3"
)

// RoleRule controls what one observer role sees in its projected queue.
type RoleRule struct {
	Role         string `yaml:"role" json:"role"`
	ClinicScoped bool   `yaml:"clinic_scoped" json:"clinic_scoped"`
	MaskNames    bool   `yaml:"mask_names" json:"mask_names"`
	MaxEntries   int    `yaml:"max_entries" json:"max_entries"`
}

type RulesConfig struct {
	Roles []RoleRule `yaml:"roles" json:"roles"`
}

func LoadRules(path string) (RulesConfig, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RulesConfig{}, err
	}

	if len(cfg.Roles) == 0 {
		return RulesConfig{}, errors.New("no queue roles configured")
	}

	return cfg, nil
}

func DefaultRules() RulesConfig {
	return RulesConfig{Roles: []RoleRule{
		{Role: models.RoleAdmin, ClinicScoped: false},
		{Role: models.RoleReceptionist, ClinicScoped: false},
		{Role: models.RoleDoctor, ClinicScoped: true},
		{Role: models.RoleDisplay, ClinicScoped: false, MaskNames: true, MaxEntries: 20},
		{Role: models.RolePatient, ClinicScoped: false, MaskNames: true},
	}}
}

// ForRole returns the rule for role, falling back to a clinic-scoped rule so
// an unknown role never widens visibility.
func (c RulesConfig) ForRole(role string) RoleRule {
	for _, rule := range c.Roles {
		if rule.Role == role {
			return rule
		}
	}
	return RoleRule{Role: role, ClinicScoped: true}
}
