package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/warden-systems/warden/pkg/contracts"
)

// supportedSchema is the semver constraint a profile's schema_version must
// satisfy.
const supportedSchema = ">= 1.0.0, < 2.0.0"

// HierarchyProfile is one complete governed hierarchy loaded from YAML:
// the organization, its domains, and their agents. Agents come back with
// their RoleFamily already classified.
type HierarchyProfile struct {
	SchemaVersion string                 `yaml:"schema_version"`
	Organization  contracts.Organization `yaml:"-"`
	Domains       []contracts.Domain     `yaml:"-"`
	Agents        []contracts.Agent      `yaml:"-"`
}

// profileDoc is the raw YAML shape before conversion to contract types.
type profileDoc struct {
	SchemaVersion string `yaml:"schema_version" json:"schema_version"`
	Organization  struct {
		ID                 string   `yaml:"id" json:"id"`
		Name               string   `yaml:"name" json:"name"`
		AuthorityCeiling   int      `yaml:"authority_ceiling" json:"authority_ceiling"`
		Status             string   `yaml:"status" json:"status"`
		GlobalActions      []string `yaml:"global_actions" json:"global_actions,omitempty"`
		EscalationBaseline string   `yaml:"escalation_baseline" json:"escalation_baseline,omitempty"`
	} `yaml:"organization" json:"organization"`
	Domains []struct {
		ID                string   `yaml:"id" json:"id"`
		Name              string   `yaml:"name" json:"name"`
		AuthorityCeiling  int      `yaml:"authority_ceiling" json:"authority_ceiling"`
		AllowedCategories []string `yaml:"allowed_categories" json:"allowed_categories,omitempty"`
		EscalationPosture string   `yaml:"escalation_posture" json:"escalation_posture,omitempty"`
		Constraints       []string `yaml:"constraints" json:"constraints,omitempty"`
		Agents            []struct {
			ID                     string   `yaml:"id" json:"id"`
			Name                   string   `yaml:"name" json:"name"`
			Role                   string   `yaml:"role" json:"role"`
			AutonomyLevel          int      `yaml:"autonomy_level" json:"autonomy_level"`
			ExecutionSurface       string   `yaml:"execution_surface" json:"execution_surface"`
			ExecutionType          string   `yaml:"execution_type" json:"execution_type"`
			EscalationBehavior     string   `yaml:"escalation_behavior" json:"escalation_behavior"`
			Commitments            []string `yaml:"commitments" json:"commitments,omitempty"`
			OperationalConstraints []string `yaml:"operational_constraints" json:"operational_constraints,omitempty"`
		} `yaml:"agents" json:"agents,omitempty"`
	} `yaml:"domains" json:"domains"`
}

// profileSchema validates the structural shape of a hierarchy profile
// before conversion. Enum and range checks live here so a malformed file
// fails at load, not mid-derivation.
const profileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["schema_version", "organization"],
  "properties": {
    "schema_version": {"type": "string"},
    "organization": {
      "type": "object",
      "required": ["id", "name", "authority_ceiling"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string", "minLength": 1},
        "authority_ceiling": {"type": "integer", "minimum": 0},
        "status": {"enum": ["DRAFT", "LOCKED", ""]}
      }
    },
    "domains": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "authority_ceiling"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "authority_ceiling": {"type": "integer", "minimum": 0},
          "agents": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "name", "autonomy_level", "execution_surface", "execution_type"],
              "properties": {
                "autonomy_level": {"type": "integer", "minimum": 0},
                "execution_surface": {"enum": ["READ", "WRITE", "EXECUTE"]},
                "execution_type": {"enum": ["ADVISORY", "DECISION", "EXECUTION"]},
                "escalation_behavior": {"enum": ["AUTO", "HUMAN_REQUIRED", ""]}
              }
            }
          }
        }
      }
    }
  }
}`

// LoadHierarchyProfile reads, validates, and converts one hierarchy YAML
// file.
func LoadHierarchyProfile(path string) (*HierarchyProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load hierarchy profile: %w", err)
	}
	return ParseHierarchyProfile(data)
}

// ParseHierarchyProfile validates and converts raw profile YAML.
func ParseHierarchyProfile(data []byte) (*HierarchyProfile, error) {
	if err := validateAgainstSchema(data); err != nil {
		return nil, err
	}

	var doc profileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse hierarchy profile: %w", err)
	}

	if err := checkSchemaVersion(doc.SchemaVersion); err != nil {
		return nil, err
	}

	profile := &HierarchyProfile{
		SchemaVersion: doc.SchemaVersion,
		Organization: contracts.Organization{
			ID:                 doc.Organization.ID,
			Name:               doc.Organization.Name,
			AuthorityCeiling:   doc.Organization.AuthorityCeiling,
			Status:             contracts.OrgStatus(defaulted(doc.Organization.Status, string(contracts.OrgStatusDraft))),
			GlobalActions:      doc.Organization.GlobalActions,
			EscalationBaseline: contracts.EscalationBehavior(doc.Organization.EscalationBaseline),
		},
	}

	for _, d := range doc.Domains {
		categories := make([]contracts.ActionCategory, 0, len(d.AllowedCategories))
		for _, c := range d.AllowedCategories {
			categories = append(categories, contracts.ActionCategory(c))
		}
		profile.Domains = append(profile.Domains, contracts.Domain{
			ID:                d.ID,
			OrganizationID:    profile.Organization.ID,
			Name:              d.Name,
			AuthorityCeiling:  d.AuthorityCeiling,
			AllowedCategories: categories,
			EscalationPosture: contracts.EscalationBehavior(d.EscalationPosture),
			Constraints:       d.Constraints,
		})

		for _, a := range d.Agents {
			profile.Agents = append(profile.Agents, contracts.Agent{
				ID:                     a.ID,
				DomainID:               d.ID,
				Name:                   a.Name,
				Role:                   a.Role,
				RoleFamily:             contracts.ClassifyRole(a.Role),
				AutonomyLevel:          a.AutonomyLevel,
				ExecutionSurface:       contracts.ExecutionSurface(a.ExecutionSurface),
				ExecutionType:          contracts.ExecutionType(a.ExecutionType),
				EscalationBehavior:     contracts.EscalationBehavior(a.EscalationBehavior),
				Commitments:            a.Commitments,
				OperationalConstraints: a.OperationalConstraints,
			})
		}
	}

	return profile, nil
}

// AgentsIn returns the loaded agents belonging to one domain.
func (p *HierarchyProfile) AgentsIn(domainID string) []contracts.Agent {
	var out []contracts.Agent
	for _, a := range p.Agents {
		if a.DomainID == domainID {
			out = append(out, a)
		}
	}
	return out
}

// DomainByID returns a loaded domain by id.
func (p *HierarchyProfile) DomainByID(id string) (*contracts.Domain, error) {
	for i := range p.Domains {
		if p.Domains[i].ID == id {
			return &p.Domains[i], nil
		}
	}
	return nil, fmt.Errorf("domain %q not found in profile", id)
}

func validateAgainstSchema(data []byte) error {
	// The validator wants JSON-decoded values, so the YAML document goes
	// through a JSON round trip first.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse hierarchy profile: %w", err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode hierarchy profile: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return fmt.Errorf("decode hierarchy profile: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := "https://warden.schemas.local/hierarchy-profile.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(profileSchema)); err != nil {
		return fmt.Errorf("profile schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("profile schema compile failed: %w", err)
	}
	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("hierarchy profile rejected: %w", err)
	}
	return nil
}

func checkSchemaVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid schema_version %q: %w", version, err)
	}
	constraint, err := semver.NewConstraint(supportedSchema)
	if err != nil {
		return fmt.Errorf("invalid schema constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("schema_version %q outside supported range %q", version, supportedSchema)
	}
	return nil
}

func defaulted(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
