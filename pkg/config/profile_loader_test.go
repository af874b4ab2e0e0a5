package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-systems/warden/pkg/contracts"
)

const validProfile = `
schema_version: "1.1.0"
organization:
  id: org-1
  name: Acme
  authority_ceiling: 3
  status: LOCKED
domains:
  - id: dom-1
    name: Infrastructure
    authority_ceiling: 2
    allowed_categories: [DATA_ACCESS, OPERATIONS, EXECUTION]
    escalation_posture: HUMAN_REQUIRED
    agents:
      - id: agt-1
        name: ops-bot
        role: operations engineer
        autonomy_level: 2
        execution_surface: EXECUTE
        execution_type: EXECUTION
        escalation_behavior: HUMAN_REQUIRED
        commitments:
          - must not delete customer records
  - id: dom-2
    name: Reporting
    authority_ceiling: 1
    allowed_categories: [DATA_ACCESS, REPORTING]
    agents:
      - id: agt-2
        name: report-bot
        role: research analyst
        autonomy_level: 1
        execution_surface: READ
        execution_type: ADVISORY
`

func TestParseHierarchyProfile(t *testing.T) {
	profile, err := ParseHierarchyProfile([]byte(validProfile))
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", profile.SchemaVersion)
	assert.Equal(t, 3, profile.Organization.AuthorityCeiling)
	assert.Equal(t, contracts.OrgStatusLocked, profile.Organization.Status)

	require.Len(t, profile.Domains, 2)
	assert.Equal(t, "org-1", profile.Domains[0].OrganizationID)
	assert.True(t, profile.Domains[0].AllowsCategory(contracts.CategoryExecution))
	assert.False(t, profile.Domains[1].AllowsCategory(contracts.CategoryExecution))

	require.Len(t, profile.Agents, 2)
	assert.Equal(t, "dom-1", profile.Agents[0].DomainID)
	assert.Equal(t, []string{"must not delete customer records"}, profile.Agents[0].Commitments)
}

func TestParseHierarchyProfile_ClassifiesRolesAtLoad(t *testing.T) {
	profile, err := ParseHierarchyProfile([]byte(validProfile))
	require.NoError(t, err)

	assert.Equal(t, contracts.FamilyOperations, profile.Agents[0].RoleFamily)
	assert.Equal(t, contracts.FamilyAnalytics, profile.Agents[1].RoleFamily)
}

func TestParseHierarchyProfile_SchemaVersionGate(t *testing.T) {
	tooNew := []byte(`
schema_version: "2.0.0"
organization:
  id: org-1
  name: Acme
  authority_ceiling: 3
`)
	_, err := ParseHierarchyProfile(tooNew)
	assert.ErrorContains(t, err, "outside supported range")

	garbage := []byte(`
schema_version: "not-a-version"
organization:
  id: org-1
  name: Acme
  authority_ceiling: 3
`)
	_, err = ParseHierarchyProfile(garbage)
	assert.ErrorContains(t, err, "invalid schema_version")
}

func TestParseHierarchyProfile_SchemaValidation(t *testing.T) {
	missingCeiling := []byte(`
schema_version: "1.0.0"
organization:
  id: org-1
  name: Acme
`)
	_, err := ParseHierarchyProfile(missingCeiling)
	assert.ErrorContains(t, err, "rejected")

	badSurface := []byte(`
schema_version: "1.0.0"
organization:
  id: org-1
  name: Acme
  authority_ceiling: 3
domains:
  - id: dom-1
    name: Infra
    authority_ceiling: 2
    agents:
      - id: agt-1
        name: bot
        autonomy_level: 2
        execution_surface: SUDO
        execution_type: EXECUTION
`)
	_, err = ParseHierarchyProfile(badSurface)
	assert.ErrorContains(t, err, "rejected")
}

func TestLoadHierarchyProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hierarchy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validProfile), 0o600))

	profile, err := LoadHierarchyProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.Organization.Name)

	_, err = LoadHierarchyProfile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestProfileLookups(t *testing.T) {
	profile, err := ParseHierarchyProfile([]byte(validProfile))
	require.NoError(t, err)

	dom, err := profile.DomainByID("dom-2")
	require.NoError(t, err)
	assert.Equal(t, "Reporting", dom.Name)

	_, err = profile.DomainByID("dom-9")
	assert.Error(t, err)

	agents := profile.AgentsIn("dom-1")
	require.Len(t, agents, 1)
	assert.Equal(t, "agt-1", agents[0].ID)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PROFILE_DIR", "")
	t.Setenv("TELEMETRY", "")

	cfg := Load()
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "profiles", cfg.ProfileDir)
	assert.False(t, cfg.Telemetry)

	t.Setenv("TELEMETRY", "true")
	assert.True(t, Load().Telemetry)
}
