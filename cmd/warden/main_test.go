package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testProfile = `
schema_version: "1.1.0"
organization:
  id: org-1
  name: Acme
  authority_ceiling: 3
  status: LOCKED
domains:
  - id: dom-1
    name: Infrastructure
    authority_ceiling: 3
    allowed_categories: [DATA_ACCESS, OPERATIONS, EXECUTION]
    agents:
      - id: agt-1
        name: ops-bot
        role: operations engineer
        autonomy_level: 2
        execution_surface: EXECUTE
        execution_type: EXECUTION
        escalation_behavior: HUMAN_REQUIRED
`

func writeProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hierarchy.yaml")
	if err := os.WriteFile(path, []byte(testProfile), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"warden", "version"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "warden ") {
		t.Errorf("unexpected version output: %q", stdout.String())
	}
}

func TestRun_NoCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"warden"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("usage not printed: %q", stderr.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"warden", "bogus"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Unknown command") {
		t.Errorf("missing unknown-command message: %q", stderr.String())
	}
}

func TestRun_Authority(t *testing.T) {
	path := writeProfile(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"warden", "authority", "-profile", path, "-agent", "agt-1"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}

	var out struct {
		Effective int `json:"effective_authority_level"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.Effective != 2 {
		t.Errorf("effective authority = %d, want 2", out.Effective)
	}
}

func TestRun_Authority_MissingAgent(t *testing.T) {
	path := writeProfile(t)

	var stdout, stderr bytes.Buffer
	if code := Run([]string{"warden", "authority", "-profile", path}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}

	stderr.Reset()
	code := Run([]string{"warden", "authority", "-profile", path, "-agent", "agt-9"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "not found") {
		t.Errorf("missing not-found message: %q", stderr.String())
	}
}

func TestRun_Actions(t *testing.T) {
	path := writeProfile(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"warden", "actions", "-profile", path, "-agent", "agt-1"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}

	var out struct {
		Surface struct {
			Entries []json.RawMessage `json:"entries"`
		} `json:"surface"`
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(out.Surface.Entries) != 5 {
		t.Errorf("surface entries = %d, want 5", len(out.Surface.Entries))
	}
	if len(out.Actions) == 0 {
		t.Error("expected a non-empty action catalogue")
	}
}

func TestRun_Evaluate(t *testing.T) {
	path := writeProfile(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"warden", "evaluate", "-profile", path, "-agent", "agt-1", "-action", "restart_service"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}

	var out struct {
		Verdict struct {
			Execution struct {
				Executed bool `json:"executed"`
			} `json:"execution"`
		} `json:"verdict"`
		Readiness struct {
			Summary string `json:"summary"`
		} `json:"readiness"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.Verdict.Execution.Executed {
		t.Error("verdicts never execute")
	}
	if out.Readiness.Summary == "" {
		t.Error("expected a readiness summary")
	}
}

func TestRun_Readiness(t *testing.T) {
	path := writeProfile(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"warden", "readiness", "-profile", path, "-agent", "agt-1", "-action", "restart_service"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}

	var out struct {
		State   string `json:"state"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.State == "" || out.Summary == "" {
		t.Errorf("incomplete readiness output: %+v", out)
	}
}

func TestRun_Evaluate_UnknownAction(t *testing.T) {
	path := writeProfile(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"warden", "evaluate", "-profile", path, "-agent", "agt-1", "-action", "launch_rocket"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "catalogue") {
		t.Errorf("missing catalogue message: %q", stderr.String())
	}
}
