// Command warden inspects a governed hierarchy from the command line: it
// loads a hierarchy profile and prints authority, action, verdict, and
// readiness derivations as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/warden-systems/warden/pkg/config"
	"github.com/warden-systems/warden/pkg/contracts"
	"github.com/warden-systems/warden/pkg/engine"
)

const version = "1.0.0"

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "authority":
		return runAuthority(args[2:], stdout, stderr)
	case "actions":
		return runActions(args[2:], stdout, stderr)
	case "readiness":
		return runReadiness(args[2:], stdout, stderr)
	case "evaluate":
		return runEvaluate(args[2:], stdout, stderr)
	case "version":
		_, _ = fmt.Fprintf(stdout, "warden %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: warden <command> [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  authority  -profile <file> -agent <id>                 derive the agent's effective authority")
	_, _ = fmt.Fprintln(w, "  actions    -profile <file> -agent <id>                 derive the agent's action surface and catalogue")
	_, _ = fmt.Fprintln(w, "  readiness  -profile <file> -agent <id> -action <name>  derive execution readiness for one action")
	_, _ = fmt.Fprintln(w, "  evaluate   -profile <file> -agent <id> -action <name>  derive verdict and readiness for one action")
	_, _ = fmt.Fprintln(w, "  version    print the version")
}

// loadSubject resolves the profile, agent, and its domain for a command.
func loadSubject(fs *flag.FlagSet, args []string, stderr io.Writer) (*config.HierarchyProfile, *contracts.Domain, *contracts.Agent, int) {
	profilePath := fs.String("profile", "hierarchy.yaml", "path to the hierarchy profile YAML")
	agentID := fs.String("agent", "", "agent id within the profile")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, 2
	}
	if *agentID == "" {
		_, _ = fmt.Fprintln(stderr, "missing required -agent flag")
		return nil, nil, nil, 2
	}

	profile, err := config.LoadHierarchyProfile(*profilePath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return nil, nil, nil, 1
	}

	for i := range profile.Agents {
		if profile.Agents[i].ID == *agentID {
			agent := &profile.Agents[i]
			dom, err := profile.DomainByID(agent.DomainID)
			if err != nil {
				_, _ = fmt.Fprintln(stderr, err)
				return nil, nil, nil, 1
			}
			return profile, dom, agent, 0
		}
	}
	_, _ = fmt.Fprintf(stderr, "agent %q not found in profile\n", *agentID)
	return nil, nil, nil, 1
}

func newEngine(stderr io.Writer) (*engine.Engine, int) {
	eng, err := engine.New(engine.Options{})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return nil, 1
	}
	return eng, 0
}

func printJSON(stdout io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return 1
	}
	return 0
}

func runAuthority(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("authority", flag.ContinueOnError)
	fs.SetOutput(stderr)
	profile, dom, agent, code := loadSubject(fs, args, stderr)
	if code != 0 {
		return code
	}
	eng, code := newEngine(stderr)
	if code != 0 {
		return code
	}

	auth := eng.AgentAuthority(context.Background(), &profile.Organization, dom, agent)
	return printJSON(stdout, auth)
}

func runActions(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("actions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	profile, dom, agent, code := loadSubject(fs, args, stderr)
	if code != 0 {
		return code
	}
	eng, code := newEngine(stderr)
	if code != 0 {
		return code
	}

	ctx := context.Background()
	auth := eng.AgentAuthority(ctx, &profile.Organization, dom, agent)
	out := struct {
		Surface *contracts.ActionSurface `json:"surface"`
		Actions []contracts.DoAction     `json:"actions"`
	}{
		Surface: eng.ActionSurface(ctx, agent, auth),
		Actions: eng.DoActions(ctx, agent, auth),
	}
	return printJSON(stdout, out)
}

// deriveForAction runs the read path up to readiness for one named
// catalogue action.
func deriveForAction(name string, args []string, stderr io.Writer) (*contracts.DoAction, *contracts.RuntimeVerdict, *contracts.ExecutionReadiness, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	actionName := fs.String("action", "", "catalogue action name")

	// Parse happens inside loadSubject; the action flag is registered first
	// so it participates.
	profile, dom, agent, code := loadSubject(fs, args, stderr)
	if code != 0 {
		return nil, nil, nil, code
	}
	if *actionName == "" {
		_, _ = fmt.Fprintln(stderr, "missing required -action flag")
		return nil, nil, nil, 2
	}
	eng, code := newEngine(stderr)
	if code != 0 {
		return nil, nil, nil, code
	}

	ctx := context.Background()
	auth := eng.AgentAuthority(ctx, &profile.Organization, dom, agent)

	var action *contracts.DoAction
	for _, da := range eng.DoActions(ctx, agent, auth) {
		if da.Spec.Name == *actionName {
			found := da
			action = &found
			break
		}
	}
	if action == nil {
		_, _ = fmt.Fprintf(stderr, "action %q is not in the agent's catalogue\n", *actionName)
		return nil, nil, nil, 1
	}

	verdict := eng.Verdict(ctx, &profile.Organization, dom, agent, *action, auth)
	readiness := eng.Readiness(ctx, agent, dom, *action, auth, verdict)
	return action, verdict, readiness, 0
}

func runReadiness(args []string, stdout, stderr io.Writer) int {
	_, _, readiness, code := deriveForAction("readiness", args, stderr)
	if code != 0 {
		return code
	}
	return printJSON(stdout, readiness)
}

func runEvaluate(args []string, stdout, stderr io.Writer) int {
	action, verdict, readiness, code := deriveForAction("evaluate", args, stderr)
	if code != 0 {
		return code
	}
	out := struct {
		Action    contracts.DoAction            `json:"action"`
		Verdict   *contracts.RuntimeVerdict     `json:"verdict"`
		Readiness *contracts.ExecutionReadiness `json:"readiness"`
	}{*action, verdict, readiness}
	return printJSON(stdout, out)
}
