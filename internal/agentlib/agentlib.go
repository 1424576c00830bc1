// Package agentlib ships the built-in agent definition library. Each
// definition describes one specialist agent: what it is for, what it can
// do, and how callers should brief it. The call_agent tool resolves
// definitions by call name; manage_agent register copies them into a
// project roster.
package agentlib

import "strings"

// Definition describes one built-in agent.
type Definition struct {
	Name         string   `json:"name"`
	CallName     string   `json:"call_name"`
	Category     string   `json:"category"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
	Instructions string   `json:"instructions"`
}

var library = []Definition{
	{
		Name:     "Master Orchestrator",
		CallName: "master-orchestrator-agent",
		Category: "orchestration",
		Role:     "Coordinates multi-agent work across a branch and routes tasks to specialists.",
		Capabilities: []string{
			"workflow decomposition", "agent routing", "progress tracking", "context delegation",
		},
		Instructions: "Give it a goal, not a task list. It inspects the branch, creates tasks, assigns specialist agents and tracks completion. Escalate to it when work spans more than one specialty.",
	},
	{
		Name:     "Task Planner",
		CallName: "task-planning-agent",
		Category: "planning",
		Role:     "Breaks requirements into tasks and subtasks with dependencies and estimates.",
		Capabilities: []string{
			"requirement analysis", "task breakdown", "dependency mapping", "effort estimation",
		},
		Instructions: "Provide the requirement text and the target branch. It produces a task tree with dependency links and estimated effort, ready for assignment.",
	},
	{
		Name:     "Project Initiator",
		CallName: "project-initiator-agent",
		Category: "planning",
		Role:     "Bootstraps new projects: structure, conventions, initial branches and contexts.",
		Capabilities: []string{
			"project scaffolding", "convention setup", "initial context seeding",
		},
		Instructions: "Use once per project at the start. It creates the project, a main branch and a project context seeded with conventions.",
	},
	{
		Name:     "System Architect",
		CallName: "system-architect-agent",
		Category: "architecture",
		Role:     "Designs system structure, interfaces and data flow before implementation starts.",
		Capabilities: []string{
			"architecture design", "interface contracts", "technology selection", "tradeoff analysis",
		},
		Instructions: "Brief it with the problem and constraints. It returns a design with component boundaries and contracts, and records decisions in the project context.",
	},
	{
		Name:     "Coding Agent",
		CallName: "coding-agent",
		Category: "development",
		Role:     "Implements features and refactorings against an assigned task.",
		Capabilities: []string{
			"feature implementation", "refactoring", "code generation", "api integration",
		},
		Instructions: "Assign it a task with clear acceptance criteria. It implements, updates task progress, and records notable decisions as context insights.",
	},
	{
		Name:     "Debugger Agent",
		CallName: "debugger-agent",
		Category: "development",
		Role:     "Diagnoses failures, isolates root causes and lands fixes.",
		Capabilities: []string{
			"root cause analysis", "bug fixing", "regression isolation", "log analysis",
		},
		Instructions: "Give it the failing behavior and reproduction steps. It isolates the cause, fixes it and notes the root cause on the task.",
	},
	{
		Name:     "UI Specialist",
		CallName: "ui-specialist-agent",
		Category: "development",
		Role:     "Builds and adjusts user-facing interfaces and component styling.",
		Capabilities: []string{
			"component implementation", "styling", "accessibility", "responsive layout",
		},
		Instructions: "Point it at the screen or component involved. It implements the UI work and keeps styling consistent with the existing design system.",
	},
	{
		Name:     "Code Reviewer",
		CallName: "code-reviewer-agent",
		Category: "quality",
		Role:     "Reviews changes for correctness, style and maintainability before completion.",
		Capabilities: []string{
			"code review", "style enforcement", "defect detection",
		},
		Instructions: "Invoke it on a task in review status. It reads the change set, flags defects and either approves or pushes the task back with findings.",
	},
	{
		Name:     "Test Orchestrator",
		CallName: "test-orchestrator-agent",
		Category: "testing",
		Role:     "Plans and executes the test strategy for a task or branch.",
		Capabilities: []string{
			"test planning", "unit and integration testing", "coverage analysis",
		},
		Instructions: "Assign it alongside implementation tasks. It writes the tests, runs them and records outcomes in the task's testing notes.",
	},
	{
		Name:     "Performance Load Tester",
		CallName: "performance-load-tester-agent",
		Category: "testing",
		Role:     "Measures throughput and latency under load and finds bottlenecks.",
		Capabilities: []string{
			"load testing", "profiling", "bottleneck analysis",
		},
		Instructions: "Give it the endpoint or path to exercise and the target load. It reports measured numbers and the top bottlenecks.",
	},
	{
		Name:     "Security Auditor",
		CallName: "security-auditor-agent",
		Category: "security",
		Role:     "Audits code and configuration for vulnerabilities and unsafe patterns.",
		Capabilities: []string{
			"vulnerability scanning", "auth review", "dependency audit",
		},
		Instructions: "Run it before release or after auth-related changes. It reports findings ranked by severity with concrete remediations.",
	},
	{
		Name:     "DevOps Agent",
		CallName: "devops-agent",
		Category: "operations",
		Role:     "Owns build pipelines, deployment and runtime configuration.",
		Capabilities: []string{
			"ci configuration", "deployment", "environment management",
		},
		Instructions: "Use it for pipeline or deployment work. It changes CI and infrastructure configuration and verifies the pipeline passes.",
	},
	{
		Name:     "Deep Researcher",
		CallName: "deep-research-agent",
		Category: "research",
		Role:     "Investigates unknowns: libraries, protocols, prior art and feasibility.",
		Capabilities: []string{
			"literature search", "api exploration", "feasibility analysis",
		},
		Instructions: "Give it a question, not a task. It returns a findings summary with sources and records reusable knowledge as context insights.",
	},
	{
		Name:     "Documentation Agent",
		CallName: "documentation-agent",
		Category: "documentation",
		Role:     "Writes and maintains READMEs, API references and usage guides.",
		Capabilities: []string{
			"technical writing", "api documentation", "changelog maintenance",
		},
		Instructions: "Assign it after features land. It documents what shipped and keeps existing docs consistent with the change.",
	},
}

// All returns a copy of the built-in library.
func All() []Definition {
	out := make([]Definition, len(library))
	copy(out, library)
	return out
}

// Names returns the call names of every built-in agent.
func Names() []string {
	out := make([]string, len(library))
	for i, d := range library {
		out[i] = d.CallName
	}
	return out
}

// Find resolves a definition by call name. Historical callers used an @
// prefix, underscores instead of hyphens, and sometimes dropped the
// -agent suffix; all of those resolve to the canonical name.
func Find(name string) (Definition, bool) {
	n := Normalize(name)
	if n == "" {
		return Definition{}, false
	}
	for _, d := range library {
		if d.CallName == n {
			return d, true
		}
	}
	if !strings.HasSuffix(n, "-agent") {
		return Find(n + "-agent")
	}
	return Definition{}, false
}

// Normalize maps a user-supplied agent name onto the canonical call name
// spelling: lowercase, hyphenated, no @ prefix.
func Normalize(name string) string {
	n := strings.TrimSpace(name)
	n = strings.TrimPrefix(n, "@")
	n = strings.ToLower(n)
	n = strings.ReplaceAll(n, "_", "-")
	return n
}
