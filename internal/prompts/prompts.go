// Package prompts implements the MCP prompts: canned conversation
// starters that walk a client through the common task workflows.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// NextTaskPrompt handles the next-task MCP prompt. It instructs the AI
// to pick up the most actionable task on a branch and start working.
type NextTaskPrompt struct{}

// NewNextTaskPrompt creates a NextTaskPrompt.
func NewNextTaskPrompt() *NextTaskPrompt {
	return &NextTaskPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *NextTaskPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("next-task",
		mcp.WithPromptDescription(
			"Pick up the next actionable task on a branch: the highest-priority "+
				"task whose dependencies are all done.",
		),
		mcp.WithArgument("git_branch_id",
			mcp.ArgumentDescription("The branch to pull work from"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the next-task prompt request.
func (p *NextTaskPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	branchID := req.Params.Arguments["git_branch_id"]
	return &mcp.GetPromptResult{
		Description: "Pick up the next task",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Run `manage_task` with action=next and git_branch_id=" + branchID + ".\n\n" +
						"Then:\n" +
						"1. Move the recommended task to in_progress with action=update\n" +
						"2. Run `manage_context` action=resolve at task level to pick up inherited context\n" +
						"3. Break the work into subtasks with `manage_subtask` if it needs more than one step\n" +
						"4. Start on the first subtask, updating progress_percentage as you go",
				),
			},
		},
	}, nil
}

// ProjectStatusPrompt handles the project-status MCP prompt.
type ProjectStatusPrompt struct{}

// NewProjectStatusPrompt creates a ProjectStatusPrompt.
func NewProjectStatusPrompt() *ProjectStatusPrompt {
	return &ProjectStatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ProjectStatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("project-status",
		mcp.WithPromptDescription(
			"Summarize a project: branch progress, blocked tasks, and what to do next.",
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("The project to report on"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the project-status prompt request.
func (p *ProjectStatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID := req.Params.Arguments["project_id"]
	return &mcp.GetPromptResult{
		Description: "Project status report",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Run `manage_project` with action=health_check and project_id=" + projectID + ", " +
						"then `manage_git_branch` action=list for the same project.\n\n" +
						"Present:\n" +
						"1. Overall progress per branch (done vs total tasks)\n" +
						"2. Blocked tasks and what they are waiting on\n" +
						"3. Unassigned branches that need an agent\n" +
						"4. A concrete recommendation for what to work on next",
				),
			},
		},
	}, nil
}
