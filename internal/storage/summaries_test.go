package storage_test

import (
	"fmt"
	"testing"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

func TestBranchSummaries(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedBranch(t, s, "b2", "p1", "empty")

	seedTask(t, s, "t1", "b1", "one", domain.StatusDone)
	seedTask(t, s, "t2", "b1", "two", domain.StatusDone)
	seedTask(t, s, "t3", "b1", "three", domain.StatusInProgress)
	seedTask(t, s, "t4", "b1", "four", domain.StatusTodo)

	sums, err := s.BranchSummaries("p1")
	if err != nil {
		t.Fatalf("BranchSummaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2", len(sums))
	}

	byID := map[string]int{}
	for i, sum := range sums {
		byID[sum.ID] = i
	}

	main := sums[byID["b1"]]
	if main.TotalTasks != 4 || main.CompletedTasks != 2 || main.InProgressTasks != 1 || main.TodoTasks != 1 {
		t.Errorf("main counts = %+v", main)
	}
	if main.ProgressPercentage != 50 {
		t.Errorf("progress = %d, want 50", main.ProgressPercentage)
	}

	empty := sums[byID["b2"]]
	if empty.TotalTasks != 0 || empty.ProgressPercentage != 0 {
		t.Errorf("empty branch summary = %+v", empty)
	}
}

func TestTaskSummariesPagination(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	for i := 0; i < 5; i++ {
		task := &domain.Task{
			ID: fmt.Sprintf("t%d", i), GitBranchID: "b1", Title: fmt.Sprintf("task %d", i),
			Status: domain.StatusTodo, Priority: domain.PriorityMedium,
			Assignees: []string{}, Labels: []string{}, Dependencies: []string{},
			CreatedAt: fmt.Sprintf("2026-03-01T10:00:0%dZ", i),
			UpdatedAt: ts,
		}
		if err := s.CreateTask(task); err != nil {
			t.Fatal(err)
		}
	}

	page, total, err := s.TaskSummaries("b1", "", 2, 0)
	if err != nil {
		t.Fatalf("TaskSummaries: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}

	rest, _, err := s.TaskSummaries("b1", "", 10, 2)
	if err != nil {
		t.Fatalf("TaskSummaries offset: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("rest size = %d, want 3", len(rest))
	}
}

func TestTaskSummariesBlockedBy(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "dep done", domain.StatusDone)
	seedTask(t, s, "t2", "b1", "dep open", domain.StatusTodo)

	blocked := seedTask(t, s, "t3", "b1", "blocked", domain.StatusTodo)
	blocked.Dependencies = []string{"t1", "t2", "ghost"}
	if err := s.UpdateTask(blocked); err != nil {
		t.Fatal(err)
	}

	sums, _, err := s.TaskSummaries("b1", "", 10, 0)
	if err != nil {
		t.Fatalf("TaskSummaries: %v", err)
	}
	var found bool
	for _, sum := range sums {
		if sum.ID != "t3" {
			continue
		}
		found = true
		if !sum.HasDependencies {
			t.Error("t3 should report dependencies")
		}
		// t2 is open, ghost does not resolve. Both block; t1 is done.
		if sum.BlockedByCount != 2 {
			t.Errorf("blocked_by_count = %d, want 2", sum.BlockedByCount)
		}
	}
	if !found {
		t.Fatal("t3 missing from summaries")
	}
}

func TestTaskSummariesSubtaskCounts(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "parent", domain.StatusInProgress)

	for i, st := range []domain.Status{domain.StatusDone, domain.StatusDone, domain.StatusTodo} {
		sub := &domain.Subtask{
			ID: "st" + string(rune('1'+i)), TaskID: "t1", Title: "sub",
			Status: st, Priority: domain.PriorityMedium, Assignees: []string{},
			CreatedAt: ts, UpdatedAt: ts,
		}
		if err := s.CreateSubtask(sub); err != nil {
			t.Fatal(err)
		}
	}

	sums, _, err := s.TaskSummaries("b1", "", 10, 0)
	if err != nil {
		t.Fatalf("TaskSummaries: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries", len(sums))
	}
	if sums[0].SubtaskCount != 3 || sums[0].CompletedSubtasks != 2 {
		t.Errorf("subtask counts = %d/%d, want 2/3 done", sums[0].CompletedSubtasks, sums[0].SubtaskCount)
	}
}

func TestSubtaskSummaries(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "parent", domain.StatusTodo)

	sub := &domain.Subtask{
		ID: "st1", TaskID: "t1", Title: "write tests",
		Status: domain.StatusInProgress, Priority: domain.PriorityMedium,
		Assignees: []string{"test-orchestrator-agent"}, ProgressPercentage: 40,
		CreatedAt: ts, UpdatedAt: ts,
	}
	if err := s.CreateSubtask(sub); err != nil {
		t.Fatal(err)
	}

	sums, err := s.SubtaskSummaries("t1")
	if err != nil {
		t.Fatalf("SubtaskSummaries: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries", len(sums))
	}
	got := sums[0]
	if got.ProgressPercentage != 40 || got.Status != string(domain.StatusInProgress) {
		t.Errorf("summary = %+v", got)
	}
	if len(got.Assignees) != 1 || got.Assignees[0] != "test-orchestrator-agent" {
		t.Errorf("assignees = %v", got.Assignees)
	}
}

func TestAgentSummaries(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	b1 := seedBranch(t, s, "b1", "p1", "main")
	b2 := seedBranch(t, s, "b2", "p1", "feature")
	seedBranch(t, s, "b3", "p1", "idle")

	for _, a := range []*domain.Agent{
		{ID: "a1", ProjectID: "p1", Name: "Coding Agent", CallName: "coding-agent", Category: "development", CreatedAt: ts, UpdatedAt: ts},
		{ID: "a2", ProjectID: "p1", Name: "Debugger Agent", CallName: "debugger-agent", Category: "development", CreatedAt: ts, UpdatedAt: ts},
	} {
		if err := s.CreateAgent(a); err != nil {
			t.Fatal(err)
		}
	}

	b1.AssignedAgentID = "a1"
	b2.AssignedAgentID = "a1"
	for _, b := range []*domain.Branch{b1, b2} {
		if err := s.UpdateBranch(b); err != nil {
			t.Fatal(err)
		}
	}

	sums, err := s.AgentSummaries("p1")
	if err != nil {
		t.Fatalf("AgentSummaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2", len(sums))
	}
	byCall := map[string]int{}
	for i, sum := range sums {
		byCall[sum.CallName] = i
	}
	if got := sums[byCall["coding-agent"]].AssignedBranchCount; got != 2 {
		t.Errorf("coding-agent branches = %d, want 2", got)
	}
	if got := sums[byCall["debugger-agent"]].AssignedBranchCount; got != 0 {
		t.Errorf("debugger-agent branches = %d, want 0", got)
	}
}
