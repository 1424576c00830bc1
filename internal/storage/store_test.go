package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
	"github.com/phamhung075/4genthub-sub014/internal/storage"
)

// newTestStore creates a Store backed by a temp SQLite file for isolation.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	cfg := storage.Config{
		URL:              filepath.Join(t.TempDir(), "agenthub.db"),
		MaxSearchResults: 20,
	}
	s, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const ts = "2026-03-01T10:00:00Z"

func seedProject(t *testing.T, s *storage.Store, id, name string) *domain.Project {
	t.Helper()
	p := &domain.Project{ID: id, Name: name, Description: "d", UserID: "u1", CreatedAt: ts, UpdatedAt: ts}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("seed project %s: %v", name, err)
	}
	return p
}

func seedBranch(t *testing.T, s *storage.Store, id, projectID, name string) *domain.Branch {
	t.Helper()
	b := &domain.Branch{
		ID: id, ProjectID: projectID, Name: name, Description: "d",
		Status: domain.StatusTodo, Priority: domain.PriorityMedium,
		CreatedAt: ts, UpdatedAt: ts,
	}
	if err := s.CreateBranch(b); err != nil {
		t.Fatalf("seed branch %s: %v", name, err)
	}
	return b
}

func seedTask(t *testing.T, s *storage.Store, id, branchID, title string, status domain.Status) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ID: id, GitBranchID: branchID, Title: title,
		Status: status, Priority: domain.PriorityMedium,
		Assignees: []string{}, Labels: []string{}, Dependencies: []string{},
		CreatedAt: ts, UpdatedAt: ts,
	}
	if err := s.CreateTask(task); err != nil {
		t.Fatalf("seed task %s: %v", title, err)
	}
	return task
}

// ─── Open / migration ────────────────────────────────────────────────────────

func TestOpenReopenPersists(t *testing.T) {
	cfg := storage.Config{URL: filepath.Join(t.TempDir(), "agenthub.db")}

	s1, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	seedProject(t, s1, "p1", "alpha")
	s1.Close()

	s2, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	p, err := s2.GetProject("p1")
	if err != nil {
		t.Fatalf("project not found after reopen: %v", err)
	}
	if p.Name != "alpha" {
		t.Errorf("name = %q, want alpha", p.Name)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

// ─── Projects ────────────────────────────────────────────────────────────────

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")

	p, err := s.GetProjectByName("alpha")
	if err != nil {
		t.Fatalf("GetProjectByName: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("id = %q, want p1", p.ID)
	}

	p.Description = "updated"
	p.UpdatedAt = "2026-03-02T10:00:00Z"
	if err := s.UpdateProject(p); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	got, _ := s.GetProject("p1")
	if got.Description != "updated" {
		t.Errorf("description = %q, want updated", got.Description)
	}

	list, err := s.ListProjects("")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListProjects = %v, %v; want 1 project", list, err)
	}

	if err := s.DeleteProject("p1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := s.GetProject("p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestProjectNameUnique(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")

	err := s.CreateProject(&domain.Project{ID: "p2", Name: "alpha", CreatedAt: ts, UpdatedAt: ts})
	if err == nil {
		t.Error("duplicate project name should fail")
	}
}

func TestListProjectsByUser(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	if err := s.CreateProject(&domain.Project{ID: "p2", Name: "beta", UserID: "u2", CreatedAt: ts, UpdatedAt: ts}); err != nil {
		t.Fatal(err)
	}

	mine, err := s.ListProjects("u2")
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "p2" {
		t.Errorf("ListProjects(u2) = %v, want just p2", mine)
	}
}

// ─── Branches ────────────────────────────────────────────────────────────────

func TestBranchCRUD(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "feature/login")

	b, err := s.GetBranchByName("p1", "feature/login")
	if err != nil {
		t.Fatalf("GetBranchByName: %v", err)
	}
	if b.AssignedAgentID != "" {
		t.Errorf("fresh branch has agent %q", b.AssignedAgentID)
	}

	b.AssignedAgentID = "agent-1"
	b.Status = domain.StatusInProgress
	if err := s.UpdateBranch(b); err != nil {
		t.Fatalf("UpdateBranch: %v", err)
	}
	got, _ := s.GetBranch("b1")
	if got.AssignedAgentID != "agent-1" || got.Status != domain.StatusInProgress {
		t.Errorf("branch after update = %+v", got)
	}

	branches, err := s.ListBranches("p1")
	if err != nil || len(branches) != 1 {
		t.Fatalf("ListBranches = %v, %v", branches, err)
	}
}

func TestBranchNameUniquePerProject(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedProject(t, s, "p2", "beta")
	seedBranch(t, s, "b1", "p1", "main")

	// Same name in another project is fine.
	seedBranch(t, s, "b2", "p2", "main")

	err := s.CreateBranch(&domain.Branch{
		ID: "b3", ProjectID: "p1", Name: "main",
		Status: domain.StatusTodo, Priority: domain.PriorityMedium,
		CreatedAt: ts, UpdatedAt: ts,
	})
	if err == nil {
		t.Error("duplicate branch name within a project should fail")
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "task one", domain.StatusTodo)
	if err := s.CreateSubtask(&domain.Subtask{
		ID: "st1", TaskID: "t1", Title: "sub", Status: domain.StatusTodo,
		Priority: domain.PriorityMedium, Assignees: []string{}, CreatedAt: ts, UpdatedAt: ts,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertContext(&domain.Context{
		Level: domain.LevelTask, ContextID: "t1",
		Data: map[string]any{"k": "v"}, CreatedAt: ts, UpdatedAt: ts,
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteProject("p1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	if _, err := s.GetBranch("b1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("branch should be gone after project delete")
	}
	if _, err := s.GetTask("t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("task should be gone after project delete")
	}
	if _, err := s.GetSubtask("st1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("subtask should be gone after project delete")
	}
	if _, err := s.GetContext(domain.LevelTask, "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("task context should be gone after project delete")
	}
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

func TestTaskRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")

	task := &domain.Task{
		ID: "t1", GitBranchID: "b1", Title: "Build login",
		Description: "JWT based", Status: domain.StatusTodo, Priority: domain.PriorityHigh,
		Details: "use HS256", EstimatedEffort: "2d",
		Assignees: []string{"coding-agent"}, Labels: []string{"auth", "backend"},
		Dependencies: []string{}, DueDate: "2026-04-01",
		CreatedAt: ts, UpdatedAt: ts,
	}
	if err := s.CreateTask(task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := s.GetTask("t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Build login" || got.Priority != domain.PriorityHigh {
		t.Errorf("task = %+v", got)
	}
	if len(got.Assignees) != 1 || got.Assignees[0] != "coding-agent" {
		t.Errorf("assignees = %v", got.Assignees)
	}
	if len(got.Labels) != 2 {
		t.Errorf("labels = %v", got.Labels)
	}
	if got.DueDate != "2026-04-01" {
		t.Errorf("due date = %q", got.DueDate)
	}
	if got.CompletedAt != "" {
		t.Errorf("fresh task completed_at = %q", got.CompletedAt)
	}
}

func TestTaskLegacyAssigneeShapes(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "legacy", domain.StatusTodo)

	// Older rows stored assignees as object arrays or comma strings.
	for _, raw := range []string{
		`[{"id":"alice"},{"name":"bob"}]`,
		`"alice, bob"`,
		`alice,bob`,
	} {
		if _, err := s.DB().Exec(`UPDATE tasks SET assignees = ? WHERE id = 't1'`, raw); err != nil {
			t.Fatalf("raw update: %v", err)
		}
		got, err := s.GetTask("t1")
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if len(got.Assignees) != 2 || got.Assignees[0] != "alice" || got.Assignees[1] != "bob" {
			t.Errorf("raw %q normalized to %v, want [alice bob]", raw, got.Assignees)
		}
	}
}

func TestListTasksFilterByStatus(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "one", domain.StatusTodo)
	seedTask(t, s, "t2", "b1", "two", domain.StatusDone)
	seedTask(t, s, "t3", "b1", "three", domain.StatusTodo)

	all, err := s.ListTasks("b1", "")
	if err != nil || len(all) != 3 {
		t.Fatalf("ListTasks all = %d, %v; want 3", len(all), err)
	}
	todo, err := s.ListTasks("b1", domain.StatusTodo)
	if err != nil || len(todo) != 2 {
		t.Fatalf("ListTasks todo = %d, %v; want 2", len(todo), err)
	}
}

func TestSearchTasks(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "Implement JWT login", domain.StatusTodo)
	seedTask(t, s, "t2", "b1", "Fix cache eviction", domain.StatusTodo)

	hits, err := s.SearchTasks("b1", "jwt", 10)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "t1" {
		t.Errorf("search jwt = %v, want t1", hits)
	}

	none, err := s.SearchTasks("b1", "kubernetes", 10)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("search kubernetes = %v, want empty", none)
	}
}

func TestSearchTasksLiteralMetacharacters(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "Ship 100% coverage milestone", domain.StatusTodo)
	seedTask(t, s, "t2", "b1", "Rename user_id column", domain.StatusTodo)
	seedTask(t, s, "t3", "b1", "Rename userXid column", domain.StatusTodo)

	// % and _ in the query are literal characters, not wildcards.
	hits, err := s.SearchTasks("b1", "%", 10)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "t1" {
		t.Errorf("search %% = %v, want only t1", hits)
	}

	hits, err = s.SearchTasks("b1", "100% coverage", 10)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "t1" {
		t.Errorf("search 100%% coverage = %v, want only t1", hits)
	}

	// Underscore must not match arbitrary characters: only the literal
	// user_id title qualifies, not userXid.
	hits, err = s.SearchTasks("b1", "user_id", 10)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "t2" {
		t.Errorf("search user_id = %v, want only t2", hits)
	}
}

func TestDeleteTaskCleansDependencyRefs(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "dep", domain.StatusTodo)
	blocked := seedTask(t, s, "t2", "b1", "blocked", domain.StatusTodo)

	blocked.Dependencies = []string{"t1"}
	if err := s.UpdateTask(blocked); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteTask("t1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	got, err := s.GetTask("t2")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if len(got.Dependencies) != 0 {
		t.Errorf("dependencies after delete = %v, want empty", got.Dependencies)
	}
}

func TestNextCandidatesOrdering(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")

	low := seedTask(t, s, "t1", "b1", "low", domain.StatusTodo)
	low.Priority = domain.PriorityLow
	if err := s.UpdateTask(low); err != nil {
		t.Fatal(err)
	}
	urgent := seedTask(t, s, "t2", "b1", "urgent", domain.StatusTodo)
	urgent.Priority = domain.PriorityUrgent
	if err := s.UpdateTask(urgent); err != nil {
		t.Fatal(err)
	}
	seedTask(t, s, "t3", "b1", "done", domain.StatusDone)
	blocked := seedTask(t, s, "t4", "b1", "blocked", domain.StatusBlocked)
	_ = blocked

	candidates, err := s.NextCandidates("b1")
	if err != nil {
		t.Fatalf("NextCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2 (done and blocked excluded)", len(candidates))
	}
	if candidates[0].ID != "t2" {
		t.Errorf("first candidate = %s, want urgent t2", candidates[0].ID)
	}
}

// ─── Subtasks ────────────────────────────────────────────────────────────────

func TestSubtaskCRUD(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "task", domain.StatusTodo)

	st := &domain.Subtask{
		ID: "st1", TaskID: "t1", Title: "write tests",
		Status: domain.StatusTodo, Priority: domain.PriorityMedium,
		Assignees: []string{"test-orchestrator-agent"}, ProgressPercentage: 0,
		CreatedAt: ts, UpdatedAt: ts,
	}
	if err := s.CreateSubtask(st); err != nil {
		t.Fatalf("CreateSubtask: %v", err)
	}

	st.ProgressPercentage = 50
	st.Status = domain.StatusInProgress
	st.ProgressNotes = "halfway"
	if err := s.UpdateSubtask(st); err != nil {
		t.Fatalf("UpdateSubtask: %v", err)
	}

	got, err := s.GetSubtask("st1")
	if err != nil {
		t.Fatalf("GetSubtask: %v", err)
	}
	if got.ProgressPercentage != 50 || got.ProgressNotes != "halfway" {
		t.Errorf("subtask = %+v", got)
	}

	list, err := s.ListSubtasks("t1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSubtasks = %v, %v", list, err)
	}

	if err := s.DeleteSubtask("st1"); err != nil {
		t.Fatalf("DeleteSubtask: %v", err)
	}
	if _, err := s.GetSubtask("st1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

// ─── Agents ──────────────────────────────────────────────────────────────────

func TestAgentCRUDAndUnassignOnDelete(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	b := seedBranch(t, s, "b1", "p1", "main")

	a := &domain.Agent{
		ID: "a1", ProjectID: "p1", Name: "Coding Agent", CallName: "coding-agent",
		Category: "development", CreatedAt: ts, UpdatedAt: ts,
	}
	if err := s.CreateAgent(a); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	byCall, err := s.GetAgentByCallName("p1", "coding-agent")
	if err != nil || byCall.ID != "a1" {
		t.Fatalf("GetAgentByCallName = %v, %v", byCall, err)
	}

	b.AssignedAgentID = "a1"
	if err := s.UpdateBranch(b); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteAgent("a1"); err != nil {
		t.Fatalf("DeleteAgent: %v", err)
	}
	got, _ := s.GetBranch("b1")
	if got.AssignedAgentID != "" {
		t.Errorf("branch still assigned to deleted agent: %q", got.AssignedAgentID)
	}
}

func TestAgentCallNameUniquePerProject(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")

	a := &domain.Agent{ID: "a1", ProjectID: "p1", Name: "One", CallName: "coding-agent", CreatedAt: ts, UpdatedAt: ts}
	if err := s.CreateAgent(a); err != nil {
		t.Fatal(err)
	}
	dup := &domain.Agent{ID: "a2", ProjectID: "p1", Name: "Two", CallName: "coding-agent", CreatedAt: ts, UpdatedAt: ts}
	if err := s.CreateAgent(dup); err == nil {
		t.Error("duplicate call name within a project should fail")
	}
}

// ─── Contexts ────────────────────────────────────────────────────────────────

func TestContextUpsert(t *testing.T) {
	s := newTestStore(t)

	c := &domain.Context{
		Level: domain.LevelGlobal, ContextID: domain.GlobalContextID,
		Data: map[string]any{"coding_standards": "gofmt"}, CreatedAt: ts, UpdatedAt: ts,
	}
	if err := s.UpsertContext(c); err != nil {
		t.Fatalf("UpsertContext: %v", err)
	}

	c.Data = map[string]any{"coding_standards": "gofmt", "review": true}
	c.UpdatedAt = "2026-03-02T10:00:00Z"
	if err := s.UpsertContext(c); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.GetContext(domain.LevelGlobal, domain.GlobalContextID)
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got.CreatedAt != ts {
		t.Errorf("created_at changed on upsert: %q", got.CreatedAt)
	}
	if got.UpdatedAt != "2026-03-02T10:00:00Z" {
		t.Errorf("updated_at = %q", got.UpdatedAt)
	}
	if got.Data["review"] != true {
		t.Errorf("data = %v", got.Data)
	}
}

func TestContextMalformedDataDecodesEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertContext(&domain.Context{
		Level: domain.LevelProject, ContextID: "p1", Data: map[string]any{}, CreatedAt: ts, UpdatedAt: ts,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB().Exec(`UPDATE contexts SET data = 'not json' WHERE context_id = 'p1'`); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetContext(domain.LevelProject, "p1")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got.Data == nil || len(got.Data) != 0 {
		t.Errorf("malformed data decoded to %v, want empty map", got.Data)
	}
}

// ─── Counts ──────────────────────────────────────────────────────────────────

func TestCountAll(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s, "p1", "alpha")
	seedBranch(t, s, "b1", "p1", "main")
	seedTask(t, s, "t1", "b1", "one", domain.StatusTodo)

	counts, err := s.CountAll()
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if counts.Projects != 1 || counts.Branches != 1 || counts.Tasks != 1 || counts.Subtasks != 0 {
		t.Errorf("counts = %+v", counts)
	}
}
