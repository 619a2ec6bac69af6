package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voltaudit/internal/ports"
)

func writeStagesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stages.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write stages file: %v", err)
	}
	return path
}

func TestLoadStagesFile(t *testing.T) {
	t.Parallel()

	path := writeStagesFile(t, `
version = 1

[[stage]]
name = "Final Approval"
order = 3

[[stage]]
name = "Pending Review"
order = 1

[[stage]]
name = "Manager Approval"
order = 2
`)

	stages, err := LoadStagesFile(path)
	if err != nil {
		t.Fatalf("LoadStagesFile() error = %v", err)
	}
	if len(stages) != 3 {
		t.Fatalf("stages = %d, want 3", len(stages))
	}
	want := []string{"Pending Review", "Manager Approval", "Final Approval"}
	for i, stage := range stages {
		if stage.Name != want[i] {
			t.Fatalf("stage[%d] = %q, want %q (sorted by order)", i, stage.Name, want[i])
		}
	}
}

func TestLoadStagesFileRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := LoadStagesFile(writeStagesFile(t, "version = 2\n")); err == nil {
		t.Fatalf("unsupported version must be rejected")
	}

	if _, err := LoadStagesFile(writeStagesFile(t, `
version = 1

[[stage]]
name = ""
order = 1
`)); !errors.Is(err, errStageNameRequired) {
		t.Fatalf("blank name error = %v, want errStageNameRequired", err)
	}

	if _, err := LoadStagesFile(writeStagesFile(t, `
version = 1

[[stage]]
name = "Review"
order = 1

[[stage]]
name = "Review"
order = 2
`)); !errors.Is(err, errDuplicateStage) {
		t.Fatalf("duplicate name error = %v, want errDuplicateStage", err)
	}

	if _, err := LoadStagesFile(writeStagesFile(t, "version = [broken")); err == nil {
		t.Fatalf("malformed TOML must be rejected")
	}
}

func TestReplaceAndListStages(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	if err := env.svc.ReplaceStages(ctx, []ports.WorkflowStage{
		{Name: "Pending Review", Position: 1},
		{Name: "Director Approval", Position: 2},
	}); err != nil {
		t.Fatalf("ReplaceStages() error = %v", err)
	}

	// A second replace supersedes the first wholesale.
	if err := env.svc.ReplaceStages(ctx, []ports.WorkflowStage{
		{Name: "Pending Review", Position: 1},
		{Name: "Manager Approval", Position: 2},
		{Name: "Final Approval", Position: 3},
	}); err != nil {
		t.Fatalf("second ReplaceStages() error = %v", err)
	}

	stages, err := env.svc.ListStages(ctx)
	if err != nil {
		t.Fatalf("ListStages() error = %v", err)
	}
	if len(stages) != 3 {
		t.Fatalf("stages = %+v, want the replacement set of 3", stages)
	}
	if stages[1].Name != "Manager Approval" {
		t.Fatalf("stages[1] = %q, want Manager Approval", stages[1].Name)
	}
}
