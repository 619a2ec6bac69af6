package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"voltaudit/internal/ports"
)

const stagesFileVersion = 1

var (
	errStageNameRequired = errors.New("stage name is required")
	errDuplicateStage    = errors.New("duplicate stage name")
)

type stagesFile struct {
	Version int          `toml:"version"`
	Stages  []stageEntry `toml:"stage"`
}

type stageEntry struct {
	Name  string `toml:"name"`
	Order int    `toml:"order"`
}

// LoadStagesFile parses and validates a workflow-stage overlay. The overlay
// names the review stages an admin has configured on top of the default
// approval path; findings already past a removed stage are unaffected
// because stage membership is only consulted at transition time.
func LoadStagesFile(path string) ([]ports.WorkflowStage, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("stages file is required")
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, err
	}

	var file stagesFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if file.Version != stagesFileVersion {
		return nil, fmt.Errorf("unsupported stages file version %d", file.Version)
	}

	seen := make(map[string]struct{}, len(file.Stages))
	stages := make([]ports.WorkflowStage, 0, len(file.Stages))
	for _, entry := range file.Stages {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, errStageNameRequired
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q", errDuplicateStage, name)
		}
		seen[name] = struct{}{}
		stages = append(stages, ports.WorkflowStage{Name: name, Position: entry.Order})
	}

	sort.Slice(stages, func(i, j int) bool { return stages[i].Position < stages[j].Position })
	return stages, nil
}

// ReplaceStages persists a new overlay wholesale.
func (s *Service) ReplaceStages(ctx context.Context, stages []ports.WorkflowStage) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.ReplaceStages(txCtx, stages)
	})
}

// ListStages returns the current overlay in position order.
func (s *Service) ListStages(ctx context.Context) ([]ports.WorkflowStage, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListStages(ctx)
}
