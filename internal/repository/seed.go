package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/maximo-portal/version-portal/internal/domain"
)

// SeedData is the fixture loaded into an empty local cache.
type SeedData struct {
	Organizations []domain.Organization       `yaml:"organizations"`
	Users         []domain.User               `yaml:"users"`
	Tickets       []domain.Ticket             `yaml:"tickets"`
	Commits       []domain.Commit             `yaml:"commits"`
	Deployments   []domain.DeploymentLogEntry `yaml:"deployments"`
}

// LoadSeed parses a YAML fixture. A missing file yields empty data.
func LoadSeed(path string) (*SeedData, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &SeedData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes fixture bytes.
func ParseSeed(raw []byte) (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &data, nil
}

// Seed fills local cache keys that are still empty. Keys that already hold
// data are left alone so restarts do not discard local-only writes.
func (r *Repositories) Seed(ctx context.Context, data *SeedData, logger *zap.Logger) error {
	if data == nil {
		return nil
	}
	steps := []struct {
		name string
		run  func() (bool, error)
	}{
		{CollectionOrganizations, func() (bool, error) { return r.Organizations.SeedLocal(ctx, data.Organizations) }},
		{CollectionUsers, func() (bool, error) { return r.Users.SeedLocal(ctx, data.Users) }},
		{CollectionTickets, func() (bool, error) { return r.Tickets.SeedLocal(ctx, data.Tickets) }},
		{CollectionCommits, func() (bool, error) { return r.Commits.SeedLocal(ctx, data.Commits) }},
		{CollectionDeployments, func() (bool, error) { return r.Deployments.SeedLocal(ctx, data.Deployments) }},
	}
	for _, step := range steps {
		applied, err := step.run()
		if err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
		if applied {
			logger.Info("seeded local cache", zap.String("collection", step.name))
		}
	}
	return nil
}
