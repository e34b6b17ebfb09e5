package connector

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/orashift/orashift/internal/config"
)

// Provider hands out connected Connectors per role. Callers own the
// returned connector and must Close it on every exit path.
type Provider struct {
	Project config.ProjectConfig
	Logger  *logrus.Logger
}

// NewProvider creates a provider over a resolved project configuration.
func NewProvider(project config.ProjectConfig, logger *logrus.Logger) *Provider {
	return &Provider{Project: project, Logger: logger}
}

// Acquire opens a scoped connection for the named role.
func (p *Provider) Acquire(role Role) (*Connector, error) {
	var cfg config.Config
	switch role {
	case Source:
		cfg = p.Project.Source
	case Target:
		cfg = p.Project.Target
	default:
		return nil, fmt.Errorf("unknown connection role %q", role)
	}

	conn := New(role, cfg, p.Logger)
	if err := conn.Connect(); err != nil {
		return nil, err
	}
	return conn, nil
}

// AcquirePair opens source and target connections for one schema pass,
// releasing the source again if the target fails.
func (p *Provider) AcquirePair() (*Connector, *Connector, error) {
	source, err := p.Acquire(Source)
	if err != nil {
		return nil, nil, err
	}
	target, err := p.Acquire(Target)
	if err != nil {
		source.Close()
		return nil, nil, err
	}
	return source, target, nil
}
