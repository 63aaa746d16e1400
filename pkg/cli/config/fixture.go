package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/fixture"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Fixture points to a YAML seed file.
type Fixture struct {
	path string
}

func (x *Fixture) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Usage:       "YAML fixture with tenants, SLA settings, customers and cases. The built-in demo is used when empty",
			Category:    "Seed",
			Destination: &x.path,
			Sources:     cli.EnvVars("AMLCASE_SEED_FILE"),
		},
	}
}

func (x Fixture) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("file", x.path),
	)
}

// Load reads and validates the fixture file, or returns the demo fixture.
func (x *Fixture) Load() (*fixture.Fixture, error) {
	if x.path == "" {
		return fixture.Demo(), nil
	}
	return loadFixture(x.path)
}

func loadFixture(path string) (*fixture.Fixture, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read fixture file", goerr.V("path", path))
	}

	var f fixture.Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse fixture file", goerr.T(errs.TagValidation), goerr.V("path", path))
	}
	if err := f.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid fixture file", goerr.V("path", path))
	}

	return &f, nil
}
