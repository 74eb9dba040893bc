package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dfornika/irida/internal/config"
	"github.com/dfornika/irida/internal/galaxy"
	"github.com/dfornika/irida/internal/store"
	"github.com/dfornika/irida/internal/workspace"
	"github.com/dfornika/irida/types"
	"github.com/spf13/cobra"
)

type AppDependencies struct {
	Config *types.Config
	Galaxy *galaxy.Client
}

var appDependencies *AppDependencies

// SetDependencies allows for injecting application dependencies
func SetDependencies(deps *AppDependencies) {
	if deps == nil || deps.Config == nil || deps.Galaxy == nil {
		panic("critical error: attempted to set nil dependencies or galaxy client")
	}
	appDependencies = deps
}

// GetDependencies provides access to the dependencies.
// Panics if dependencies haven't been set (indicates setup error).
func GetDependencies() *AppDependencies {
	if appDependencies == nil {
		panic("critical error: application dependencies not set before access")
	}
	return appDependencies
}

// loadDependencies reads --config and connects the Galaxy client, once.
func loadDependencies() *AppDependencies {
	if appDependencies != nil {
		return appDependencies
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		cobra.CheckErr(fmt.Errorf("failed to load %q: %w", configPath, err))
	}

	client, err := galaxy.New(cfg.Galaxy.URL, cfg.Galaxy.APIKey, cfg.Galaxy.Timeout)
	cobra.CheckErr(err)

	SetDependencies(&AppDependencies{Config: cfg, Galaxy: client})
	return appDependencies
}

func (d *AppDependencies) workspaceClients() workspace.Clients {
	return workspace.Clients{
		Histories:   d.Galaxy,
		Uploads:     d.Galaxy,
		Collections: d.Galaxy,
		Workflows:   d.Galaxy,
	}
}

func (d *AppDependencies) openStore() (*store.Store, error) {
	path := d.Config.Storage.ProvenanceDB
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return store.Open(path)
}
