// Package orchestrator runs batches of preparations and library uploads
// through the executor and records what ran.
package orchestrator

import (
	"context"

	"github.com/dfornika/irida/internal/executor"
	"github.com/dfornika/irida/internal/provenance"
	"github.com/dfornika/irida/internal/workspace"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	KindPrepare = "prepare"
	KindUpload  = "upload"
)

// GraphStore persists one provenance graph per prepared submission.
type GraphStore interface {
	SaveGraph(ctx context.Context, runID, name string, g *provenance.Graph) error
}

type Options struct {
	Run         executor.Run
	Concurrency int
	// Records receives each task record as it completes. Optional.
	Records executor.RecordSink
	// Provenance receives the graph of every successful preparation. Optional.
	Provenance GraphStore
}

type Orchestrator struct {
	clients workspace.Clients
	opts    Options
	logger  zerolog.Logger
}

// New returns an orchestrator. clients are only needed for Prepare.
func New(clients workspace.Clients, opts Options) *Orchestrator {
	return &Orchestrator{
		clients: clients,
		opts:    opts,
		logger: log.With().
			Str("component", "orchestrator").
			Str("run_id", opts.Run.ID.String()).
			Logger(),
	}
}

func (o *Orchestrator) executor() *executor.Executor {
	return executor.NewExecutor(o.opts.Run, o.opts.Concurrency, o.opts.Records)
}
