package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/aretw0/microcosm/pkg/registry"
)

// createExperiment builds the facade for a definition with standard CLI
// conventions: the run handler doubles as the experiment's emitter, and an
// emitter URI (the --emitter flag first, then the definition's) fans the
// samples out to a second sink. The returned cleanup closes that extra
// sink; the handler's lifecycle belongs to the runner.
func createExperiment(ctx context.Context, opts RunOptions, def composition.Definition, logger *slog.Logger, handler ports.Emitter, reg *registry.Registry) (*microcosm.Experiment, func(), error) {
	facadeOpts := []microcosm.Option{
		microcosm.WithLogger(logger),
		microcosm.WithStrict(opts.Strict),
	}
	if opts.Debug {
		facadeOpts = append(facadeOpts, microcosm.WithLifecycleHooks(createDebugHooks(logger)))
	}

	sinks := []ports.Emitter{handler}
	cleanup := func() {}
	if uri := emitterURI(opts, def); uri != "" {
		extra, err := reg.Emitter(ctx, uri)
		if err != nil {
			return nil, nil, fmt.Errorf("emitter %q: %w", uri, err)
		}
		sinks = append(sinks, extra)
		cleanup = func() { _ = extra.Close() }
	}
	facadeOpts = append(facadeOpts, microcosm.WithEmitter(ports.MultiEmitter(sinks...)))

	exp, err := microcosm.FromDefinition(def, nil, facadeOpts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return exp, cleanup, nil
}

// emitterURI picks the extra sink URI. The handler already renders to the
// terminal, so a bare "console" maps to none rather than printing every
// sample twice.
func emitterURI(opts RunOptions, def composition.Definition) string {
	uri := def.Emitter
	if opts.Emitter != "" {
		uri = opts.Emitter
	}
	if uri == "console" {
		return ""
	}
	return uri
}
