/*
Package runner drives experiments from start to finish.

It sits between the scheduler (behind ports.Experiment) and the outside
world: it advances cycles toward a horizon, streams committed samples
through a pluggable Handler, checkpoints through a session manager, and
turns SIGINT and SIGTERM into a clean stop with a final checkpoint
instead of a lost run.

# Key Components

  - Runner: the orchestrator that owns the drive loop.
  - Handler: decouples how a run is presented (console, JSON-lines, tests).
  - TextHandler: human-readable progress for interactive use.
  - JSONHandler: one JSON event per line for machine consumers.

# Usage

The handler doubles as the experiment's emitter, so resolve it before
wiring the experiment:

	r := runner.New(
		runner.WithName("glycolysis"),
		runner.WithSessions(sessions, "run-42"),
		runner.WithCheckpointEvery(100),
	)

	eng := runtime.NewEngine(runtime.WithEmitter(r.ResolveHandler()))
	// ... register processes ...

	result, err := r.Run(ctx, eng, 3600)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("reached t=%g in %d cycles\n", result.Time, result.Cycles)
*/
package runner
