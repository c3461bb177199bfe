/*
Package runner hosts games outside the engine core.

It drives a game phase by phase, persists every new event to an event store,
narrates the log through pluggable narrators and supplies ready-made decision
providers.

# Key Components

  - Runner: the loop that steps and advances a game until it ends.
  - RandomProvider: uniformly random legal decisions, seeded for reproducibility.
  - JSONProvider: NDJSON request/decision exchange with an external agent host.
  - TextNarrator and JSONNarrator: human and machine renderings of the log.

# Usage

	r := runner.NewRunner(
		runner.WithStore(store),
		runner.WithNarrator(runner.NewTextNarrator(os.Stdout)),
	)
	if err := r.Run(ctx, game); err != nil {
		log.Fatal(err)
	}
*/
package runner
