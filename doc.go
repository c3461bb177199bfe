/*
Package clocktower is an engine for Blood on the Clocktower, a social deduction
game of hidden roles, in which every participant is played by an external agent.

The engine is the storyteller. It deals characters from a script, wakes
characters in night order, resolves abilities, hands out (sometimes false)
information, runs nominations and votes during the day, and decides when one
team has won. Participants never touch the game state: they receive a View of
what they may observe and answer DecisionRequests through a DecisionProvider.

# Event log

Every change is an event in an append-only log. Events carry a visibility
(public, private or storyteller), so the log doubles as each participant's
history and as the storyteller's grimoire. A stored log replays into exactly the
same state.

# Usage

	players := []string{"Ann", "Bob", "Cat", "Dan", "Eve", "Fay", "Gus"}
	game, err := clocktower.New(players,
		clocktower.WithSeed(42),
		clocktower.WithProvider(myAgents),
		clocktower.WithStore(file.NewStore("games")),
	)
	if err != nil {
		log.Fatal(err)
	}
	record, err := game.Play(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(record.Winner, record.Reason)

Without WithProvider, every participant makes uniformly random legal choices.
*/
package clocktower
