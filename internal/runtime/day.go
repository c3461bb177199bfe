package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/clocktower/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// runDay runs the discussion rounds, opens nominations, runs the nomination
// rounds and finally checks the end-of-day win conditions. Rounds already
// gathered by an interrupted Step are not played again.
func (e *Engine) runDay(ctx context.Context) error {
	for e.cur.discussion < e.cfg.DiscussionRounds && !e.grim.Over && !e.dayEnded {
		if err := e.dayRound(ctx, &e.cur.discussion); err != nil {
			return err
		}
	}
	if e.grim.Over {
		return nil
	}

	if !e.dayEnded {
		if !e.cur.opened {
			if _, err := e.emit(ctx, domain.NewEvent(domain.EventNominationsOpened, domain.VisibilityPublic)); err != nil {
				return err
			}
			e.cur.opened = true
		}
		for e.cur.nominations < e.cfg.NominationRounds && !e.grim.Over && !e.dayEnded {
			if err := e.dayRound(ctx, &e.cur.nominations); err != nil {
				return err
			}
		}
	}
	if e.grim.Over {
		return nil
	}
	_, err := e.checkMayor(ctx)
	return err
}

// dayRound gathers one action from every participant concurrently, then applies
// them one by one in a shuffled order. Actions made stale by an earlier one are
// rejected; actions gathered after the game or the day ended are discarded.
// played is incremented once the actions are gathered.
func (e *Engine) dayRound(ctx context.Context, played *int) error {
	order := e.grim.Seats()
	e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	schemas := make(map[domain.Seat]domain.ActionSchema, len(order))
	for _, seat := range order {
		schemas[seat] = e.daySchema(seat)
	}

	results, err := gather(ctx, order, func(ctx context.Context, seat domain.Seat) (outcome[domain.DayAction], error) {
		schema := schemas[seat]
		return decide(ctx, e, seat, schema,
			func() domain.DayAction { return domain.DayAction{Target: domain.NoSeat} },
			func(a domain.DayAction) error { return e.validDayAction(schema, a) },
			func() domain.DayAction { return domain.DayAction{Action: domain.DayPass, Target: domain.NoSeat} },
		)
	})
	if err != nil {
		for _, seat := range order {
			if discardErr := e.discard(context.WithoutCancel(ctx), seat, domain.ActionDay, err.Error()); discardErr != nil {
				return discardErr
			}
		}
		return err
	}
	*played++

	for i, r := range results {
		if e.grim.Over || e.dayEnded {
			reason := "day ended"
			if e.grim.Over {
				reason = "game over"
			}
			if err := e.discard(ctx, r.Seat, r.Kind, reason); err != nil {
				return err
			}
			continue
		}
		if err := e.settle(ctx, r.Seat, r.Kind, r.Degraded); err != nil {
			return err
		}
		if err := e.applyDayAction(ctx, r.Seat, r.Value); err != nil {
			// A vote cut short leaves the rest of the round unplayed.
			if ctxErr := ctx.Err(); ctxErr != nil {
				for _, rest := range results[i+1:] {
					if discardErr := e.discard(context.WithoutCancel(ctx), rest.Seat, rest.Kind, ctxErr.Error()); discardErr != nil {
						return discardErr
					}
				}
			}
			return err
		}
	}
	return nil
}

func (e *Engine) daySchema(seat domain.Seat) domain.ActionSchema {
	p := e.participant(seat)
	day := e.grim.Day
	schema := domain.ActionSchema{
		Kind:    domain.ActionDay,
		Allowed: []domain.DayActionType{domain.DayPass, domain.DaySay},
	}
	for _, q := range e.grim.Participants {
		if q.Seat != seat {
			schema.Recipients = append(schema.Recipients, q.Seat)
		}
	}
	if !day.NominationsOpen && day.Messages[seat] < e.cfg.MessagesPerDay {
		schema.Allowed = append(schema.Allowed, domain.DayMessage)
	}
	if day.NominationsOpen && p.Alive && !day.Nominators[seat] && day.Executed == domain.NoSeat {
		for _, q := range e.grim.Living() {
			if day.Nominees[q.Seat] || (q.Seat == seat && !e.script.AllowSelfNomination) {
				continue
			}
			schema.Candidates = append(schema.Candidates, q.Seat)
		}
		if len(schema.Candidates) > 0 {
			schema.Allowed = append(schema.Allowed, domain.DayNominate)
		}
	}
	if p.Alive && !p.Spent[domain.Slayer] {
		schema.Allowed = append(schema.Allowed, domain.DaySlayer)
	}
	return schema
}

func (e *Engine) applyDayAction(ctx context.Context, seat domain.Seat, a domain.DayAction) error {
	if p := e.participant(seat); a.Notes != "" && a.Notes != p.Notes {
		evt := domain.NewEvent(domain.EventNotes, domain.VisibilityPrivate)
		evt.Recipients = []domain.Seat{seat}
		evt.Actor = seat
		evt.Text = a.Notes
		if _, err := e.emit(ctx, evt); err != nil {
			return err
		}
	}

	var err error
	switch a.Action {
	case domain.DaySay:
		err = e.Say(ctx, seat, nil, a.Text)
	case domain.DayMessage:
		err = e.Say(ctx, seat, a.Recipients, a.Text)
	case domain.DayNominate:
		_, err = e.Nominate(ctx, seat, a.Target)
	case domain.DaySlayer:
		err = e.Slay(ctx, seat, a.Target)
	}
	var rejected *ActionError
	if errors.As(err, &rejected) {
		return nil
	}
	return err
}

func (e *Engine) discard(ctx context.Context, seat domain.Seat, kind domain.ActionKind, reason string) error {
	evt := domain.NewEvent(domain.EventDecisionDiscarded, domain.VisibilityStoryteller)
	evt.Actor = seat
	evt.Text = string(kind)
	evt.Reason = reason
	_, err := e.emit(ctx, evt)
	return err
}

// gather runs ask for every seat concurrently. Results keep the order of seats.
func gather[T any](ctx context.Context, seats []domain.Seat,
	ask func(context.Context, domain.Seat) (outcome[T], error),
) ([]outcome[T], error) {
	results := make([]outcome[T], len(seats))
	g, gctx := errgroup.WithContext(ctx)
	for i, seat := range seats {
		g.Go(func() error {
			r, err := ask(gctx, seat)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkDayAction verifies the common preconditions of every day action.
func (e *Engine) checkDayAction(actor domain.Seat) error {
	if e.grim.Phase != domain.PhaseDay {
		return fmt.Errorf("%w: not during %s", domain.ErrConstraintViolation, e.grim.Phase)
	}
	if e.participant(actor) == nil {
		return fmt.Errorf("%w: seat %d", domain.ErrUnknownParticipant, actor)
	}
	if e.dayEnded {
		return fmt.Errorf("%w: the day is over", domain.ErrConstraintViolation)
	}
	return nil
}

// Say makes a public statement, or a private message when recipients are given.
// Private messages are only allowed before nominations open, up to MessagesPerDay.
func (e *Engine) Say(ctx context.Context, actor domain.Seat, recipients []domain.Seat, text string) error {
	action := domain.DaySay
	if len(recipients) > 0 {
		action = domain.DayMessage
	}
	if e.grim.Over {
		return &ActionError{Actor: actor, Action: action, Err: domain.ErrGameOver}
	}
	if err := e.checkDayAction(actor); err != nil {
		return e.reject(ctx, actor, action, err)
	}

	evt := domain.NewEvent(domain.EventStatement, domain.VisibilityPublic)
	evt.Actor = actor
	evt.Text = text
	if len(recipients) > 0 {
		switch {
		case e.grim.Day.NominationsOpen:
			return e.reject(ctx, actor, action, fmt.Errorf("%w: private messages are closed", domain.ErrConstraintViolation))
		case e.grim.Day.Messages[actor] >= e.cfg.MessagesPerDay:
			return e.reject(ctx, actor, action, fmt.Errorf("%w: no messages left today", domain.ErrConstraintViolation))
		}
		for _, r := range recipients {
			if e.participant(r) == nil {
				return e.reject(ctx, actor, action, fmt.Errorf("%w: seat %d", domain.ErrUnknownParticipant, r))
			}
			if r == actor {
				return e.reject(ctx, actor, action, fmt.Errorf("%w: cannot message yourself", domain.ErrInvalidTarget))
			}
		}
		evt.Visibility = domain.VisibilityPrivate
		evt.Recipients = append([]domain.Seat{actor}, recipients...)
	}
	_, err := e.emit(ctx, evt)
	return err
}

// Nominate puts a player up for execution and, unless the Virgin triggers, runs the vote.
func (e *Engine) Nominate(ctx context.Context, nominator, nominee domain.Seat) (domain.Tally, error) {
	if e.grim.Over {
		return domain.Tally{}, &ActionError{Actor: nominator, Action: domain.DayNominate, Err: domain.ErrGameOver}
	}
	if err := e.checkNomination(nominator, nominee); err != nil {
		return domain.Tally{}, e.reject(ctx, nominator, domain.DayNominate, err)
	}

	n := domain.Nomination{
		Index:     len(e.grim.Day.Nominations),
		Nominator: nominator,
		Nominee:   nominee,
		Day:       e.grim.Round,
	}
	evt := domain.NewEvent(domain.EventNomination, domain.VisibilityPublic)
	evt.Actor = nominator
	evt.Target = nominee
	evt.Nomination = &n
	if _, err := e.emit(ctx, evt); err != nil {
		return domain.Tally{}, err
	}
	e.logger.Info("nomination", "nominator", nominator, "nominee", nominee)

	if triggered, err := e.virgin(ctx, nominator, nominee); err != nil || triggered {
		return domain.Tally{}, err
	}
	return e.runVote(ctx, n)
}

func (e *Engine) checkNomination(nominator, nominee domain.Seat) error {
	if err := e.checkDayAction(nominator); err != nil {
		return err
	}
	day := e.grim.Day
	nom, target := e.participant(nominator), e.participant(nominee)
	switch {
	case !day.NominationsOpen:
		return fmt.Errorf("%w: nominations are not open", domain.ErrConstraintViolation)
	case day.Executed != domain.NoSeat:
		return fmt.Errorf("%w: an execution already happened today", domain.ErrConstraintViolation)
	case target == nil:
		return fmt.Errorf("%w: seat %d", domain.ErrUnknownParticipant, nominee)
	case !nom.Alive:
		return domain.ErrDeadActorIneligible
	case day.Nominators[nominator]:
		return fmt.Errorf("%w: seat %d already nominated today", domain.ErrConstraintViolation, nominator)
	case day.Nominees[nominee]:
		return fmt.Errorf("%w: seat %d was already nominated today", domain.ErrConstraintViolation, nominee)
	case !target.Alive:
		return fmt.Errorf("%w: seat %d is dead", domain.ErrInvalidTarget, nominee)
	case nominator == nominee && !e.script.AllowSelfNomination:
		return fmt.Errorf("%w: self nomination is not allowed", domain.ErrInvalidTarget)
	}
	return nil
}

// virgin resolves the Virgin's first nomination: when the nominator is a
// Townsfolk, the nominee (or the nominator under ExecuteNominator) is executed
// without a vote and the day ends. The ability is spent either way.
func (e *Engine) virgin(ctx context.Context, nominator, nominee domain.Seat) (bool, error) {
	v := e.participant(nominee)
	if v.Character != domain.Virgin || v.Spent[domain.Virgin] {
		return false, nil
	}
	if err := e.spend(ctx, nominee, domain.Virgin); err != nil {
		return false, err
	}
	if v.Impaired() || e.participant(nominator).Character.Kind() != domain.Townsfolk {
		return false, nil
	}
	executed := nominee
	if e.cfg.VirginPolicy == ExecuteNominator {
		executed = nominator
	}
	e.dayEnded = true
	return true, e.execute(ctx, executed, "virgin")
}

// Slay spends the actor's once-per-game Slayer shot. Only a working Slayer
// aiming at a player who registers as the Demon kills.
func (e *Engine) Slay(ctx context.Context, actor, target domain.Seat) error {
	if e.grim.Over {
		return &ActionError{Actor: actor, Action: domain.DaySlayer, Err: domain.ErrGameOver}
	}
	if err := e.checkDayAction(actor); err != nil {
		return e.reject(ctx, actor, domain.DaySlayer, err)
	}
	p, t := e.participant(actor), e.participant(target)
	switch {
	case t == nil:
		return e.reject(ctx, actor, domain.DaySlayer, fmt.Errorf("%w: seat %d", domain.ErrUnknownParticipant, target))
	case !p.Alive:
		return e.reject(ctx, actor, domain.DaySlayer, domain.ErrDeadActorIneligible)
	case p.Spent[domain.Slayer]:
		return e.reject(ctx, actor, domain.DaySlayer, fmt.Errorf("%w: slayer shot already used", domain.ErrConstraintViolation))
	}

	if err := e.spend(ctx, actor, domain.Slayer); err != nil {
		return err
	}
	hit := p.Character == domain.Slayer && !p.Impaired() && t.Alive &&
		e.register(target, domain.Slayer).Kind == domain.Demon

	shot := domain.NewEvent(domain.EventSlayerShot, domain.VisibilityPublic)
	shot.Actor = actor
	shot.Target = target
	shot.Reason = "miss"
	if hit {
		shot.Reason = "hit"
	}
	if _, err := e.emit(ctx, shot); err != nil {
		return err
	}
	if !hit {
		return nil
	}
	if err := e.kill(ctx, t, domain.CauseSlayer); err != nil {
		return err
	}
	_, err := e.checkWin(ctx)
	return err
}

// execute kills a player by execution and locks the day.
func (e *Engine) execute(ctx context.Context, seat domain.Seat, reason string) error {
	t := e.participant(seat)
	wasAlive := t.Alive
	livingBefore := e.grim.LivingCount()

	evt := domain.NewEvent(domain.EventExecution, domain.VisibilityPublic)
	evt.Target = seat
	evt.Reason = reason
	if _, err := e.emit(ctx, evt); err != nil {
		return err
	}
	e.logger.Info("execution", "seat", seat, "reason", reason)

	if t.Character == domain.Saint && !t.Impaired() {
		return e.endGame(ctx, domain.Evil, ReasonSaintExecuted)
	}
	if wasAlive {
		if err := e.afterDeath(ctx, t, livingBefore); err != nil {
			return err
		}
	}
	_, err := e.checkWin(ctx)
	return err
}

// votingOrder lists every seat clockwise, starting left of the nominee and ending with the nominee.
func votingOrder(nominee domain.Seat, size int) []domain.Seat {
	order := make([]domain.Seat, 0, size)
	for i := 1; i <= size; i++ {
		order = append(order, domain.Seat((int(nominee)+i)%size))
	}
	return order
}

// runVote gathers every hand concurrently, applies the votes clockwise and
// closes the nomination. A majority of the living executes at once.
func (e *Engine) runVote(ctx context.Context, n domain.Nomination) (domain.Tally, error) {
	order := votingOrder(n.Nominee, e.grim.Size())
	schema := domain.ActionSchema{
		Kind:       domain.ActionVote,
		Nomination: &n,
		Choices:    []domain.VoteChoice{domain.VoteFor, domain.VoteAgainst},
	}

	// The dead without a vote left are not asked: their hand cannot count.
	var asked []domain.Seat
	for _, seat := range order {
		if p := e.participant(seat); p.Alive || p.DeadVote {
			asked = append(asked, seat)
		}
	}
	results, err := gather(ctx, asked, func(ctx context.Context, seat domain.Seat) (outcome[domain.VoteAction], error) {
		return decide(ctx, e, seat, schema,
			func() domain.VoteAction { return domain.VoteAction{} },
			func(v domain.VoteAction) error { return validVote(schema, v) },
			func() domain.VoteAction { return domain.VoteAction{Vote: domain.VoteAgainst} },
		)
	})
	if err != nil {
		for _, seat := range asked {
			if discardErr := e.discard(context.WithoutCancel(ctx), seat, domain.ActionVote, err.Error()); discardErr != nil {
				return domain.Tally{}, discardErr
			}
		}
		return domain.Tally{}, err
	}

	hands := make(map[domain.Seat]domain.VoteChoice, len(order))
	for _, r := range results {
		if err := e.settle(ctx, r.Seat, r.Kind, r.Degraded); err != nil {
			return domain.Tally{}, err
		}
		hands[r.Seat] = r.Value.Vote
	}
	e.restrictButlers(hands)

	votes := 0
	for _, seat := range order {
		p := e.participant(seat)
		choice := hands[seat]
		if choice != domain.VoteFor {
			choice = domain.VoteAgainst
		}
		evt := domain.NewEvent(domain.EventVote, domain.VisibilityPublic)
		evt.Actor = seat
		evt.Vote = &domain.Vote{Voter: seat, Nomination: n.Index, Choice: choice}
		evt.DeadVoteSpent = choice == domain.VoteFor && !p.Alive
		if _, err := e.emit(ctx, evt); err != nil {
			return domain.Tally{}, err
		}
		if choice == domain.VoteFor {
			votes++
		}
	}

	living := e.grim.LivingCount()
	tally := domain.Tally{
		Nomination: n.Index,
		For:        votes,
		Living:     living,
		Threshold:  living / 2,
		Executed:   votes > living/2,
	}
	closed := domain.NewEvent(domain.EventVoteClosed, domain.VisibilityPublic)
	closed.Target = n.Nominee
	closed.Tally = &tally
	if _, err := e.emit(ctx, closed); err != nil {
		return tally, err
	}
	e.logger.Info("vote closed", "nominee", n.Nominee, "for", votes, "living", living, "executed", tally.Executed)

	if tally.Executed {
		return tally, e.execute(ctx, n.Nominee, "vote")
	}
	return tally, nil
}

// restrictButlers lowers the hand of a working Butler whose master is not voting for.
func (e *Engine) restrictButlers(hands map[domain.Seat]domain.VoteChoice) {
	var butlers []domain.Seat
	for _, p := range e.grim.WithCharacter(domain.Butler) {
		if !p.Impaired() {
			butlers = append(butlers, p.Seat)
		}
	}
	for _, b := range butlers {
		if hands[b] != domain.VoteFor {
			continue
		}
		master := e.masterOf(b)
		if master == domain.NoSeat || slices.Contains(butlers, master) || hands[master] != domain.VoteFor {
			hands[b] = domain.VoteAgainst
		}
	}
}
