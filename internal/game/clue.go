package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/robalobadob/historyguesser/internal/history"
)

// cascade is the lookup order for guesses outside the exact-only window.
var cascade = []history.Tier{history.TierDay, history.TierMonth, history.TierYear}

// FetchClue looks for a real event near d. With exact set only the day tier
// is consulted; otherwise day, month and year are tried in turn and the first
// non-empty tier wins. Ties are broken uniformly at random with rng.
// ok is false when no tier produced an event.
func FetchClue(ctx context.Context, src history.Source, rng *rand.Rand, d history.Date, exact bool) (clue history.Event, tier ClueTier, ok bool, err error) {
	tiers := cascade
	if exact {
		tiers = cascade[:1]
	}
	for _, t := range tiers {
		found, err := src.Find(ctx, history.QueryFor(d, t))
		if err != nil {
			return history.Event{}, "", false, err
		}
		if len(found) > 0 {
			return found[rng.IntN(len(found))], ClueTier(t), true, nil
		}
	}
	return history.Event{}, TierPlaceholder, false, nil
}

// PlaceholderID is the synthetic id for date d: Y*10000 + M*100 + D.
// It can equal the id of an unrelated real event.
func PlaceholderID(d history.Date) int {
	return d.Year*10000 + d.Month*100 + d.Day
}

// Placeholder is the synthetic "no event" clue shown for d.
func Placeholder(d history.Date) history.Event {
	return history.Event{
		ID:          PlaceholderID(d),
		Year:        d.Year,
		Month:       d.Month,
		Day:         d.Day,
		Description: fmt.Sprintf("No event for month and day of %s %d in %d", history.MonthName(d.Month), d.Day, d.Year),
	}
}

// SortEvents orders events ascending by (year, month, day). Events on the
// same day keep their relative order.
func SortEvents(events []history.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date().Before(events[j].Date())
	})
}

// containsID reports whether an event with id is already revealed.
func containsID(events []history.Event, id int) bool {
	for _, e := range events {
		if e.ID == id {
			return true
		}
	}
	return false
}

// clueMessage is the notification text for a newly revealed clue.
func clueMessage(e history.Event) string {
	return fmt.Sprintf("New clue found -> %s [%d-%d-%d]", e.Description, e.Year, e.Month, e.Day)
}
