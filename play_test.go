package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/robalobadob/historyguesser/internal/game"
	"github.com/robalobadob/historyguesser/internal/history"
)

func testResolver(t *testing.T) *game.Resolver {
	t.Helper()
	st, err := history.NewStatic([]history.Event{
		{ID: 0, Year: 1969, Month: 7, Day: 20, Description: "Apollo 11 lands on the Moon"},
		{ID: 1, Year: 1969, Month: 7, Day: 16, Description: "Apollo 11 launches"},
	})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	return game.NewResolver(st, game.NewRand(7))
}

func TestPlayWins(t *testing.T) {
	res := testResolver(t)
	in := strings.NewReader("nonsense\n1969-07-16\n1969-7-16\n1969-07-20\n")
	var out bytes.Buffer

	err := play(context.Background(), res, game.ModeRandom, func() int { return 0 }, in, &out)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Apollo 11 lands on the Moon",
		"Enter a date as YYYY-MM-DD.",
		"New clue found -> Apollo 11 launches [1969-7-16]",
		"Please enter a different date.",
		"Correct! July 20, 1969 in 2 tries.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPlayQuitRevealsDate(t *testing.T) {
	res := testResolver(t)
	var out bytes.Buffer
	err := play(context.Background(), res, game.ModeRandom, func() int { return 1 }, strings.NewReader("quit\n"), &out)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out.String(), "It was July 16, 1969.") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestLoadStaticSampleCorpus(t *testing.T) {
	st, err := loadStatic("")
	if err != nil {
		t.Fatalf("loadStatic: %v", err)
	}
	if st.Len() == 0 {
		t.Fatal("sample corpus is empty")
	}
}
