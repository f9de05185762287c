package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/robalobadob/historyguesser/internal/game"
	"github.com/robalobadob/historyguesser/internal/history"
)

// play runs one game over a line-oriented terminal. Each line is a guess in
// YYYY-MM-DD form; "quit" or end of input stops early.
func play(ctx context.Context, res *game.Resolver, mode game.Mode, pick func() int, in io.Reader, out io.Writer) error {
	sess, err := res.NewSession(ctx, mode, pick)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "When did this happen?\n  %s\n", sess.Target.Description)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "guess> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintf(out, "It was %s.\n", sess.Target.Date())
			return nil
		}

		guess, err := history.ParseDate(line)
		if err != nil {
			fmt.Fprintln(out, "Enter a date as YYYY-MM-DD.")
			continue
		}
		next, o, err := res.Resolve(ctx, sess, guess)
		switch {
		case errors.Is(err, game.ErrDuplicateGuess):
			fmt.Fprintln(out, "Please enter a different date.")
			continue
		case errors.Is(err, game.ErrInvalidDate):
			fmt.Fprintln(out, "That date does not exist.")
			continue
		case err != nil:
			// Lookup failed; the guess is not spent.
			fmt.Fprintf(out, "Could not fetch a clue (%v). Try again.\n", err)
			continue
		}
		sess = next

		fmt.Fprintln(out, o.Message)
		printClues(out, sess)
		if o.Won {
			fmt.Fprintf(out, "Correct! %s in %d tries.\n", sess.Target.Date(), o.Tries)
			return nil
		}
	}
}

func printClues(out io.Writer, s *game.Session) {
	for _, e := range s.Clues {
		label := e.Date().String()
		if e == s.Target && !s.Won() {
			label = "???"
		}
		marker := " "
		if s.Newest != nil && *s.Newest == e {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %-20s %s\n", marker, label, e.Description)
	}
}
