package client

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/undeconstructed/machi/machi"

	rl "github.com/chzyer/readline"
)

const (
	YELLOW = "\033[33m"
	RESET  = "\033[0m"
)

// NewReadline makes the line editor the REPL wants.
func NewReadline(user string) (*rl.Instance, error) {
	completer := rl.NewPrefixCompleter(
		rl.PcItem("roll"),
		rl.PcItem("build"),
		rl.PcItem("state"),
		rl.PcItem("say"),
		rl.PcItem("quit"),
	)

	return rl.NewEx(&rl.Config{
		Prompt:            user + " » ",
		HistoryFile:       "hist.txt",
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

// Repl reads commands until quit, EOF or the connection goes.
func (c *Client) Repl(l *rl.Instance) error {
	out := l.Stdout()

	go func() {
		for {
			select {
			case note := <-c.notes:
				fmt.Fprintf(out, "%s%s%s\n", YELLOW, note, RESET)
			case <-c.doneCh:
				return
			}
		}
	}()

	for {
		line, err := l.Readline()
		if err == rl.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		quit, err := c.Command(out, line)
		if err == ErrClosed {
			return err
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Command runs one line of input. It says true when it's time to stop.
func (c *Client) Command(out io.Writer, line string) (bool, error) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	cmd := parts[0]
	rest := ""
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "roll":
		n := 0
		if rest != "" {
			var err error
			n, err = strconv.Atoi(rest)
			if err != nil {
				return false, fmt.Errorf("roll [number]")
			}
			if n == 0 {
				return false, machi.ErrBadRoll
			}
		}
		return false, c.Roll(n)
	case "build":
		if rest == "" {
			return false, fmt.Errorf("build <building>")
		}
		return false, c.Act(machi.PlayerAction{Type: machi.Build, BuildingID: rest})
	case "state":
		state := c.State()
		if state == nil {
			fmt.Fprintf(out, "no state yet\n")
			return false, nil
		}
		printState(out, *state)
	case "say":
		return false, c.Say(rest)
	case "quit":
		return true, nil
	case "":
		// nothing
	default:
		fmt.Fprintf(out, "unknown\n")
	}
	return false, nil
}

func printState(out io.Writer, state machi.GameState) {
	rolled := "?"
	if state.RolledNumber != nil {
		rolled = strconv.Itoa(*state.RolledNumber)
	}
	fmt.Fprintf(out, "Rolled:  %s\n", rolled)

	names := []string{}
	for _, u := range state.Users {
		names = append(names, u.ID)
	}
	fmt.Fprintf(out, "Players: %s\n", strings.Join(names, " "))

	ids := []string{}
	for id := range state.UserInventories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(out, "Coins:\n")
	for _, id := range ids {
		fmt.Fprintf(out, "\t%s: %d\n", id, state.UserInventories[id].Income)
	}

	fmt.Fprintf(out, "Log:\n")
	for _, e := range state.Log {
		fmt.Fprintf(out, "\t%s\n", e.Message)
	}
}
