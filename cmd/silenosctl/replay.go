package main

import (
	"fmt"

	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Inspect saved replays",
	}

	var step int
	show := &cobra.Command{
		Use:   "show <file>",
		Short: "Summarize a saved replay",
		Long: `Prints one line per recorded state with the turn and both scores.
With --step, prints the full log of that state instead.

Examples:
  silenosctl replay show replays/0b6c...replay
  silenosctl replay show replays/0b6c...replay --step 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replay, err := game.LoadReplay(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("step") {
				return showReplayStep(cmd, replay, step)
			}
			return showReplay(cmd, replay)
		},
	}
	show.Flags().IntVar(&step, "step", 0, "Print the log of a single state")

	cmd.AddCommand(show)
	return cmd
}

func showReplay(cmd *cobra.Command, replay *game.Replay) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Replay of game %s: %d states\n\n", replay.GameID, replay.Size())
	fmt.Fprintf(out, "  %-4s  %-4s  %-20s  %-7s  %s\n", "Step", "Turn", "Player to move", "Score", "Checksum")
	fmt.Fprintf(out, "  %-4s  %-4s  %-20s  %-7s  %s\n", "----", "----", "--------------", "-----", "--------")

	var last *game.GameState
	replay.Start()
	for step := 0; ; step++ {
		s := replay.Next()
		if s == nil {
			break
		}
		sum, err := game.Checksum(s)
		if err != nil {
			return err
		}
		p1, p2 := s.Players.Player1, s.Players.Player2
		fmt.Fprintf(out, "  %-4d  %-4d  %-20s  %-7s  %s\n",
			step, s.TurnNumber, s.Turn, fmt.Sprintf("%d-%d", p1.Score, p2.Score), sum.Hash[:12])
		last = s
	}

	if last != nil && last.Finished() {
		fmt.Fprintf(out, "\nWinner: %s\n", last.Winner)
	}
	return nil
}

func showReplayStep(cmd *cobra.Command, replay *game.Replay, step int) error {
	if step < 0 || step >= replay.Size() {
		return fmt.Errorf("step %d out of range, replay has %d states", step, replay.Size())
	}
	replay.Start()
	s := replay.Skip(step)

	out := cmd.OutOrStdout()
	p1, p2 := s.Players.Player1, s.Players.Player2
	fmt.Fprintf(out, "Step %d, turn %d, score %d-%d\n", step, s.TurnNumber, p1.Score, p2.Score)
	if step > 0 {
		prev := replay.Previous()
		fmt.Fprintf(out, "Previous score %d-%d\n", prev.Players.Player1.Score, prev.Players.Player2.Score)
	}
	for _, line := range s.Log {
		fmt.Fprintf(out, "  %s\n", line)
	}
	return nil
}
