package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/hungpv1995/postboard/internal/shell"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Work with the board from an interactive prompt",
	RunE:  runShell,
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".postboard_history")
}

func runShell(cmd *cobra.Command, args []string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "postboard> ",
		HistoryFile:     historyFile(),
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	a, err := openApp(cmd.Context(), shell.NewNavigator(out))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.board.Initialize(cmd.Context()); err != nil {
		logger.Warn("Board failed to load", zap.Error(err))
		fmt.Fprintf(out, "board failed to load: %v (type retry)\n", err)
	}

	fmt.Fprintln(out, "postboard shell, type help for commands")
	return shell.New(a.board, out).Run(cmd.Context(), rl)
}
