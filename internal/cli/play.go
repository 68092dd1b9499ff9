package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-runner/internal/app"
	"quiz-runner/internal/config"
	"quiz-runner/internal/transport/console"
)

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play [questions.csv]",
		Short: "Take a quiz in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runPlay(ctx context.Context, configPath string, args []string, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	term := console.NewTerminal(out)
	delay := config.Duration(rt.cfg.Quiz.RevealDelay, app.DefaultRevealDelay)
	ctrl := app.NewController(app.NewSession(rt.history), rt.history, rt.source, term, rt.log, delay)

	term.Menu()
	if len(args) == 1 {
		ctrl.RequestLoad(args[0])
	}

	go func() {
		if err := term.ReadLoop(ctx, in, ctrl); err != nil && !errors.Is(err, context.Canceled) {
			rt.log.Warn("reading input failed", zap.Error(err))
		}
	}()

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
