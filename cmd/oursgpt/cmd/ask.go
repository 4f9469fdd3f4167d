package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/habiliai/oursgpt/entity"
	"github.com/spf13/cobra"
)

func newAskCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <text>",
		Short: "Ask a single question without keeping a thread",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			history := []entity.Message{
				entity.NewUserMessage(strings.Join(args, " "), nil, time.Now()),
			}
			answer, err := app.Client().CompleteChat(ctx, history, app.Config().Model.SystemInstruction)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}
