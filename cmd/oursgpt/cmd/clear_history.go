package cmd

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/habiliai/oursgpt/errors"
	"github.com/spf13/cobra"
)

func newClearHistoryCmd(flags *rootFlags) *cobra.Command {
	params := &struct {
		Yes bool
	}{}
	cmd := &cobra.Command{
		Use:   "clear-history",
		Short: "Delete all threads and generated images. The theme is kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !params.Yes {
				confirmed := false
				if err := survey.AskOne(&survey.Confirm{
					Message: "Delete all threads and generated images?",
					Default: false,
				}, &confirmed); err != nil {
					return errors.Wrapf(err, "failed to confirm")
				}
				if !confirmed {
					infoColor.Fprintln(cmd.OutOrStdout(), "nothing deleted")
					return nil
				}
			}

			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Settings().ClearHistory(ctx); err != nil {
				return err
			}
			successColor.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&params.Yes, "yes", "y", false, "Skip confirmation")

	return cmd
}
