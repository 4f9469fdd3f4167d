package cmd

import (
	"github.com/habiliai/oursgpt/settings"
	"github.com/spf13/cobra"
)

func newThemeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			svc := app.Settings()
			var theme settings.Theme
			switch {
			case len(args) == 0:
				theme, err = svc.Theme(ctx)
			case args[0] == "toggle":
				theme, err = svc.ToggleTheme(ctx)
			default:
				theme, err = settings.ParseTheme(args[0])
				if err == nil {
					err = svc.SetTheme(ctx, theme)
				}
			}
			if err != nil {
				return err
			}

			successColor.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		},
	}
}
