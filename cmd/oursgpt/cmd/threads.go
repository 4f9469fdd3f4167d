package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/internal/sliceutils"
	"github.com/mokiat/gog"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// renderThread lays a thread out as markdown, one section per message.
func renderThread(t *entity.Thread, last int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", t.Title)

	messages := t.Messages
	if last > 0 {
		messages = sliceutils.Cut(messages, -last, len(messages))
	}
	for _, m := range messages {
		speaker := "You"
		if m.Role == entity.RoleModel {
			speaker = "OursGPT"
		}
		fmt.Fprintf(&sb, "**%s** · %s\n\n", speaker, m.Timestamp.Format("2006-01-02 15:04"))
		if m.HasImage() {
			fmt.Fprintf(&sb, "_[image attached: %s]_\n\n", m.Image.MimeType)
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

func newThreadsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "threads",
		Short:   "Manage conversation threads",
		Aliases: []string{"thread"},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List threads, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			activeId := ""
			if t, ok := app.Threads().GetActive(ctx); ok {
				activeId = t.ID
			}
			lines := gog.Map(app.Threads().GetThreads(ctx), func(t entity.Thread) string {
				marker := " "
				if t.ID == activeId {
					marker = "*"
				}
				return fmt.Sprintf("%s %s  %-30s  %3d  %s", marker, t.ID, t.Title, len(t.Messages), t.UpdatedAt.Format("2006-01-02 15:04"))
			})
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	showParams := &struct {
		Last int
		Raw  bool
	}{}
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a thread rendered as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := app.Threads().GetThreadById(ctx, args[0])
			if err != nil {
				return err
			}

			markdown := renderThread(t, showParams.Last)
			if showParams.Raw {
				fmt.Fprint(cmd.OutOrStdout(), markdown)
				return nil
			}

			theme, err := app.Settings().Theme(ctx)
			if err != nil {
				return err
			}
			renderer, err := glamour.NewTermRenderer(
				glamour.WithStandardStyle(string(theme)),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				return errors.Wrapf(err, "failed to create markdown renderer")
			}
			out, err := renderer.Render(markdown)
			if err != nil {
				return errors.Wrapf(err, "failed to render thread")
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	showCmd.Flags().IntVarP(&showParams.Last, "last", "n", 0, "Only show the last n messages")
	showCmd.Flags().BoolVar(&showParams.Raw, "raw", false, "Print markdown without rendering")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.Threads().GetThreadById(ctx, args[0]); err != nil {
				return err
			}
			if err := app.Threads().DeleteThread(ctx, args[0]); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	exportParams := &struct {
		Format string
	}{}
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a thread as json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := app.Threads().GetThreadById(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := exportThread(t, exportParams.Format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	exportCmd.Flags().StringVarP(&exportParams.Format, "format", "f", "json", "Output format: json or yaml")

	cmd.AddCommand(listCmd, showCmd, deleteCmd, exportCmd)

	return cmd
}

// exportThread encodes through the json tags in both formats so field names
// match the persisted layout.
func exportThread(t *entity.Thread, format string) ([]byte, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode thread")
		}
		return append(out, '\n'), nil
	case "yaml":
		out, err := yaml.Marshal(t)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode thread")
		}
		return out, nil
	}
	return nil, errors.Wrapf(errors.ErrInvalidParams, "unknown format %q, use json or yaml", format)
}
