package cmd

import (
	"encoding/base64"
	"os"
	"strings"

	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/image"
	"github.com/spf13/cobra"
)

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// writeDataURI decodes a data:<mime>;base64 URI into path.
func writeDataURI(uri, path string) error {
	attachment, ok := entity.ParseDataURI(uri)
	if !ok {
		return errors.Wrapf(errors.ErrInvalidParams, "not a base64 data uri")
	}
	data, err := base64.StdEncoding.DecodeString(attachment.Data)
	if err != nil {
		return errors.Wrapf(err, "failed to decode image data")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func newImageCmd(flags *rootFlags) *cobra.Command {
	params := &struct {
		Style string
		Out   string
	}{}
	cmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate an image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			style, err := entity.ParseImageStyle(params.Style)
			if err != nil {
				return err
			}

			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Images().Generate(ctx, strings.Join(args, " "), style)
			if err != nil {
				return err
			}
			printImageResult(result)
			if result.Status != image.GenerateSucceeded {
				return errors.New(result.ErrorMessage)
			}

			if params.Out != "" {
				if err := writeDataURI(result.Image.URL, params.Out); err != nil {
					return err
				}
				successColor.Printf("saved to %s\n", params.Out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.Style, "style", "s", string(entity.ImageStyleRealistic), "Style: realistic, anime, cinematic, 3D, illustration")
	cmd.Flags().StringVarP(&params.Out, "out", "o", "", "Write the image to this file")

	return cmd
}
