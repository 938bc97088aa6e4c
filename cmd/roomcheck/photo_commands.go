package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"roomcheck/internal/api"
	"roomcheck/internal/config"
	"roomcheck/internal/fileutil"
	"roomcheck/internal/imaging"
)

func newPhotoCommand(ctx *commandContext) *cobra.Command {
	photoCmd := &cobra.Command{
		Use:   "photo",
		Short: "Compress and mark evidence photos",
	}

	var compressOut string
	var compressJSON bool
	compressCmd := &cobra.Command{
		Use:   "compress <image>",
		Short: "Downscale and re-encode a capture as JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := photoCodec(ctx)
			if err != nil {
				return err
			}
			raw, err := readInputFile(args[0])
			if err != nil {
				return err
			}
			photo, err := codec.Compress(raw)
			if err != nil {
				return err
			}
			return emitPhoto(cmd, photo, compressOut, compressJSON, len(raw))
		},
	}
	compressCmd.Flags().StringVarP(&compressOut, "output", "o", "", "Write the JPEG here")
	compressCmd.Flags().BoolVar(&compressJSON, "json", false, "Print the photo as a JSON data URL")

	var (
		annotateOut  string
		annotateJSON bool
		marks        []string
		display      string
	)
	annotateCmd := &cobra.Command{
		Use:   "annotate <image>",
		Short: "Circle one or more spots on a photo",
		Long: `Circle one or more spots on a photo.

Each --at x,y is in the photo's own pixels, or in on-screen pixels when
--display WxH gives the size the photo was shown at.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(marks) == 0 {
				return fmt.Errorf("at least one --at x,y is required")
			}
			codec, err := photoCodec(ctx)
			if err != nil {
				return err
			}
			raw, err := readInputFile(args[0])
			if err != nil {
				return err
			}
			photo, err := codec.Compress(raw)
			if err != nil {
				return err
			}
			var screen *imaging.Size
			if strings.TrimSpace(display) != "" {
				size, err := parseSize(display)
				if err != nil {
					return err
				}
				screen = &size
			}
			for _, value := range marks {
				at, err := parsePoint(value)
				if err != nil {
					return err
				}
				if screen != nil {
					native := imaging.Size{W: float64(photo.Width), H: float64(photo.Height)}
					if at, err = imaging.MapClick(*screen, at, native); err != nil {
						return err
					}
				}
				if photo, err = codec.Annotate(photo, at); err != nil {
					return err
				}
			}
			return emitPhoto(cmd, photo, annotateOut, annotateJSON, len(raw))
		},
	}
	annotateCmd.Flags().StringVarP(&annotateOut, "output", "o", "", "Write the JPEG here")
	annotateCmd.Flags().BoolVar(&annotateJSON, "json", false, "Print the photo as a JSON data URL")
	annotateCmd.Flags().StringArrayVar(&marks, "at", nil, "Marker centre as x,y (repeatable)")
	annotateCmd.Flags().StringVar(&display, "display", "", "Displayed size as WxH for on-screen coordinates")

	photoCmd.AddCommand(compressCmd, annotateCmd)
	return photoCmd
}

func photoCodec(ctx *commandContext) (*imaging.Codec, error) {
	opts, err := imaging.OptionsFromConfig(ctx.configValue().Imaging)
	if err != nil {
		return nil, fmt.Errorf("imaging options: %w", err)
	}
	return imaging.NewCodec(opts), nil
}

func parseSize(value string) (imaging.Size, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(value), "x")
	if !ok {
		return imaging.Size{}, fmt.Errorf("%q: expected WxH", value)
	}
	p, err := parsePoint(ws + "," + hs)
	if err != nil {
		return imaging.Size{}, err
	}
	return imaging.Size{W: p.X, H: p.Y}, nil
}

func emitPhoto(cmd *cobra.Command, photo imaging.Photo, outPath string, asJSON bool, inputBytes int) error {
	if asJSON {
		return writeJSON(cmd, api.FromPhoto(photo))
	}
	if strings.TrimSpace(outPath) == "" {
		return fmt.Errorf("--output or --json is required")
	}
	target, err := config.ExpandPath(outPath)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(target, photo.Data, 0o644); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%d JPEG to %s (%d -> %d bytes)\n", photo.Width, photo.Height, target, inputBytes, len(photo.Data))
	return nil
}
