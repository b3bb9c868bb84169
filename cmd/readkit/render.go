package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/wudi/readkit/document"
	_ "github.com/wudi/readkit/document/markdown"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/viewport"
)

var (
	renderOut    string
	renderPage   int
	renderWidth  int
	renderHeight int
	renderThumb  int
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render one screenful to a PNG or WebP file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "page.png", "Output image (.png or .webp)")
	renderCmd.Flags().IntVarP(&renderPage, "page", "p", 0, "Location to render")
	renderCmd.Flags().IntVar(&renderWidth, "width", 600, "Surface width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 800, "Surface height in pixels")
	renderCmd.Flags().IntVar(&renderThumb, "thumbnail", 0, "Scale output down to this width")
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, err := document.Open(args[0])
	if err != nil {
		return err
	}

	engine := viewport.New(document.NewShared(doc),
		geo.Rect(0, 0, renderWidth, renderHeight),
		viewport.WithLogger(logger()))
	if renderPage != 0 {
		engine.GoTo(renderPage, false)
	}

	out := compose(engine)
	if renderThumb > 0 {
		out = imaging.Resize(out, renderThumb, 0, imaging.Lanczos)
	}
	return writeImage(renderOut, out)
}

// compose pastes the engine's chunks onto a white surface, the way a frontend
// would blit them to the framebuffer.
func compose(engine *viewport.Engine) *image.NRGBA {
	out := imaging.New(renderWidth, renderHeight, color.White)
	for _, chunk := range engine.Chunks() {
		res, ok := engine.Resource(chunk.Location)
		if !ok {
			continue
		}
		frame := image.Rect(chunk.Frame.Min.X, chunk.Frame.Min.Y,
			chunk.Frame.Max.X, chunk.Frame.Max.Y)
		part := imaging.Crop(res.Pixmap, frame)
		out = imaging.Paste(out, part, image.Pt(chunk.Position.X, chunk.Position.Y))
	}
	return out
}

func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		err = webp.Encode(f, img, &webp.Options{Lossless: true})
	case ".png":
		err = png.Encode(f, img)
	default:
		err = fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	return err
}
