package rt

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/bmp"
)

// encodeLDR writes the display-referred framebuffer as PNG or BMP.
func encodeLDR(w io.Writer, format string, img *image.RGBA) error {
	switch format {
	case "bmp":
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("error encoding BMP: %w", err)
		}
	default:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("error encoding PNG: %w", err)
		}
	}
	return nil
}

// encodeHDR writes the linear radiance framebuffer as Radiance RGBE,
// bypassing the gamma encode and byte clamp the LDR paths apply.
func encodeHDR(w io.Writer, linear []Spectrum, width, height int) error {
	img := hdr.NewRGB(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := linear[y*width+x]
			img.SetRGB(x, y, hdrcolor.RGB{R: p.X, G: p.Y, B: p.Z})
		}
	}
	if err := rgbe.Encode(w, img); err != nil {
		return fmt.Errorf("error encoding RGBE: %w", err)
	}
	return nil
}

// outputFormat resolves the effective image format from an explicit
// format string, falling back to the file extension, then PNG.
func outputFormat(format, filename string) string {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "bmp", "png", "hdr":
		return format
	}
	switch strings.ToLower(strings.TrimPrefix(fileExt(filename), ".")) {
	case "bmp":
		return "bmp"
	case "hdr":
		return "hdr"
	default:
		return "png"
	}
}

func fileExt(filename string) string {
	for i := len(filename) - 1; i >= 0 && filename[i] != '/'; i-- {
		if filename[i] == '.' {
			return filename[i:]
		}
	}
	return ""
}
