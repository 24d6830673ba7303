package rt

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr/codec/rgbe"
)

// EnvImage is a latitude-longitude environment map: a W x H grid of
// Spectrum radiance values addressed by the (u,v) convention in
// sphere_geom.go. The triangulation builder estimates density from
// it, and the sampler facade evaluates it on a miss.
//
// LDR images (PNG/JPEG) are supported for test fixtures ("Const white
// 8x4" etc. in the test scenarios) via the stdlib image package; real
// HDR environment maps are Radiance RGBE (.hdr) files decoded through
// mdouchement/hdr's rgbe package, since the stdlib cannot represent
// unclamped radiance values.
type EnvImage struct {
	width, height int
	pixels        []Spectrum
	rotateU       float64
	scale         float64
	bilinear      bool
}

// NewConstEnvImage builds a uniform environment of the given
// resolution and radiance, matching the "Const white WxH" fixtures
// named in the test scenarios.
func NewConstEnvImage(width, height int, radiance Spectrum) *EnvImage {
	px := make([]Spectrum, width*height)
	for i := range px {
		px[i] = radiance
	}
	return &EnvImage{width: width, height: height, pixels: px, scale: 1.0, bilinear: true}
}

// NewSinglePixelEnvImage builds a 1x1 environment, the degenerate
// case exercised by the "Single pixel.exr" test scenario: every
// direction maps to the same radiance regardless of the lat-long
// mapping's distortion near the poles.
func NewSinglePixelEnvImage(radiance Spectrum) *EnvImage {
	return NewConstEnvImage(1, 1, radiance)
}

// LoadEnvImage resolves filename against the RTW_IMAGES/assets search
// path (mirroring rtw_image.go's convention) and decodes it, routing
// .hdr files through rgbe and everything else through image.Decode.
func LoadEnvImage(filename string) (*EnvImage, error) {
	return LoadEnvImageWithParams(filename, 0, 1.0)
}

// LoadEnvImageWithParams is LoadEnvImage with the two load-time
// parameters: rotateU rigidly rotates the map about
// the vertical (pole) axis before any sampling, and scale multiplies
// every loaded radiance value (for e.g. matching an HDRI's exposure
// to a scene's unit convention).
func LoadEnvImageWithParams(filename string, rotateU, scale float64) (*EnvImage, error) {
	path, err := findEnvAsset(filename)
	if err != nil {
		return nil, err
	}

	var img *EnvImage
	if strings.EqualFold(filepath.Ext(path), ".hdr") {
		img, err = loadRGBE(path)
	} else {
		img, err = loadLDR(path)
	}
	if err != nil {
		return nil, err
	}
	img.rotateU = rotateU
	img.scale = scale
	return img, nil
}

func findEnvAsset(filename string) (string, error) {
	searchPaths := []string{filename}
	if dir := os.Getenv("RTW_IMAGES"); dir != "" {
		searchPaths = append(searchPaths, filepath.Join(dir, filename))
	}
	searchPaths = append(searchPaths,
		filepath.Join("hdri", filename),
		filepath.Join("assets", "hdri", filename),
		filepath.Join("..", "hdri", filename),
		filepath.Join("..", "assets", "hdri", filename),
	)
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("environment image %q not found in any search path", filename)
}

func loadRGBE(path string) (*EnvImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hdrImg, err := rgbe.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rgbe %s: %w", path, err)
	}

	bounds := hdrImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	px := make([]Spectrum, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := hdrImg.HDRAt(x+bounds.Min.X, y+bounds.Min.Y).HDRRGBA()
			px[y*w+x] = Spectrum{X: r, Y: g, Z: b}
		}
	}
	return &EnvImage{width: w, height: h, pixels: px, scale: 1.0, bilinear: true}, nil
}

func loadLDR(path string) (*EnvImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := decoded.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	px := make([]Spectrum, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := decoded.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			px[y*w+x] = Spectrum{
				X: LinearToGamma(float64(r) / 65535.0),
				Y: LinearToGamma(float64(g) / 65535.0),
				Z: LinearToGamma(float64(b) / 65535.0),
			}
		}
	}
	return &EnvImage{width: w, height: h, pixels: px, scale: 1.0, bilinear: true}, nil
}

func (e *EnvImage) Width() int  { return e.width }
func (e *EnvImage) Height() int { return e.height }

// Bilinear reports whether lookups blend four neighbours or snap to
// the nearest texel. The mode is part of the sampler cache identity
// (see CachePath), since the triangulation was built against one
// specific reconstruction of the image.
func (e *EnvImage) Bilinear() bool { return e.bilinear }

// SetBilinear switches between bilinear and nearest-neighbour
// lookup. Only meaningful before a Sampler is built over the image.
func (e *EnvImage) SetBilinear(enabled bool) {
	e.bilinear = enabled
}

// At returns the nearest-sample radiance for integer pixel (x,y),
// clamping to the image bounds.
func (e *EnvImage) At(x, y int) Spectrum {
	if x < 0 {
		x = 0
	}
	if x >= e.width {
		x = e.width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= e.height {
		y = e.height - 1
	}
	return e.pixels[y*e.width+x]
}

// EvalUV evaluates radiance at continuous (u,v) coordinates in
// [0,1)x[0,1), either snapping to the nearest texel or blending the
// four neighbours with a bilinear tent, per the image's filter mode.
// u wraps horizontally (longitude is periodic); a v that overshoots
// past a pole doesn't clamp flat but wraps across the pole through
// the antipodal column (x <- x + W/2), since every column converges
// to the same physical point at theta=0 or theta=pi.
func (e *EnvImage) EvalUV(u, v float64) Spectrum {
	u += e.rotateU
	u -= floorF(u)

	if !e.bilinear {
		x := int(floorF(u * float64(e.width)))
		y := int(floorF(v * float64(e.height)))
		return e.sampleAt(x, y).Scale(e.scale)
	}

	fx := u*float64(e.width) - 0.5
	fy := v*float64(e.height) - 0.5

	x0 := int(floorF(fx))
	y0 := int(floorF(fy))
	tx := fx - floorF(fx)
	ty := fy - floorF(fy)

	c00 := e.sampleAt(x0, y0)
	c10 := e.sampleAt(x0+1, y0)
	c01 := e.sampleAt(x0, y0+1)
	c11 := e.sampleAt(x0+1, y0+1)

	top := lerpVec(c00, c10, tx)
	bot := lerpVec(c01, c11, tx)
	return lerpVec(top, bot, ty).Scale(e.scale)
}

// sampleAt fetches pixel (x,y), wrapping x around the horizontal
// period and, when y steps past a pole, reflecting back into range
// through the antipodal column instead of clamping flat.
func (e *EnvImage) sampleAt(x, y int) Spectrum {
	if y < 0 {
		y = -y - 1
		x += e.width / 2
	} else if y >= e.height {
		y = 2*e.height - y - 1
		x += e.width / 2
	}
	if y < 0 {
		y = 0
	}
	if y >= e.height {
		y = e.height - 1
	}
	x %= e.width
	if x < 0 {
		x += e.width
	}
	return e.pixels[y*e.width+x]
}

// Eval evaluates radiance in a world direction via the lat-long mapping.
func (e *EnvImage) Eval(dir Vec3) Spectrum {
	u, v := DirectionToLatLong(dir)
	return e.EvalUV(u, v)
}

func lerpVec(a, b Spectrum, t float64) Spectrum {
	return a.Scale(1 - t).Add(b.Scale(t))
}

func floorF(x float64) float64 {
	i := float64(int64(x))
	if x < 0 && i != x {
		return i - 1
	}
	return i
}
