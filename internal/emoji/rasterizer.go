package emoji

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Size is the edge length of rendered emoji bitmaps, in pixels.
const Size = 64

// drawSize is the font size used before cropping; twice the output leaves
// room for glyphs that overflow their advance.
const drawSize = Size * 2

// DefaultFontPaths are tried in order; the embedded Go font is the last resort.
var DefaultFontPaths = []string{
	`C:\Windows\Fonts\seguiemj.ttf`,
	"/System/Library/Fonts/Apple Color Emoji.ttc",
	"/usr/share/fonts/truetype/noto/NotoEmoji-Regular.ttf",
	"/usr/share/fonts/noto/NotoEmoji-Regular.ttf",
	"/usr/share/fonts/truetype/ancient-scripts/Symbola_hint.ttf",
	"/usr/share/fonts/TTF/Symbola.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
}

// ErrNoGlyph is returned when no loaded font draws visible pixels for a
// cluster.
var ErrNoGlyph = errors.New("no font has a glyph for emoji")

// shared is the process-wide bitmap cache, keyed by cluster.
var shared = cache.New(cache.NoExpiration, 0)

// Rasterizer renders emoji clusters to Size x Size PNGs.
// It is safe for concurrent use.
type Rasterizer struct {
	paths  []string
	cache  *cache.Cache
	logger *zap.Logger

	once  sync.Once
	mu    sync.Mutex // guards faces, which are not safe for concurrent use
	faces []fontFace
}

type fontFace struct {
	font *opentype.Font
	face font.Face
}

// covers reports whether the font maps every rune of text to a real glyph.
func (f fontFace) covers(text string) bool {
	var buf sfnt.Buffer
	for _, r := range text {
		idx, err := f.font.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			return false
		}
	}
	return true
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithFontPaths replaces DefaultFontPaths.
func WithFontPaths(paths ...string) Option {
	return func(r *Rasterizer) { r.paths = paths }
}

// WithCache uses c instead of the process-wide cache.
func WithCache(c *cache.Cache) Option {
	return func(r *Rasterizer) { r.cache = c }
}

// WithLogger sets the logger used when a font fails to load.
func WithLogger(l *zap.Logger) Option {
	return func(r *Rasterizer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRasterizer creates a rasterizer. Fonts are loaded on first use.
func NewRasterizer(opts ...Option) *Rasterizer {
	r := &Rasterizer{
		paths:  DefaultFontPaths,
		cache:  shared,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rasterize returns the PNG for cluster, rendering it on first request.
// Concurrent first requests may both render; the results are identical.
func (r *Rasterizer) Rasterize(cluster string) ([]byte, error) {
	if cached, ok := r.cache.Get(cluster); ok {
		return cached.([]byte), nil
	}

	r.once.Do(r.loadFaces)

	text := Visible(cluster)
	if text == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoGlyph, cluster)
	}
	img := r.draw(text)
	if img == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoGlyph, cluster)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding emoji: %w", err)
	}
	r.cache.Set(cluster, buf.Bytes(), cache.NoExpiration)
	return buf.Bytes(), nil
}

// draw renders text with the first font covering it.
func (r *Rasterizer) draw(text string) *image.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.faces {
		if !f.covers(text) {
			continue
		}
		if img, ok := render(f.face, text); ok {
			return img
		}
	}
	return nil
}

func (r *Rasterizer) loadFaces() {
	for _, path := range r.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := loadFace(data, strings.HasSuffix(strings.ToLower(path), ".ttc"))
		if err != nil {
			r.logger.Debug("emoji font unusable", zap.String("path", path), zap.Error(err))
			continue
		}
		r.faces = append(r.faces, f)
	}
	if f, err := loadFace(goregular.TTF, false); err == nil {
		r.faces = append(r.faces, f)
	}
}

// loadFace parses a font file and returns a face at drawSize points.
func loadFace(data []byte, collection bool) (fontFace, error) {
	var f *opentype.Font
	if collection {
		c, err := opentype.ParseCollection(data)
		if err != nil {
			return fontFace{}, err
		}
		if f, err = c.Font(0); err != nil {
			return fontFace{}, err
		}
	} else {
		var err error
		if f, err = opentype.Parse(data); err != nil {
			return fontFace{}, err
		}
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    drawSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fontFace{}, err
	}
	return fontFace{font: f, face: face}, nil
}

// render draws text, crops it to its ink and fits it centered on a
// Size x Size transparent canvas. ok is false when nothing was drawn, as
// with color-bitmap glyphs the vector rasterizer cannot paint.
func render(face font.Face, text string) (*image.NRGBA, bool) {
	w := drawSize * 3
	canvas := image.NewNRGBA(image.Rect(0, 0, w, w))
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.NRGBA{R: 0x24, G: 0x29, B: 0x2f, A: 0xff}),
		Face: face,
		Dot:  fixed.P(drawSize/2, drawSize*2),
	}
	d.DrawString(text)

	ink := inkBounds(canvas)
	if ink.Empty() {
		return nil, false
	}

	out := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(out, out.Bounds(), image.Transparent, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(out, fit(ink.Dx(), ink.Dy()), canvas, ink, xdraw.Over, nil)
	return out, true
}

// inkBounds returns the smallest rectangle holding every non-transparent pixel.
func inkBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// fit returns the centered target rectangle for a w x h source scaled to
// fit Size x Size while keeping its aspect ratio.
func fit(w, h int) image.Rectangle {
	tw, th := Size, Size
	if w > h {
		th = max(1, h*Size/w)
	} else {
		tw = max(1, w*Size/h)
	}
	x := (Size - tw) / 2
	y := (Size - th) / 2
	return image.Rect(x, y, x+tw, y+th)
}
