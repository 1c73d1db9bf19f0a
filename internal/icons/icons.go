// Package icons draws the small PNG icons used on the PDF path: alert
// badges and task-list checkboxes. Icons are generated once per process and
// served as data URIs.
package icons

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Size is the edge length of every icon in pixels. Icons are drawn large
// and scaled down by the page.
const Size = 64

type shape int

const (
	circle shape = iota
	roundedSquare
	triangle
	octagon
)

type badge struct {
	shape shape
	fill  color.NRGBA
	glyph string
}

var badges = map[string]badge{
	"note":      {shape: circle, fill: rgb(0x09, 0x69, 0xda), glyph: "i"},
	"tip":       {shape: circle, fill: rgb(0x1a, 0x7f, 0x37), glyph: "*"},
	"important": {shape: roundedSquare, fill: rgb(0x82, 0x50, 0xdf), glyph: "!"},
	"warning":   {shape: triangle, fill: rgb(0x9a, 0x67, 0x00), glyph: "!"},
	"caution":   {shape: octagon, fill: rgb(0xd1, 0x24, 0x2f), glyph: "!"},
}

var (
	mu   sync.Mutex
	uris = make(map[string]string)
)

// AlertURI returns the data URI of the badge for an alert kind. Unknown
// kinds get the note badge.
func AlertURI(kind string) string {
	b, ok := badges[kind]
	if !ok {
		kind, b = "note", badges["note"]
	}
	return memo("alert-"+kind, func() image.Image { return drawBadge(b) })
}

// CheckboxURI returns the data URI of a checked or empty checkbox.
func CheckboxURI(checked bool) string {
	if checked {
		return memo("checkbox-checked", func() image.Image { return drawCheckbox(true) })
	}
	return memo("checkbox-empty", func() image.Image { return drawCheckbox(false) })
}

func memo(key string, render func() image.Image) string {
	mu.Lock()
	defer mu.Unlock()
	if uri, ok := uris[key]; ok {
		return uri
	}
	uri := DataURI(encode(render()))
	uris[key] = uri
	return uri
}

// DataURI wraps PNG bytes in a base64 data URI.
func DataURI(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}

func encode(img image.Image) []byte {
	var buf bytes.Buffer
	// Encoding an in-memory NRGBA cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func drawBadge(b badge) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	z := vector.NewRasterizer(Size, Size)
	s := float32(Size)

	switch b.shape {
	case circle:
		ellipse(z, s/2, s/2, s/2-2)
	case roundedSquare:
		roundRect(z, 2, 2, s-2, s-2, 10)
	case triangle:
		z.MoveTo(s/2, 3)
		z.LineTo(s-2, s-5)
		z.LineTo(2, s-5)
		z.ClosePath()
	case octagon:
		polygon(z, s/2, s/2, s/2-2, 8, math.Pi/8)
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(b.fill), image.Point{})

	baseline := Size * 3 / 4
	if b.shape == triangle {
		baseline = Size - 10
	}
	drawGlyph(dst, b.glyph, baseline)
	return dst
}

func drawCheckbox(checked bool) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	s := float32(Size)

	outer := vector.NewRasterizer(Size, Size)
	roundRect(outer, 4, 4, s-4, s-4, 8)
	if !checked {
		outer.Draw(dst, dst.Bounds(), image.NewUniform(rgb(0x8c, 0x95, 0x9f)), image.Point{})
		inner := vector.NewRasterizer(Size, Size)
		roundRect(inner, 9, 9, s-9, s-9, 4)
		inner.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{})
		return dst
	}

	outer.Draw(dst, dst.Bounds(), image.NewUniform(rgb(0x09, 0x69, 0xda)), image.Point{})
	tick := vector.NewRasterizer(Size, Size)
	pts := [][2]float32{{0.22, 0.52}, {0.42, 0.72}, {0.80, 0.32}, {0.71, 0.23}, {0.42, 0.54}, {0.31, 0.43}}
	tick.MoveTo(pts[0][0]*s, pts[0][1]*s)
	for _, p := range pts[1:] {
		tick.LineTo(p[0]*s, p[1]*s)
	}
	tick.ClosePath()
	tick.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{})
	return dst
}

var (
	faceOnce sync.Once
	face     font.Face
)

func glyphFace() font.Face {
	faceOnce.Do(func() {
		f, err := opentype.Parse(gobold.TTF)
		if err != nil {
			return
		}
		face, _ = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    Size * 0.6,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return face
}

// drawGlyph centers text horizontally in white on the given baseline.
func drawGlyph(dst draw.Image, text string, baseline int) {
	f := glyphFace()
	if f == nil {
		return
	}
	width := font.MeasureString(f, text).Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: f,
		Dot:  fixed.P((Size-width)/2, baseline),
	}
	d.DrawString(text)
}

// ellipse adds a circle approximated by four cubic Béziers.
func ellipse(z *vector.Rasterizer, cx, cy, r float32) {
	const k = 0.5523
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k*r, cx+k*r, cy+r, cx, cy+r)
	z.CubeTo(cx-k*r, cy+r, cx-r, cy+k*r, cx-r, cy)
	z.CubeTo(cx-r, cy-k*r, cx-k*r, cy-r, cx, cy-r)
	z.CubeTo(cx+k*r, cy-r, cx+r, cy-k*r, cx+r, cy)
	z.ClosePath()
}

func roundRect(z *vector.Rasterizer, x0, y0, x1, y1, r float32) {
	z.MoveTo(x0+r, y0)
	z.LineTo(x1-r, y0)
	z.QuadTo(x1, y0, x1, y0+r)
	z.LineTo(x1, y1-r)
	z.QuadTo(x1, y1, x1-r, y1)
	z.LineTo(x0+r, y1)
	z.QuadTo(x0, y1, x0, y1-r)
	z.LineTo(x0, y0+r)
	z.QuadTo(x0, y0, x0+r, y0)
	z.ClosePath()
}

func polygon(z *vector.Rasterizer, cx, cy, r float32, sides int, phase float64) {
	for i := 0; i < sides; i++ {
		a := phase + 2*math.Pi*float64(i)/float64(sides)
		x := cx + r*float32(math.Cos(a))
		y := cy + r*float32(math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
