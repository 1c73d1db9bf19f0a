// Package images resolves <img> sources for the Word exporter. Every image
// the converter will embed is fetched, decoded, flattened onto white and
// written into a per-export scratch directory; anything that cannot be
// turned into a raster Word accepts is replaced by its alt text.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // registers GIF for image.Decode
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers WebP for image.Decode
	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/fileutil"
	"github.com/alnah/go-htmlexport/internal/htmltree"
)

const (
	// DefaultTimeout bounds a single remote image fetch.
	DefaultTimeout = 3 * time.Second

	// DefaultAlt replaces an empty alt on unresolvable images.
	DefaultAlt = "Image"

	// MaxPixelWidth caps decoded images; wider ones are downscaled before
	// embedding.
	MaxPixelWidth = 2400

	maxImageBytes = 20 << 20
	userAgent     = "Mozilla/5.0 (compatible; htmlexport)"
)

// Sentinel errors for image resolution.
var (
	ErrSVG         = errors.New("svg images are not supported by Word")
	ErrUnsupported = errors.New("unsupported image format")
	ErrNotFound    = errors.New("image not found")
	ErrFetch       = errors.New("image fetch failed")
	ErrEmptySource = errors.New("image has no source")
)

// ErrLocalDisabled is returned for filesystem sources when the resolver was
// built WithoutLocalFiles.
var ErrLocalDisabled = errors.New("local image files are disabled")

// Stats counts the outcome of ResolveAll.
type Stats struct {
	Resolved int
	Replaced int
}

// Resolver loads image sources into a scratch directory.
type Resolver struct {
	dir     string
	baseDir string
	client  *http.Client
	logger  *zap.Logger
	seq     int
	noLocal bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseDir sets the directory relative sources are resolved against.
// Sources escaping it are refused.
func WithBaseDir(dir string) Option {
	return func(r *Resolver) { r.baseDir = dir }
}

// WithoutLocalFiles refuses every filesystem source, relative or absolute.
// Remote and data: images still resolve.
func WithoutLocalFiles() Option {
	return func(r *Resolver) { r.noLocal = true }
}

// WithHTTPClient replaces the client used for remote images.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout sets the per-fetch timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.client = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for skipped images.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver writing into dir, which must exist.
func New(dir string, opts ...Option) *Resolver {
	r := &Resolver{
		dir:    dir,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll rewrites the src of every img under root to a local file
// path. Images that cannot be resolved are replaced by AltSpan.
func (r *Resolver) ResolveAll(ctx context.Context, root *html.Node) Stats {
	var stats Stats
	for _, img := range htmltree.FindAll(root, "img") {
		if ctx.Err() != nil {
			return stats
		}
		src := strings.TrimSpace(htmltree.Attr(img, "src"))
		local, err := r.Resolve(ctx, src)
		if err != nil {
			r.logger.Debug("image replaced by alt text",
				zap.String("url", truncate(src, 120)),
				zap.Error(err),
			)
			htmltree.Replace(img, AltSpan(htmltree.Attr(img, "alt")))
			stats.Replaced++
			continue
		}
		htmltree.SetAttr(img, "src", local)
		stats.Resolved++
	}
	return stats
}

// Resolve loads src, normalizes it and writes it into the scratch
// directory. The returned path is absolute.
func (r *Resolver) Resolve(ctx context.Context, src string) (string, error) {
	data, err := r.Load(ctx, src)
	if err != nil {
		return "", err
	}
	r.seq++
	name := "image-" + strconv.Itoa(r.seq) + extension(data)
	dst := filepath.Join(r.dir, name)
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return dst, nil
}

// Load returns src as PNG or JPEG bytes ready for embedding.
func (r *Resolver) Load(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, ErrEmptySource
	}

	var (
		raw []byte
		err error
	)
	switch lower := strings.ToLower(src); {
	case fileutil.IsURL(src):
		raw, err = r.fetch(ctx, src)
	case strings.HasPrefix(lower, "data:"):
		raw, err = decodeDataURL(src)
	default:
		raw, err = r.readLocal(src)
	}
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

func (r *Resolver) fetch(ctx context.Context, src string) ([]byte, error) {
	if strings.EqualFold(path.Ext(urlPath(src)), ".svg") {
		return nil, ErrSVG
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "svg") {
		return nil, ErrSVG
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}

func (r *Resolver) readLocal(src string) ([]byte, error) {
	if r.noLocal {
		return nil, ErrLocalDisabled
	}
	p, ok := fileutil.LocalPath(src)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, truncate(src, 40))
	}

	base := r.baseDir
	var err error
	switch {
	case !filepath.IsAbs(p):
		if base == "" {
			base = "."
		}
		p, err = fileutil.ResolveUnder(base, p)
	case base != "":
		p, err = fileutil.ConfineUnder(base, p)
	}
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(p), ".svg") {
		return nil, ErrSVG
	}
	if !fileutil.FileExists(p) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return os.ReadFile(p) // #nosec G304 -- resolved under the base directory
}

func decodeDataURL(src string) ([]byte, error) {
	du, err := dataurl.DecodeString(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if du.Type != "image" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, du.ContentType())
	}
	if strings.Contains(du.Subtype, "svg") {
		return nil, ErrSVG
	}
	return du.Data, nil
}

// Normalize sniffs data and returns bytes Word can embed. JPEG without
// alpha passes through. Everything else is decoded, flattened onto white
// when it has transparency, downscaled past MaxPixelWidth and re-encoded
// as PNG.
func Normalize(data []byte) ([]byte, error) {
	mt := mimetype.Detect(data)
	if mt.Is("image/svg+xml") {
		return nil, ErrSVG
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	wide := img.Bounds().Dx() > MaxPixelWidth
	if mt.Is("image/jpeg") && !wide {
		return data, nil
	}

	out := flatten(img)
	if wide {
		out = downscale(out, MaxPixelWidth)
	}

	var buf bytes.Buffer
	if mt.Is("image/jpeg") {
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90})
	} else {
		err = png.Encode(&buf, out)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten draws img over an opaque white canvas.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func downscale(img *image.RGBA, width int) *image.RGBA {
	b := img.Bounds()
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// AltSpan builds the inline stand-in for an image that could not be
// embedded. Very short alts are usually emoji and get the emoji font.
func AltSpan(alt string) *html.Node {
	alt = strings.TrimSpace(alt)
	if alt == "" {
		alt = DefaultAlt
	}
	style := "color: #666666; font-style: italic; border: 1px solid #cccccc; padding: 2px;"
	if len([]rune(alt)) <= 2 {
		style = "font-family: 'Segoe UI Emoji', sans-serif;"
	}
	span := htmltree.Element("span", "class", "image-alt", "style", style)
	return htmltree.Append(span, htmltree.Text(alt))
}

func extension(data []byte) string {
	if mimetype.Detect(data).Is("image/jpeg") {
		return ".jpg"
	}
	return ".png"
}

func urlPath(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return src
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
