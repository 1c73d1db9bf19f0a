package htmlexport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-htmlexport/internal/assets"
	"github.com/alnah/go-htmlexport/internal/docxconv"
	"github.com/alnah/go-htmlexport/internal/emoji"
	"github.com/alnah/go-htmlexport/internal/images"
	"github.com/alnah/go-htmlexport/internal/mathrender"
	"github.com/alnah/go-htmlexport/internal/pdfinfo"
	"github.com/alnah/go-htmlexport/internal/transform"
)

// Default limits.
const (
	defaultTimeout     = 30 * time.Second
	DefaultMaxHTMLSize = 50 << 20
)

// Compile-time interface checks.
var (
	_ transform.MathRenderer = (*mathrender.Client)(nil)
	_ transform.Rasterizer   = (*emoji.Rasterizer)(nil)
)

// Exporter turns HTML into PDF or Word documents. The PDF path owns a
// headless browser, started on first use; call Close to release it.
//
// An Exporter serializes PDF rendering internally. Use ExporterPool for
// parallel PDF exports.
type Exporter struct {
	cfg        exporterConfig
	logger     *zap.Logger
	math       transform.MathRenderer
	rasterizer transform.Rasterizer
	httpClient *http.Client
	styles     assets.StyleLoader
	pdf        pdfConverter
	validate   func([]byte) (pdfinfo.Info, error)
	docx       *docxconv.Converter
}

type exporterConfig struct {
	timeout      time.Duration
	imageTimeout time.Duration
	maxHTMLSize  int64
	baseDir      string
	noLocalImg   bool
	styleDir     string
	styleName    string
	emojiFonts   []string
	policy       transform.Policy
	page         PageSettings
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithTimeout sets the browser page-load timeout used when the context
// carries no deadline.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("htmlexport: timeout must be positive")
	}
	return func(e *Exporter) { e.cfg.timeout = d }
}

// WithLogger sets the structured logger shared by every stage.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMathRenderer replaces the HTTP formula renderer.
func WithMathRenderer(r transform.MathRenderer) Option {
	return func(e *Exporter) { e.math = r }
}

// WithHTTPClient sets the client for formula requests and remote images.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Exporter) { e.httpClient = c }
}

// WithEmojiFonts sets the color emoji fonts tried by the PDF rasterizer.
func WithEmojiFonts(paths ...string) Option {
	return func(e *Exporter) { e.cfg.emojiFonts = paths }
}

// WithBaseDir sets the directory local image paths resolve against.
func WithBaseDir(dir string) Option {
	return func(e *Exporter) { e.cfg.baseDir = dir }
}

// WithLocalImages controls whether images may be read from the local
// filesystem. When disabled, every filesystem source, file:// URLs
// included, is replaced by its alt text in both formats.
func WithLocalImages(allow bool) Option {
	return func(e *Exporter) { e.cfg.noLocalImg = !allow }
}

// WithMaxHTMLSize bounds the Word input. Non-positive values keep the default.
func WithMaxHTMLSize(n int64) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.cfg.maxHTMLSize = n
		}
	}
}

// WithPolicy overrides the failure policy of both pipelines.
func WithPolicy(p transform.Policy) Option {
	return func(e *Exporter) { e.cfg.policy = p }
}

// WithStyleDir loads the print stylesheet from dir when it holds one.
func WithStyleDir(dir string) Option {
	return func(e *Exporter) { e.cfg.styleDir = dir }
}

// WithStyle selects the stylesheet by name.
func WithStyle(name string) Option {
	return func(e *Exporter) {
		if name != "" {
			e.cfg.styleName = name
		}
	}
}

// WithPage sets the PDF page size, orientation and margins.
func WithPage(p PageSettings) Option {
	return func(e *Exporter) { e.cfg.page = p }
}

// WithImageTimeout sets the per-image fetch timeout of the Word path.
func WithImageTimeout(d time.Duration) Option {
	return func(e *Exporter) {
		if d > 0 {
			e.cfg.imageTimeout = d
		}
	}
}

// withPDFConverter injects the PDF backend (tests).
func withPDFConverter(c pdfConverter) Option {
	return func(e *Exporter) { e.pdf = c }
}

// withValidator replaces the PDF validator (tests).
func withValidator(v func([]byte) (pdfinfo.Info, error)) Option {
	return func(e *Exporter) { e.validate = v }
}

// withRasterizer replaces the emoji rasterizer (tests).
func withRasterizer(r transform.Rasterizer) Option {
	return func(e *Exporter) { e.rasterizer = r }
}

// New creates an Exporter. The browser is not started until the first PDF
// export.
func New(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		cfg: exporterConfig{
			timeout:      defaultTimeout,
			imageTimeout: images.DefaultTimeout,
			maxHTMLSize:  DefaultMaxHTMLSize,
			styleName:    assets.DefaultStyleName,
			page:         DefaultPageSettings(),
		},
		logger:   zap.NewNop(),
		validate: pdfinfo.Validate,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.page.Validate(); err != nil {
		return nil, err
	}

	styles, err := assets.NewAssetResolver(e.cfg.styleDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStyleDir, err)
	}
	e.styles = styles

	if e.math == nil {
		mopts := []mathrender.Option{mathrender.WithLogger(e.logger)}
		if e.httpClient != nil {
			mopts = append(mopts, mathrender.WithHTTPClient(e.httpClient))
		}
		e.math = mathrender.New(mopts...)
	}
	if e.rasterizer == nil {
		ropts := []emoji.Option{emoji.WithLogger(e.logger)}
		if len(e.cfg.emojiFonts) > 0 {
			ropts = append(ropts, emoji.WithFontPaths(e.cfg.emojiFonts...))
		}
		e.rasterizer = emoji.NewRasterizer(ropts...)
	}
	if e.pdf == nil {
		e.pdf = newRodConverter(e.cfg.timeout, e.logger)
	}
	e.docx = docxconv.New(docxconv.WithLogger(e.logger))

	return e, nil
}

// Close releases the browser.
func (e *Exporter) Close() error {
	if e.pdf != nil {
		return e.pdf.Close()
	}
	return nil
}

// engine builds a transformation engine for target.
func (e *Exporter) engine(target transform.Target) *transform.Engine {
	opts := []transform.Option{
		transform.WithMathRenderer(e.math),
		transform.WithLogger(e.logger),
	}
	if target == transform.TargetPDF {
		opts = append(opts, transform.WithRasterizer(e.rasterizer))
	}
	if p := e.policy(target); p != nil {
		opts = append(opts, transform.WithPolicy(p))
	}
	return transform.New(target, opts...)
}

// policy merges the configured policy over the target's default so unset
// kinds keep their usual action. It returns nil without an override.
func (e *Exporter) policy(target transform.Target) transform.Policy {
	if e.cfg.policy == nil {
		return nil
	}
	base := transform.DefaultPolicy
	if target == transform.TargetWord {
		base = transform.WordPolicy()
	}
	merged := make(transform.Policy, len(base)+len(e.cfg.policy))
	for k, a := range base {
		merged[k] = a
	}
	for k, a := range e.cfg.policy {
		merged[k] = a
	}
	return merged
}

// transformErr maps an engine failure to the package sentinels. A canceled
// context is returned as is.
func transformErr(err error) error {
	if errors.Is(err, transform.ErrAborted) {
		return fmt.Errorf("%w: %w", ErrTransform, err)
	}
	return err
}
