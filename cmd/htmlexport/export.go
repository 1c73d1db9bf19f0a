package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/markdown"
	"github.com/alnah/go-htmlexport/internal/transform"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrReadInput        = errors.New("failed to read input file")
	ErrWriteOutput      = errors.New("failed to write output file")
	ErrInvalidExtension = errors.New("input must be .html, .htm, .md or .markdown")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// inputExtensions are the accepted input file types.
var inputExtensions = []string{".html", ".htm", ".md", ".markdown"}

// stdioPath reads from stdin or writes to stdout.
const stdioPath = "-"

// exportTarget selects the output format of an export command.
type exportTarget string

const (
	targetPDF  exportTarget = "pdf"
	targetDOCX exportTarget = "docx"
)

// exporter is the subset of *htmlexport.Exporter the export command drives.
type exporter interface {
	ExportPDF(ctx context.Context, content string) (*htmlexport.PDFResult, error)
	ExportWord(ctx context.Context, content string) (*htmlexport.WordResult, error)
	Close() error
}

var _ exporter = (*htmlexport.Exporter)(nil)

// runExport converts one input file to target.
func runExport(ctx context.Context, target exportTarget, args []string, env *Environment) error {
	flags, positional, err := parseExportFlags(string(target), args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		printExportUsage(env.Stderr, string(target))
		return ErrNoInput
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected one input, got %d", ErrUsage, len(positional))
	}
	timeout, err := parseTimeout(flags.timeout)
	if err != nil {
		return err
	}

	inputPath := positional[0]
	outputPath := resolveOutputPath(inputPath, flags.output, target)

	sess, err := openSession(flags.common, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if target == targetPDF && !sess.plugins().IsInstalled(htmlexport.FeaturePDF) {
		return fmt.Errorf("%w: %s", htmlexport.ErrFeatureNotInstalled, htmlexport.FeaturePDF)
	}

	content, err := readInput(ctx, inputPath, env.Stdin)
	if err != nil {
		return err
	}

	opts := sess.exporterOptions(timeout)
	if sess.cfg.Word.BaseDir == "" && inputPath != stdioPath {
		// Relative references in the input resolve next to it.
		opts = append(opts, htmlexport.WithBaseDir(filepath.Dir(inputPath)))
	}
	exp, err := htmlexport.New(opts...)
	if err != nil {
		return err
	}
	defer func() { _ = exp.Close() }()

	start := env.Now()
	data, summary, err := export(ctx, exp, target, content, sess.logger)
	if err != nil {
		return err
	}

	if err := writeOutput(outputPath, data, env.Stdout); err != nil {
		return err
	}
	if !flags.common.quiet && outputPath != stdioPath {
		fmt.Fprintf(env.Stderr, "%s -> %s (%s, %s)\n",
			inputPath, outputPath, summary, env.Now().Sub(start).Round(time.Millisecond))
	}
	return nil
}

// export runs the pipeline for target and returns the bytes with a short
// human-readable summary.
func export(ctx context.Context, exp exporter, target exportTarget, content string, logger *zap.Logger) ([]byte, string, error) {
	switch target {
	case targetPDF:
		res, err := exp.ExportPDF(ctx, content)
		if err != nil {
			return nil, "", err
		}
		logReport(logger, res.Report)
		return res.PDF, pluralize(res.Pages, "page"), nil
	default:
		res, err := exp.ExportWord(ctx, content)
		if err != nil {
			return nil, "", err
		}
		logReport(logger, res.Report)
		if res.Failure != nil {
			logger.Warn("word post-processing failed; document may be incomplete", zap.Error(res.Failure))
		}
		summary := fmt.Sprintf("%s, %s", pluralize(res.Stats.Images, "image"), pluralize(res.Images.Replaced, "placeholder"))
		return res.DOCX, summary, nil
	}
}

// logReport lists the rule failures the pipeline recovered from.
func logReport(logger *zap.Logger, r *transform.Report) {
	if r == nil {
		return
	}
	for _, te := range r.Errors {
		logger.Debug("rule recovered",
			zap.String("rule", te.Rule),
			zap.Stringer("kind", te.Kind),
			zap.Error(te.Err))
	}
}

// readInput loads the input as HTML. Markdown files are rendered first and
// stdioPath reads HTML from stdin.
func readInput(ctx context.Context, path string, stdin io.Reader) (string, error) {
	if path == stdioPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		return string(data), nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(inputExtensions, ext) {
		return "", fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	if ext == ".md" || ext == ".markdown" {
		html, _, err := markdown.New().Render(ctx, string(data))
		if err != nil {
			return "", err
		}
		return html, nil
	}
	return string(data), nil
}

// resolveOutputPath returns the explicit output, stdout for stdin input, or
// the input path with the target's extension.
func resolveOutputPath(input, output string, target exportTarget) string {
	if output != "" {
		return output
	}
	if input == stdioPath {
		return stdioPath
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + string(target)
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdioPath {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
