package htmlexport

import (
	"context"
	"fmt"

	"github.com/alnah/go-htmlexport/internal/pluginstate"
	"github.com/alnah/go-htmlexport/internal/registry"
)

// Feature names.
const (
	FeaturePDF  = "pdf_export"
	FeatureDOCX = "docx"
)

// backend is what a feature handler exports through: a single Exporter or
// a pool of them.
type backend interface {
	ExportPDF(ctx context.Context, content string) (*PDFResult, error)
	ExportWord(ctx context.Context, content string) (*WordResult, error)
}

var (
	_ backend = (*Exporter)(nil)
	_ backend = (*ExporterPool)(nil)
)

// GetFeatures describes the export features backed by exp. The PDF feature
// is experimental and counts as installed only while state lists it; its
// handler checks again on every call. When reg is still initializing the
// features are registered into it as well.
func GetFeatures(reg *registry.Registry, exp *Exporter, state *pluginstate.Store) []registry.Feature {
	return features(reg, exp, state)
}

// GetPoolFeatures is GetFeatures for handlers that borrow an Exporter from
// pool per call.
func GetPoolFeatures(reg *registry.Registry, pool *ExporterPool, state *pluginstate.Store) []registry.Feature {
	return features(reg, pool, state)
}

func features(reg *registry.Registry, b backend, state *pluginstate.Store) []registry.Feature {
	installed := func() bool { return state != nil && state.IsInstalled(FeaturePDF) }

	list := []registry.Feature{
		{
			Name:        FeaturePDF,
			Label:       "PDF Document (.pdf)",
			Extension:   "pdf",
			Description: "Print the document through headless Chrome.",
			Kind:        registry.KindExportHandler,
			Tier:        registry.TierExperimental,
			Installed:   installed(),
			Handler: func(ctx context.Context, html string) ([]byte, error) {
				if !installed() {
					return nil, fmt.Errorf("%w: %s", ErrFeatureNotInstalled, FeaturePDF)
				}
				res, err := b.ExportPDF(ctx, html)
				if err != nil {
					return nil, err
				}
				return res.PDF, nil
			},
		},
		{
			Name:        FeatureDOCX,
			Label:       "Word Document (.docx)",
			Extension:   "docx",
			Description: "Convert the document to an editable Word file.",
			Kind:        registry.KindExportHandler,
			Tier:        registry.TierStandard,
			Installed:   true,
			Handler: func(ctx context.Context, html string) ([]byte, error) {
				res, err := b.ExportWord(ctx, html)
				if err != nil {
					return nil, err
				}
				return res.DOCX, nil
			},
		},
	}

	if reg != nil && !reg.Frozen() {
		_ = reg.RegisterAll(list...)
	}
	return list
}
