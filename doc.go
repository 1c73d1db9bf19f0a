// Package htmlexport converts rendered HTML documents to PDF and Word.
//
// # Quick Start
//
//	exp, err := htmlexport.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	pdf, err := exp.ExportPDF(ctx, page)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.pdf", pdf.PDF, 0644)
//
//	doc, err := exp.ExportWord(ctx, page)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.docx", doc.DOCX, 0644)
//
// # PDF Pipeline
//
//  1. The content container is extracted (#documentContent, .markdown-content,
//     .content-area, or the body minus screen-only chrome).
//  2. The transformation passes rewrite math, alerts, tabs, details, task
//     lists, footnotes and emoji into print-safe markup.
//  3. The result is sanitized and wrapped in a page carrying only the print
//     stylesheet.
//  4. Headless Chrome (go-rod) prints it, and pdfcpu validates the output.
//
// # Word Pipeline
//
//  1. Input over the size limit (50 MB by default) is rejected. Scripts,
//     styles and navigation are stripped and the table of contents is kept
//     ahead of the content.
//  2. The transformation passes run with the Word policy, where renderer
//     failures fall back instead of aborting.
//  3. Images are resolved into a temporary directory that is removed when
//     the export returns.
//  4. The tree is converted to a .docx with github.com/fumiama/go-docx and
//     post-processed for bookmarks, internal links, table shading and image
//     fitting.
//
// A Word export that fails midway still returns a document. It ends with an
// error notice and WordResult.Failure is set.
//
// # Configuration
//
//	exp, err := htmlexport.New(
//	    htmlexport.WithTimeout(time.Minute),
//	    htmlexport.WithPage(htmlexport.PageSettings{Size: "letter", MarginCM: 1.5}),
//	    htmlexport.WithLogger(logger),
//	    htmlexport.WithBaseDir("/srv/docs"),
//	)
//
// # Features
//
// GetFeatures exposes both exports as registry features for host
// applications. The PDF feature is experimental and must be enabled in the
// plugin state file.
//
// # Parallel Processing
//
// ExporterPool lends Exporters, each with its own browser:
//
//	pool := htmlexport.NewExporterPool(htmlexport.ResolvePoolSize(0))
//	defer pool.Close()
//
//	res, err := pool.ExportPDF(ctx, page)
package htmlexport
