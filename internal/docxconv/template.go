package docxconv

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/fumiama/go-docx"
)

//go:embed template/styles.xml
var templateFS embed.FS

// templateName is the directory go-docx reads its template files from.
const templateName = "default"

// styleOverlay serves our styles.xml in place of the go-docx default and
// delegates every other template file to the library.
type styleOverlay struct{}

var _ fs.FS = styleOverlay{}

func (styleOverlay) Open(name string) (fs.File, error) {
	if name == "xml/"+templateName+"/word/styles.xml" {
		f, err := templateFS.Open("template/styles.xml")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTemplateFile, err)
		}
		return f, nil
	}
	return docx.TemplateXMLFS.Open(name)
}

// newDocument returns an empty A4 document using the export styles. The page
// section is appended by finish once the body is complete.
func newDocument() *docx.Docx {
	return docx.New().UseTemplate(templateName, docx.DefaultTemplateFilesList, styleOverlay{})
}
