package docxconv

import (
	"encoding/xml"

	"github.com/fumiama/go-docx"
)

// go-docx has no types for bookmarks or same-document hyperlinks. These
// marshal through encoding/xml like the library's own paragraph children.

// BookmarkStart opens a named bookmark.
type BookmarkStart struct {
	XMLName xml.Name `xml:"w:bookmarkStart"`
	ID      int      `xml:"w:id,attr"`
	Name    string   `xml:"w:name,attr"`
}

// BookmarkEnd closes the bookmark with the same ID.
type BookmarkEnd struct {
	XMLName xml.Name `xml:"w:bookmarkEnd"`
	ID      int      `xml:"w:id,attr"`
}

// AnchorLink jumps to a bookmark in the same document.
type AnchorLink struct {
	XMLName xml.Name `xml:"w:hyperlink"`
	Anchor  string   `xml:"w:anchor,attr"`
	History string   `xml:"w:history,attr,omitempty"`
	Run     docx.Run
}
