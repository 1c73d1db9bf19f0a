package docxconv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/alnah/go-htmlexport/internal/cssclean"
)

// Fonts used for special runs.
const (
	CodeFont  = "Consolas"
	EmojiFont = "Segoe UI Emoji"
)

var namedColors = map[string]string{
	"black":  "000000",
	"white":  "FFFFFF",
	"red":    "FF0000",
	"green":  "008000",
	"lime":   "00FF00",
	"blue":   "0000FF",
	"yellow": "FFFF00",
	"orange": "FFA500",
	"purple": "800080",
	"gray":   "808080",
	"grey":   "808080",
	"silver": "C0C0C0",
	"navy":   "000080",
	"teal":   "008080",
	"maroon": "800000",
}

// Background colors Word can express as a native highlight. Anything else
// becomes run shading.
var highlightColors = map[string]string{
	"FFFF00": "yellow",
	"008000": "green",
	"00FF00": "green",
	"FF0000": "red",
}

// ParseColor turns a CSS color into six upper-case hex digits. It accepts
// #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few names. Anything else,
// including malformed input, reports false.
func ParseColor(value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
	if v == "" {
		return "", false
	}
	if hex, ok := namedColors[v]; ok {
		return hex, true
	}

	if strings.HasPrefix(v, "#") {
		h := v[1:]
		switch len(h) {
		case 3:
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		case 6:
		case 8:
			h = h[:6]
		default:
			return "", false
		}
		if _, err := strconv.ParseUint(h, 16, 32); err != nil {
			return "", false
		}
		return strings.ToUpper(h), true
	}

	if strings.HasPrefix(v, "rgb") {
		open := strings.IndexByte(v, '(')
		end := strings.LastIndexByte(v, ')')
		if open < 0 || end < open {
			return "", false
		}
		parts := strings.FieldsFunc(v[open+1:end], func(r rune) bool {
			return r == ',' || r == ' ' || r == '/'
		})
		if len(parts) < 3 {
			return "", false
		}
		var rgb [3]int
		for i := range rgb {
			p := parts[i]
			if strings.HasSuffix(p, "%") {
				f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
				if err != nil {
					return "", false
				}
				rgb[i] = int(f * 255 / 100)
			} else {
				f, err := strconv.ParseFloat(p, 64)
				if err != nil {
					return "", false
				}
				rgb[i] = int(f)
			}
			rgb[i] = min(max(rgb[i], 0), 255)
		}
		return fmt.Sprintf("%02X%02X%02X", rgb[0], rgb[1], rgb[2]), true
	}
	return "", false
}

// runStyle is the inherited character formatting while walking inline
// content.
type runStyle struct {
	bold      bool
	italic    bool
	underline bool
	strike    bool
	code      bool
	color     string
	highlight string
	shade     string
	font      string
	halfPts   int    // font size in half-points, 0 = style default
	vertAlign string // superscript or subscript
}

// applyCSS overlays the declarations of an inline style attribute.
func (s runStyle) applyCSS(style string) runStyle {
	if style == "" {
		return s
	}
	for _, d := range cssclean.Parse(style) {
		prop := strings.ToLower(d.Property)
		val := strings.ToLower(strings.TrimSpace(d.Value))
		switch prop {
		case "color":
			if hex, ok := ParseColor(val); ok {
				s.color = hex
			}
		case "background-color", "background":
			hex, ok := ParseColor(val)
			if !ok {
				continue
			}
			if hl, ok := highlightColors[hex]; ok {
				s.highlight, s.shade = hl, ""
			} else {
				s.shade, s.highlight = hex, ""
			}
		case "text-decoration", "text-decoration-line":
			if strings.Contains(val, "line-through") {
				s.strike = true
			}
			if strings.Contains(val, "underline") {
				s.underline = true
			}
		case "font-weight":
			if val == "bold" || val == "bolder" || val == "600" || val == "700" || val == "800" || val == "900" {
				s.bold = true
			}
		case "font-style":
			if val == "italic" || val == "oblique" {
				s.italic = true
			}
		case "font-family":
			if name := primaryFont(d.Value); name != "" {
				s.font = name
			}
		case "font-size":
			if hp := halfPoints(val); hp > 0 {
				s.halfPts = hp
			}
		}
	}
	return s
}

// primaryFont returns the first family of a font-family list, unquoted.
func primaryFont(value string) string {
	first, _, _ := strings.Cut(value, ",")
	return strings.Trim(strings.TrimSpace(first), `'"`)
}

// halfPoints converts a CSS font size in pt, px or em to Word half-points.
func halfPoints(value string) int {
	var unit string
	var factor float64
	switch {
	case strings.HasSuffix(value, "pt"):
		unit, factor = "pt", 2
	case strings.HasSuffix(value, "px"):
		unit, factor = "px", 1.5
	case strings.HasSuffix(value, "em"):
		unit, factor = "em", 20
	default:
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, unit)), 64)
	if err != nil || f <= 0 || f > 400 {
		return 0
	}
	return int(f*factor + 0.5)
}

// properties builds the go-docx run properties for s.
func (s runStyle) properties() *docx.RunProperties {
	rp := &docx.RunProperties{}
	font := s.font
	if s.code && font == "" {
		font = CodeFont
	}
	if font != "" {
		rp.Fonts = &docx.RunFonts{ASCII: font, EastAsia: font, HAnsi: font}
	}
	if s.bold {
		rp.Bold = &docx.Bold{}
	}
	if s.italic {
		rp.Italic = &docx.Italic{}
	}
	if s.highlight != "" {
		rp.Highlight = &docx.Highlight{Val: s.highlight}
	}
	if s.color != "" {
		rp.Color = &docx.Color{Val: s.color}
	}
	if s.halfPts > 0 {
		v := strconv.Itoa(s.halfPts)
		rp.Size = &docx.Size{Val: v}
		rp.SizeCs = &docx.SizeCs{Val: v}
	}
	switch {
	case s.shade != "":
		rp.Shade = &docx.Shade{Val: "clear", Color: "auto", Fill: s.shade}
	case s.code:
		rp.Shade = &docx.Shade{Val: "clear", Color: "auto", Fill: "EFF1F3"}
	}
	if s.underline {
		rp.Underline = &docx.Underline{Val: "single"}
	}
	if s.vertAlign != "" {
		rp.VertAlign = &docx.VertAlign{Val: s.vertAlign}
	}
	if s.strike {
		rp.Strike = &docx.Strike{Val: "true"}
	}
	return rp
}

// blockStyle is the paragraph formatting shared by the paragraphs of one
// block element.
type blockStyle struct {
	style  string // paragraph style id
	align  string
	indent int // left indent in twips
	shade  string
}

// withAlign reads an align attribute or a text-align declaration.
func (b blockStyle) withAlign(attr, style string) blockStyle {
	if a := wordAlign(attr); a != "" {
		b.align = a
	}
	for _, d := range cssclean.Parse(style) {
		switch strings.ToLower(d.Property) {
		case "text-align":
			if a := wordAlign(d.Value); a != "" {
				b.align = a
			}
		case "background-color", "background":
			if hex, ok := ParseColor(d.Value); ok {
				b.shade = hex
			}
		}
	}
	return b
}

func wordAlign(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return "left"
	case "center", "middle":
		return "center"
	case "right", "end":
		return "right"
	case "justify":
		return "both"
	}
	return ""
}

// properties builds the paragraph properties, or nil when b is empty.
func (b blockStyle) properties() *docx.ParagraphProperties {
	if b == (blockStyle{}) {
		return nil
	}
	pp := &docx.ParagraphProperties{}
	if b.indent > 0 {
		pp.Ind = &docx.Ind{Left: b.indent}
	}
	if b.align != "" {
		pp.Justification = &docx.Justification{Val: b.align}
	}
	if b.shade != "" {
		pp.Shade = &docx.Shade{Val: "clear", Color: "auto", Fill: b.shade}
	}
	if b.style != "" {
		pp.Style = &docx.Style{Val: b.style}
	}
	return pp
}
