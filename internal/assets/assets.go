package assets

// DefaultStyleName is the stylesheet safe mode injects when none is
// configured.
const DefaultStyleName = "print"

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded stylesheet by name.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// PrintCSS returns the embedded print stylesheet. It cannot fail: the file
// is compiled in.
func PrintCSS() string {
	css, err := defaultLoader.LoadStyle(DefaultStyleName)
	if err != nil {
		panic("assets: embedded print stylesheet missing: " + err.Error())
	}
	return css
}
