// Package assets provides the print stylesheet injected into PDF exports.
//
// # Loaders
//
//	StyleLoader (interface)
//	    ├── EmbeddedLoader    - styles compiled in with go:embed
//	    ├── FilesystemLoader  - styles read from {dir}/styles/{name}.css
//	    └── AssetResolver     - custom directory first, embedded fallback
//
// Safe mode strips every stylesheet and inline style from the exported
// markup, so the stylesheet returned here is the only styling the PDF
// renderer sees. A custom directory lets users replace it without
// rebuilding.
//
// # Security
//
// Style names are validated; FilesystemLoader resolves symlinks and refuses
// paths outside its base directory.
package assets
