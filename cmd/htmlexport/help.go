package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlexport <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  pdf        Export an HTML or Markdown file to PDF")
	fmt.Fprintln(w, "  docx       Export an HTML or Markdown file to Word")
	fmt.Fprintln(w, "  inspect    Show page count and text of a PDF")
	fmt.Fprintln(w, "  serve      Run the HTTP export server")
	fmt.Fprintln(w, "  plugins    List, install or uninstall export features")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check the system for export prerequisites")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'htmlexport help <command>' for details on a specific command.")
}

// printCommonFlags prints the flags every exporting command accepts.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Debug logging")
}

// printExportUsage prints usage for the pdf and docx commands.
func printExportUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: htmlexport %s <input> [flags]\n", name)
	fmt.Fprintln(w)
	if name == string(targetPDF) {
		fmt.Fprintln(w, "Print a document through headless Chrome. Requires the pdf_export plugin.")
	} else {
		fmt.Fprintln(w, "Convert a document to an editable Word file.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .html, .htm, .md or .markdown file; '-' reads HTML from stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintf(w, "  -o, --output <path>       Output file (default: input with .%s, '-' for stdout)\n", name)
	if name == string(targetPDF) {
		fmt.Fprintln(w, "  -t, --timeout <d>         PDF generation timeout (e.g., 30s, 2m)")
	}
	printCommonFlags(w)
}

// printInspectUsage prints usage for the inspect command.
func printInspectUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlexport inspect <file.pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Validate a PDF and report its page count.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --text                Print the text of every page")
	fmt.Fprintln(w, "      --json                Output as JSON")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlexport serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the export features over HTTP:")
	fmt.Fprintln(w, "  GET  /healthz             Liveness probe")
	fmt.Fprintln(w, "  GET  /features            Registered features as JSON")
	fmt.Fprintln(w, "  POST /export/{feature}    HTML body in, document bytes out")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --addr <host:port>    Listen address (default from config)")
	fmt.Fprintln(w, "  -w, --workers <n>         Exporter pool size (0 = auto)")
	printCommonFlags(w)
}

// printPluginsUsage prints usage for the plugins command.
func printPluginsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlexport plugins <list|install|uninstall> [id] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Manage experimental export features. Standard features are always installed.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	printCommonFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlexport config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after defaults and environment overrides.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlexport doctor [--json] [-c <config>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, emoji fonts, plugin state and the temp directory.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "pdf", "docx":
		printExportUsage(env.Stdout, args[0])
	case "inspect":
		printInspectUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "plugins":
		printPluginsUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: htmlexport version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: htmlexport help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
	return nil
}
