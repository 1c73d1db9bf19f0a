package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

type flagType int

const (
	flagString flagType = iota
	flagBool
	flagInt
	flagFile
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string
	Short    string
	Type     flagType
	Desc     string
	FileGlob string // for file flags, e.g. "yaml,yml"
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
	// FileExts restricts positional file arguments; nil means no files.
	FileExts []string
	// Words are fixed positional values such as subcommands or shells.
	Words []string
}

// flagFileGlobs marks string flags that take a file.
var flagFileGlobs = map[string]string{
	"config": "yaml,yml",
	"output": "*",
}

// extractFlags converts a FlagSet into completion definitions.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var flags []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}
		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}
		if glob, ok := flagFileGlobs[f.Name]; ok {
			fd.Type = flagFile
			fd.FileGlob = glob
		}
		flags = append(flags, fd)
	})
	return flags
}

// getCommands lists every command with flags taken from the real FlagSets.
func getCommands() []commandDef {
	export := func(name string) []flagDef {
		return extractFlags(exportFlagSet(name, &exportFlags{}, io.Discard))
	}
	common := func(name string) []flagDef {
		return extractFlags(commonFlagSet(name, func(io.Writer) {}, &commonFlags{}, io.Discard))
	}

	doctor := flag.NewFlagSet("doctor", flag.ContinueOnError)
	doctor.Bool("json", false, "output as JSON")
	doctor.StringP("config", "c", "", "config file name or path")

	names := []string{"pdf", "docx", "inspect", "serve", "plugins", "config", "doctor", "completion", "version", "help"}

	return []commandDef{
		{Name: "pdf", Desc: "Export an HTML or Markdown file to PDF", Flags: export("pdf"), FileExts: inputExtensions},
		{Name: "docx", Desc: "Export an HTML or Markdown file to Word", Flags: export("docx"), FileExts: inputExtensions},
		{Name: "inspect", Desc: "Show page count and text of a PDF", Flags: extractFlags(inspectFlagSet(&inspectFlags{}, io.Discard)), FileExts: []string{".pdf"}},
		{Name: "serve", Desc: "Run the HTTP export server", Flags: extractFlags(serveFlagSet(&serveFlags{}, io.Discard))},
		{Name: "plugins", Desc: "List, install or uninstall export features", Flags: common("plugins"), Words: []string{"list", "install", "uninstall"}},
		{Name: "config", Desc: "Print the effective configuration", Flags: common("config")},
		{Name: "doctor", Desc: "Check the system for export prerequisites", Flags: extractFlags(doctor)},
		{Name: "completion", Desc: "Generate shell completion script", Words: []string{string(ShellBash), string(ShellZsh), string(ShellFish)}},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command", Words: names},
	}
}

// GenerateCompletion writes a completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()
	switch shell {
	case ShellBash:
		return generateBash(w, cmds)
	case ShellZsh:
		return generateZsh(w, cmds)
	case ShellFish:
		return generateFish(w, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: expected one shell, got %d", ErrUsage, len(args))
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// trimExts turns ".html" into "html".
func trimExts(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return out
}

func flagNames(flags []flagDef) []string {
	var out []string
	for _, f := range flags {
		out = append(out, "--"+f.Long)
		if f.Short != "" {
			out = append(out, "-"+f.Short)
		}
	}
	return out
}

func generateBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}

	b.WriteString("# bash completion for htmlexport\n")
	b.WriteString("_htmlexport() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    if [[ $COMP_CWORD -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(names, " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n")
	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)

		var fileCases []string
		for _, f := range c.Flags {
			if f.Type != flagFile {
				continue
			}
			pat := "--" + f.Long
			if f.Short != "" {
				pat = "-" + f.Short + "|" + pat
			}
			gen := "compgen -f -- \"$cur\""
			if f.FileGlob != "*" {
				gen = fmt.Sprintf("compgen -o plusdirs -f -X '!*.@(%s)' -- \"$cur\"", strings.ReplaceAll(f.FileGlob, ",", "|"))
			}
			fileCases = append(fileCases, fmt.Sprintf("        %s) COMPREPLY=($(%s)); return ;;\n", pat, gen))
		}
		if len(fileCases) > 0 {
			b.WriteString("        case \"$prev\" in\n")
			for _, fc := range fileCases {
				b.WriteString("    " + fc)
			}
			b.WriteString("        esac\n")
		}

		if len(c.Flags) > 0 {
			b.WriteString("        if [[ $cur == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(flagNames(c.Flags), " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}
		switch {
		case len(c.Words) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(c.Words, " "))
		case len(c.FileExts) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -o plusdirs -f -X '!*.@(%s)' -- \"$cur\"))\n", strings.Join(trimExts(c.FileExts), "|"))
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -o filenames -F _htmlexport htmlexport\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// zshEscape quotes text for a single-quoted _arguments spec.
func zshEscape(s string) string {
	return strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`).Replace(s)
}

func generateZsh(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("#compdef htmlexport\n\n")
	b.WriteString("_htmlexport() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n")
	b.WriteString("    local cmd=$words[2]\n")
	b.WriteString("    shift words\n")
	b.WriteString("    (( CURRENT-- ))\n")
	b.WriteString("    case $cmd in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		b.WriteString("        _arguments -s")
		for _, f := range c.Flags {
			action := ""
			switch f.Type {
			case flagFile:
				if f.FileGlob == "*" {
					action = ":file:_files"
				} else {
					action = fmt.Sprintf(":file:_files -g \"*.(%s)\"", strings.ReplaceAll(f.FileGlob, ",", "|"))
				}
			case flagString, flagInt:
				action = ":value:"
			}
			desc := zshEscape(f.Desc)
			if f.Short != "" {
				fmt.Fprintf(&b, " \\\n            '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
			} else {
				fmt.Fprintf(&b, " \\\n            '--%s[%s]%s'", f.Long, desc, action)
			}
		}
		switch {
		case len(c.Words) > 0:
			fmt.Fprintf(&b, " \\\n            '1:argument:(%s)'", strings.Join(c.Words, " "))
		case len(c.FileExts) > 0:
			fmt.Fprintf(&b, " \\\n            '*:file:_files -g \"*.(%s)\"'", strings.Join(trimExts(c.FileExts), "|"))
		}
		b.WriteString("\n        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _htmlexport htmlexport\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// fishEscape quotes text for a single-quoted fish string.
func fishEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(s)
}

func generateFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("# fish completion for htmlexport\n")
	b.WriteString("complete -c htmlexport -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c htmlexport -n __fish_use_subcommand -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_seen_subcommand_from %s'", c.Name)
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c htmlexport -n %s -l %s", cond, f.Long)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			switch f.Type {
			case flagFile:
				b.WriteString(" -r -F")
			case flagString, flagInt:
				b.WriteString(" -r")
			}
			fmt.Fprintf(&b, " -d '%s'\n", fishEscape(f.Desc))
		}
		switch {
		case len(c.Words) > 0:
			fmt.Fprintf(&b, "complete -c htmlexport -n %s -a '%s'\n", cond, strings.Join(c.Words, " "))
		case len(c.FileExts) > 0:
			fmt.Fprintf(&b, "complete -c htmlexport -n %s -F\n", cond)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlexport completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate a shell completion script.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash   Bash completion script")
	fmt.Fprintln(w, "  zsh    Zsh completion script")
	fmt.Fprintln(w, "  fish   Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(htmlexport completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(htmlexport completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    htmlexport completion fish > ~/.config/fish/completions/htmlexport.fish")
}
