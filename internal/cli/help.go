package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000")).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFA500")).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// At the top level it lists the subcommands; for a selected subcommand it
// lists that command's arguments and flags followed by the global flags.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		fmt.Fprint(ctx.Stdout, renderHelp(ctx.Model.Node, ctx.Selected()))
		return nil
	}
}

// renderHelp builds the help text for app, or for cmd when it is not nil
func renderHelp(app, cmd *kong.Node) string {
	var sb strings.Builder

	sb.WriteString(helpTitleStyle.Render(app.Name))
	sb.WriteString("\n")
	desc := app.Help
	if cmd != nil && cmd.Help != "" {
		desc = cmd.Help
	}
	if desc != "" {
		sb.WriteString(helpDescStyle.Render(desc))
		sb.WriteString("\n")
	}

	sb.WriteString(helpSectionStyle.Render("Usage:"))
	sb.WriteString("\n  ")
	if cmd == nil {
		fmt.Fprintf(&sb, "%s [flags] <command> [command flags]", app.Name)
	} else {
		fmt.Fprintf(&sb, "%s %s [flags]", app.Name, commandPath(cmd))
		for _, arg := range cmd.Positional {
			sb.WriteString(" ")
			sb.WriteString(arg.Summary())
		}
	}
	sb.WriteString("\n")

	if cmd == nil {
		commands := getCommands(app)
		if len(commands) > 0 {
			writeHeading(&sb, "Commands:")
			width := 0
			for _, c := range commands {
				width = max(width, len(c.name))
			}
			for _, c := range commands {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(fmt.Sprintf("%-*s", width, c.name)))
				sb.WriteString("  ")
				sb.WriteString(c.help)
				sb.WriteString("\n")
			}
		}
	} else {
		args := getArguments(cmd)
		if len(args) > 0 {
			writeHeading(&sb, "Arguments:")
			for _, arg := range args {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(arg.name))
				if arg.help != "" {
					sb.WriteString("  ")
					sb.WriteString(arg.help)
				}
				sb.WriteString("\n")
			}
		}
		writeFlags(&sb, "Flags:", getFlags(cmd, false))
	}

	writeFlags(&sb, "Global Flags:", getFlags(app, true))

	sb.WriteString("\n")
	return sb.String()
}

func writeHeading(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
}

func writeFlags(sb *strings.Builder, title string, flags []flag) {
	if len(flags) == 0 {
		return
	}
	writeHeading(sb, title)
	for _, flag := range flags {
		sb.WriteString("  ")
		sb.WriteString(helpFlagStyle.Render(flag.flags))
		if flag.help != "" {
			sb.WriteString("  ")
			sb.WriteString(flag.help)
		}
		if flag.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + flag.defaultVal + ")"))
		}
		if flag.env != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("($" + flag.env + ")"))
		}
		sb.WriteString("\n")
	}
}

// commandPath returns the subcommand names from the root to n
func commandPath(n *kong.Node) string {
	var parts []string
	for ; n != nil && n.Type == kong.CommandNode; n = n.Parent {
		parts = append([]string{n.Name}, parts...)
	}
	return strings.Join(parts, " ")
}

type command struct {
	name string
	help string
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
	env        string
}

func getCommands(n *kong.Node) []command {
	var commands []command
	for _, child := range n.Children {
		if child.Hidden || child.Type != kong.CommandNode {
			continue
		}
		commands = append(commands, command{name: child.Name, help: child.Help})
	}
	return commands
}

func getArguments(n *kong.Node) []argument {
	var args []argument
	for _, arg := range n.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}
	return args
}

func getFlags(n *kong.Node, withHelp bool) []flag {
	var flags []flag

	if withHelp {
		flags = append(flags, flag{
			flags: "-h, --help",
			help:  "Show context-sensitive help.",
		})
	}

	for _, f := range n.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		flagStr := ""
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		} else {
			flagStr = fmt.Sprintf("--%s", f.Name)
		}

		if !f.IsBool() {
			flagStr += "=" + strings.ToUpper(f.FormatPlaceHolder())
		}

		var env string
		if len(f.Envs) > 0 {
			env = f.Envs[0]
		}

		flags = append(flags, flag{
			flags:      flagStr,
			help:       f.Help,
			defaultVal: f.Default,
			env:        env,
		})
	}

	return flags
}
