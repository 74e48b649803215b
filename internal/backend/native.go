package backend

import "strconv"

// DefaultNativeCommand runs the framework CLI from the project root.
var DefaultNativeCommand = []string{"php", "bin/magento"}

// Native invokes setup:static-content:deploy through the framework CLI.
type Native struct {
	// CLI is the command prefix, e.g. ["php", "bin/magento"].
	CLI         []string
	ProjectRoot string
}

// Name implements Backend.
func (n Native) Name() string { return "native" }

// Command implements Backend. FastPath is ignored.
func (n Native) Command(inv Invocation) Command {
	cli := n.CLI
	if len(cli) == 0 {
		cli = DefaultNativeCommand
	}

	args := append([]string{}, cli[1:]...)
	args = append(args, "setup:static-content:deploy", "--area="+inv.Area)
	if inv.Jobs > 0 {
		args = append(args, "--jobs="+strconv.Itoa(inv.Jobs))
	}
	for _, t := range inv.Themes {
		args = append(args, "--theme="+t)
	}
	for _, l := range inv.Locales {
		args = append(args, "--language="+l)
	}
	if inv.Force {
		args = append(args, "--force")
	}
	if inv.Strategy != "" {
		args = append(args, "--strategy="+inv.Strategy)
	}

	return Command{Path: cli[0], Args: args, Dir: n.ProjectRoot}
}
