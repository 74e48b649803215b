package backend

// DefaultFastPathFlag is the accelerated binary's flag for skipping the framework
// dispatch on fast-path themes.
const DefaultFastPathFlag = "--no-luma-dispatch"

// DefaultBinaryNames are the names the accelerated binary ships under.
var DefaultBinaryNames = []string{
	"static-deploy",
	"magento2-static-deploy",
}

// Accelerated invokes the external static-deploy binary.
type Accelerated struct {
	Binary       string
	ProjectRoot  string
	FastPathFlag string
}

// Name implements Backend.
func (a Accelerated) Name() string { return "accelerated" }

// Command implements Backend. The binary sizes its own worker pool, so Jobs is not passed.
func (a Accelerated) Command(inv Invocation) Command {
	var args []string
	if inv.Force {
		args = append(args, "-f")
	}
	args = append(args, "-r", a.ProjectRoot, "-a", inv.Area)
	if inv.FastPath {
		flag := a.FastPathFlag
		if flag == "" {
			flag = DefaultFastPathFlag
		}
		args = append(args, flag)
	}
	for _, t := range inv.Themes {
		args = append(args, "-t", t)
	}
	args = append(args, inv.Locales...)

	return Command{Path: a.Binary, Args: args, Dir: a.ProjectRoot}
}
