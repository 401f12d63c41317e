package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"PaintBoard/internal/cli"
	pbnet "PaintBoard/internal/net"
)

// valueFlags names the root flags that consume the following token, glog's
// included.
func valueFlags(cmd *cobra.Command) map[string]bool {
	out := map[string]bool{}
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.NoOptDefVal != "" {
			return
		}
		out["--"+f.Name] = true
		if f.Shorthand != "" {
			out["-"+f.Shorthand] = true
		}
	})
	return out
}

// rewriteShareLinkArgs makes `paintboard <link>` work like
// `paintboard join <link>`, which is how the OS hands over a clicked
// paintboard:// URL. Only the first positional token is looked at.
func rewriteShareLinkArgs(argv []string, takesValue map[string]bool) []string {
	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if strings.HasPrefix(a, "-") {
			if takesValue[a] {
				i++
			}
			continue
		}
		if !pbnet.IsShareLink(a) {
			return argv
		}
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "join")
		return append(out, argv[i:]...)
	}
	return argv
}

func main() {
	cmd := cli.NewRootCmd()
	cmd.SetArgs(rewriteShareLinkArgs(os.Args, valueFlags(cmd))[1:])
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
