// Package flagx lets the config layers parse their own subset of the
// command line. The JSON layer only looks at -c/-config, the flag layer
// at everything else, and neither fails on the other's flags.
package flagx

import (
	"flag"
	"strings"
)

// flagName returns the bare name of a flag-looking argument ("-a", "--a",
// "-a=x", "--a=x" all give "a") and whether a value was joined with '='.
func flagName(arg string) (name string, joined bool, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false, false
	}
	name = strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if name == "" {
		return "", false, false
	}
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], true, true
	}
	return name, false, true
}

// FilterArgs keeps only the flags named in names, together with their
// values, in their original order. Names are given without dashes; single
// and double dash forms both match.
//
//	FilterArgs([]string{"-c", "a.json", "--s=token"}, "s") // ["--s=token"]
//
// A flag directly followed by another flag is kept without a value.
func FilterArgs(args []string, names ...string) []string {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, joined, ok := flagName(args[i])
		if !ok {
			continue
		}
		if _, keep := allowed[name]; !keep {
			continue
		}
		filtered = append(filtered, args[i])
		if !joined && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// ConfigFileFlag returns the JSON config path given with -c or -config, or
// "" when neither is present.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, "c", "config"))

	return path
}

// Visited reports the names of the flags that were set explicitly on fs.
func Visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
