// Package flagx splits a command line between the configuration flags a
// package owns and everything else (subcommands and their own options).
package flagx

import (
	"flag"
	"os"
	"strings"
)

// partition walks args once and reports, for every position, whether it
// belongs to one of the allowed flags. Two forms are recognized:
//
//	-flag value      value is consumed unless it starts with '-'
//	-flag=value      kept as a single token
func partition(args []string, allowedFlags []string) []bool {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	owned := make([]bool, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				owned[i] = true
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			owned[i] = true
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				owned[i+1] = true
				i++
			}
		}
	}
	return owned
}

// FilterArgs returns only the allowed flags (and their values) from args,
// preserving order. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	owned := partition(args, allowedFlags)
	filtered := make([]string, 0, len(args))
	for i, arg := range args {
		if owned[i] {
			filtered = append(filtered, arg)
		}
	}
	return filtered
}

// StripArgs is the complement of FilterArgs: it drops the allowed flags and
// their values and returns what is left, e.g. a CLI subcommand with its options.
func StripArgs(args []string, allowedFlags []string) []string {
	owned := partition(args, allowedFlags)
	rest := make([]string, 0, len(args))
	for i, arg := range args {
		if !owned[i] {
			rest = append(rest, arg)
		}
	}
	return rest
}

// JsonConfigFlags extracts the config file path given via -c or -config from
// os.Args. Other arguments are ignored. Empty when neither flag is present.
func JsonConfigFlags() string {
	return JsonConfigFlagsFrom(os.Args[1:])
}

// JsonConfigFlagsFrom is JsonConfigFlags over an explicit argument list.
func JsonConfigFlagsFrom(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}
