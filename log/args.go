package log

import (
	"strings"
)

// setupFlagsToMask are the command line flags whose values must never be written to the logs.
var setupFlagsToMask = []string{"-p", "--password", "--client-key-password"}

// MaskArguments returns a new slice with the values of the flags given in flagsToMask replaced by a fix number of *.
//
// NOTE: Supports both '--flag value' and '--flag=value' forms.
func MaskArguments(args, flagsToMask []string) []string {
	ret := make([]string, len(args))
	copy(ret, args)

	for i := 0; i < len(ret); i++ {
		if name, _, ok := strings.Cut(ret[i], "="); ok && flagMatches(name, flagsToMask) {
			ret[i] = name + "=*****"
			continue
		}

		// Only mask if it matches the flagsToMask and if it has a value afterwards.
		if flagMatches(ret[i], flagsToMask) && i+1 < len(ret) && !strings.HasPrefix(ret[i+1], "-") {
			i++

			ret[i] = "*****" // Mask with fix length to avoid revealing any details about the string.
		}
	}

	return ret
}

// MaskSetupArguments masks the arguments accepted by the cluster setup command.
func MaskSetupArguments(args []string) string {
	return strings.TrimSpace(strings.Join(MaskArguments(args, setupFlagsToMask), " "))
}

func flagMatches(flag string, referenceFlags []string) bool {
	for _, referenceFlag := range referenceFlags {
		if flag == referenceFlag {
			return true
		}
	}

	return false
}
