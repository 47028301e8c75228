package client

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlagsWithEnvVars parses args, taking defaults from environment
// variables named prefix + upper-cased flag name (dashes become underscores).
// Unknown variables carrying the prefix are rejected.
func ParseFlagsWithEnvVars(flags *flag.FlagSet, envVarPrefix string, args []string) error {
	supportedEnvVars := map[string]struct{}{}
	var envErr error

	flags.VisitAll(func(f *flag.Flag) {
		envVarName := envVarPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		f.Usage = fmt.Sprintf("%s (%s)", f.Usage, envVarName)
		supportedEnvVars[envVarName] = struct{}{}
		if envVarValue := os.Getenv(envVarName); envVarValue != "" {
			f.DefValue = envVarValue
			if err := f.Value.Set(envVarValue); err != nil && envErr == nil {
				envErr = fmt.Errorf("invalid environment variable %s value %q: %w", envVarName, envVarValue, err)
			}
		}
	})
	if envErr != nil {
		return envErr
	}

	if err := flags.Parse(args); err != nil {
		return err
	}

	for _, entry := range os.Environ() {
		if !strings.HasPrefix(entry, envVarPrefix) {
			continue
		}
		name, _, _ := strings.Cut(entry, "=")
		if _, ok := supportedEnvVars[name]; !ok {
			return fmt.Errorf("unsupported environment variable provided: %s", name)
		}
	}

	return nil
}
