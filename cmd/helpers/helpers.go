package helpers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// SetupLogger builds a logrus FieldLogger at the given level carrying fields on
// every entry.
func SetupLogger(logLevelStr string, useDefaultFormatter bool, fields log.Fields) (log.FieldLogger, error) {
	logLevel, err := log.ParseLevel(logLevelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevelStr, err)
	}

	logger := log.New()
	logger.SetLevel(logLevel)
	if useDefaultFormatter {
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "01-02-2006 15:04:05",
		})
	} else {
		logger.SetFormatter(&log.JSONFormatter{})
	}

	entry := logger.WithFields(fields)
	entry.Debugf("log level set to %s", logLevel.String())
	return entry, nil
}

// MapEnvVarToFlag sets flags from environment variables with arbitrary names,
// such as the ones a deployment already exports. Flags that were set on the
// command line, or from an earlier source, are left alone. Variables are
// applied in name order so errors are reported deterministically.
// see: https://github.com/spf13/viper/issues/461
func MapEnvVarToFlag(vars map[string]string, flagset *pflag.FlagSet) error {
	envs := make([]string, 0, len(vars))
	for env := range vars {
		envs = append(envs, env)
	}
	sort.Strings(envs)

	for _, env := range envs {
		flag := vars[env]
		flagObj := flagset.Lookup(flag)
		if flagObj == nil {
			return fmt.Errorf("the %s flag doesn't exist", flag)
		}
		if flagObj.Changed {
			continue
		}
		if val := os.Getenv(env); val != "" {
			if err := flagset.Set(flag, val); err != nil {
				return fmt.Errorf("invalid value %q for %s: %v", val, env, err)
			}
		}
	}
	return nil
}

// SetFlagsFromEnv parses all registered flags in the given flagset,
// and if they are not already set it attempts to set their values from
// environment variables. Environment variables take the name of the flag but
// are UPPERCASE, and any dashes are replaced by underscores. Environment
// variables additionally are prefixed by the given string followed by
// and underscore. For example, if prefix=PREFIX: some-flag => PREFIX_SOME_FLAG
func SetFlagsFromEnv(fs *pflag.FlagSet, prefix string) (err error) {
	alreadySet := make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) {
		alreadySet[f.Name] = true
	})
	fs.VisitAll(func(f *pflag.Flag) {
		if !alreadySet[f.Name] {
			val := os.Getenv(EnvVarName(prefix, f.Name))
			if val != "" {
				if serr := fs.Set(f.Name, val); serr != nil {
					err = fmt.Errorf("invalid value %q for %s: %v", val, EnvVarName(prefix, f.Name), serr)
				}
			}
		}
	})
	return err
}

// EnvVarName is the environment variable SetFlagsFromEnv reads for a flag.
func EnvVarName(prefix, flag string) string {
	return prefix + "_" + strings.ToUpper(strings.Replace(flag, "-", "_", -1))
}
