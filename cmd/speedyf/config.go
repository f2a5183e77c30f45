package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds everything one CLI run needs, resolved from flags and
// SPEEDYF_* environment variables. Flags win over the environment.
type Config struct {
	ProjectPath string
	OutPath     string
	SourcePath  string // overrides the path recorded for the first document
	Inspect     bool
	Strict      bool
	NoInput     bool
	Sets        []string // control-variable presets, name=value
	Values      []string // field presets, id=text
}

// LoadFromFlags parses the command line and environment into a validated
// Config.
func LoadFromFlags() (*Config, error) {
	viper.SetEnvPrefix("SPEEDYF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	pflag.String("project", "", "Path to the project file")
	pflag.String("out", "", "Path the stamped PDF is written to")
	pflag.String("source", "", "Source PDF path, overriding the one recorded in the project")
	pflag.Bool("inspect", false, "Print a project summary, verify the source files and exit")
	pflag.Bool("strict", false, "Write nothing when any field fails instead of a partial output")
	pflag.Bool("no-input", false, "Never prompt; unset variables are errors, unset fields stay empty")
	pflag.StringArray("set", nil, "Preset a control variable as name=value (repeatable)")
	pflag.StringArray("value", nil, "Preset a field as id=text (repeatable; signature fields take an image path)")

	for _, name := range []string{"project", "out", "source", "inspect", "strict", "no-input"} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
	pflag.Usage = usage
	pflag.Parse()

	// viper's slice accessor re-splits the rendered value on commas, so
	// the repeatable flags come straight from pflag.
	sets, _ := pflag.CommandLine.GetStringArray("set")
	values, _ := pflag.CommandLine.GetStringArray("value")

	cfg := &Config{
		ProjectPath: viper.GetString("project"),
		OutPath:     viper.GetString("out"),
		SourcePath:  viper.GetString("source"),
		Inspect:     viper.GetBool("inspect"),
		Strict:      viper.GetBool("strict"),
		NoInput:     viper.GetBool("no-input"),
		Sets:        sets,
		Values:      values,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the run is actually doable: a project is always
// needed, an output path whenever the run fills, and every preset flag
// must parse as a pair.
func (c *Config) Validate() error {
	if c.ProjectPath == "" {
		return errors.New("a project file is required (--project)")
	}
	if !c.Inspect && c.OutPath == "" {
		return errors.New("an output path is required (--out)")
	}
	if _, err := parsePairs(c.Sets); err != nil {
		return fmt.Errorf("--set: %w", err)
	}
	if _, err := parsePairs(c.Values); err != nil {
		return fmt.Errorf("--value: %w", err)
	}
	return nil
}

// parsePairs splits repeated name=value flags into a map. A repeated name
// keeps the last value.
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%q is not name=value", p)
		}
		out[name] = value
	}
	return out, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nspeedyf - fill out a form designed over existing PDFs\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	pflag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --project lease.speedyf --out filled.pdf        # interactive fill\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --project lease.speedyf --inspect               # summary and source check\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --project lease.speedyf --out filled.pdf \\\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "      --no-input --set has_pets=no --value \"inst_4be31a0c=Jane Doe\"\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  SPEEDYF_PROJECT   Project file path\n")
	fmt.Fprintf(os.Stderr, "  SPEEDYF_OUT       Output PDF path\n")
	fmt.Fprintf(os.Stderr, "  SPEEDYF_SOURCE    Source PDF override\n")
	fmt.Fprintf(os.Stderr, "  SPEEDYF_NO_INPUT  Disable prompting\n")
}
