// d2sedit inspects and repairs Diablo II character and shared stash files.
//
// Defaults come from an optional TOML file (by default
// $XDG_CONFIG_HOME/d2sedit/config.toml) and can be overridden by flags:
//
//	[save]
//	backup = true
//	compression = "zstd"
//	strict = false
//
//	[logging]
//	level = "info"
//	format = "console"
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/arloliu/d2s/character"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/stash"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	cfg    *Config
	codec  format.CompressionType
	logger *zap.Logger
	out    io.Writer
}

func (a *app) characterOptions() []character.Option {
	opts := []character.Option{character.WithLogger(a.logger)}
	if a.cfg.Save.Strict {
		opts = append(opts, character.WithStrictValidation())
	}

	if a.cfg.Save.Backup {
		opts = append(opts, character.WithBackup(a.codec))
	}

	return opts
}

func (a *app) stashOptions() []stash.Option {
	opts := []stash.Option{stash.WithLogger(a.logger)}
	if a.cfg.Save.Backup {
		opts = append(opts, stash.WithBackup(a.codec))
	}

	return opts
}

func run(args []string, stdout, stderr io.Writer) int {
	flagSet := pflag.NewFlagSet("d2sedit", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	configPath := flagSet.StringP("config", "c", defaultConfigPath(), "config file")
	strict := flagSet.Bool("strict", false, "fail on checksum, file size and optional section errors")
	backup := flagSet.Bool("backup", true, "keep a backup of files before overwriting them")
	compression := flagSet.String("compression", "zstd", "backup compression: none, zstd, s2 or lz4")
	logLevel := flagSet.String("log-level", "info", "log level: debug, info, warn or error")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet, stderr)
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)

		return exitUsage
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, stderr)
		return exitOK
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(flagSet, stderr)
		return exitUsage
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n", rest[0])
		return exitUsage
	}

	if len(rest)-1 != len(cmd.args) {
		fmt.Fprintf(stderr, "usage: d2sedit %s %s\n", rest[0], joinArgs(cmd.args))
		return exitUsage
	}

	cfg, err := loadConfig(*configPath, flagSet.Changed("config"))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	if flagSet.Changed("strict") {
		cfg.Save.Strict = *strict
	}

	if flagSet.Changed("backup") {
		cfg.Save.Backup = *backup
	}

	if flagSet.Changed("compression") {
		cfg.Save.Compression = *compression
	}

	if flagSet.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}

	codec, err := cfg.compression()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "error: logger: %v\n", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	a := &app{cfg: cfg, codec: codec, logger: logger, out: stdout}
	if err := cmd.run(a, rest[1:]); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	return exitOK
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "d2sedit", "config.toml")
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += "<" + a + ">"
	}

	return out
}

func printHelp(flagSet *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "d2sedit inspects and repairs Diablo II save files.\n\nUsage:\n  d2sedit [flags] <command> [args]\n\nCommands:\n")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-13s %-28s %s\n", name, joinArgs(cmd.args), cmd.summary)
	}

	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}
