package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/kpatchmake/internal/logger"
	"github.com/samcharles93/kpatchmake/pkg/kpatch"
)

const usageText = `kpatch-make [-d] -b <buildid> [-v <version>] [-o <output>] <input1> [input2]

   result is printed to output and is the following:
      header          - struct kpatch_file
      .kpatch.*       - sections with binary patch text/data and info`

// usageError marks a bad invocation, as opposed to an I/O failure.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return "usage: " + e.msg }

type makeOptions struct {
	Input      string
	ExtraInput string
	Output     string
	BuildID    string
	OutputMode os.FileMode
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	f := &makeFlags{}
	return &cli.Command{
		Name:            "kpatch-make",
		Usage:           "Package a binary patch into a kpatch container",
		UsageText:       usageText,
		ArgsUsage:       "<input1> [input2]",
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		Flags:           f.list(),
		// Help text must never reach stdout, which may be the container sink.
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return &usageError{msg: err.Error()}
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := LoadConfig(f.configPath)
			if err != nil {
				return err
			}
			applyConfig(cmd, cfg, f)

			level := logger.ParseLevel(f.logLevel)
			if f.debug {
				level = slog.LevelDebug
			}
			log, err := logger.ForFormat(stderr, f.logFormat, level)
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			log = log.With("run_id", uuid.NewString())
			ctx = logger.WithContext(ctx, log)

			if f.buildID == "" {
				return &usageError{msg: "build id is required (-b <buildid>)"}
			}
			args := cmd.Args().Slice()
			switch {
			case len(args) == 0:
				return &usageError{msg: "missing input file"}
			case len(args) > 2:
				return &usageError{msg: fmt.Sprintf("too many input files (%d)", len(args))}
			}

			mode, err := cfg.outputMode()
			if err != nil {
				return err
			}

			if f.version != "" || f.s != "" {
				log.Debug("ignoring unused options", "v", f.version, "s", f.s)
			}

			opts := makeOptions{
				Input:      args[0],
				Output:     f.output,
				BuildID:    f.buildID,
				OutputMode: mode,
			}
			if len(args) == 2 {
				opts.ExtraInput = args[1]
			}
			return runMake(ctx, opts, stdout)
		},
	}
}

// runMake reads the input fully into memory and writes the container to the
// output file, or to stdout when no output path is given.
func runMake(ctx context.Context, opts makeOptions, stdout io.Writer) (err error) {
	log := logger.FromContext(ctx)

	if opts.ExtraInput != "" {
		log.Warn("second input file is not supported and was ignored", "path", opts.ExtraInput)
	}

	payload, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("can't read input file %q: %w", opts.Input, err)
	}
	log.Debug("input loaded", "path", opts.Input, "bytes", len(payload))

	sink := stdout
	if opts.Output != "" {
		mode := opts.OutputMode
		if mode == 0 {
			mode = defaultOutputMode
		}
		out, oerr := os.OpenFile(opts.Output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if oerr != nil {
			return fmt.Errorf("can't open output file %q: %w", opts.Output, oerr)
		}
		defer func() {
			if cerr := out.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output file %q: %w", opts.Output, cerr)
			}
		}()
		sink = out
	}

	if err := kpatch.WriteContainer(sink, payload, opts.BuildID); err != nil {
		var we *kpatch.WriteError
		if errors.As(err, &we) {
			log.Debug("container write failed", "written", we.Written, "want", we.Want)
		}
		return err
	}

	log.Debug("container written",
		"buildid", opts.BuildID,
		"payload_bytes", len(payload),
		"total_bytes", kpatch.HeaderSize+kpatch.Align16(len(payload)),
	)
	return nil
}
