package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/kpatchmake/internal/version"
	"github.com/samcharles93/kpatchmake/pkg/kpatch"
)

// headerSummary is the --json document.
type headerSummary struct {
	Path          string    `json:"path"`
	Magic         string    `json:"magic"`
	TargetID      string    `json:"target_id"`
	BuildTime     time.Time `json:"build_time"`
	BuildTimeUnix uint64    `json:"build_time_unix"`
	Checksum      uint64    `json:"checksum"`
	RelocCount    uint32    `json:"reloc_count"`
	RelocOffset   uint64    `json:"reloc_offset"`
	PayloadOffset uint64    `json:"payload_offset"`
	PayloadSize   uint64    `json:"payload_size"`
	TotalSize     uint64    `json:"total_size"`
}

func newApp(stdout io.Writer) *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:      "kpatch-inspect",
		Usage:     "Inspect the header of a kpatch container",
		ArgsUsage: "<container>",
		Version:   version.String(),
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the header as JSON", Destination: &asJSON},
		},
		Commands: []*cli.Command{
			versionCmd(stdout),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("usage: kpatch-inspect [--json] <container>")
			}
			path := cmd.Args().First()

			kf, err := kpatch.Open(path)
			if err != nil {
				return fmt.Errorf("open %q: %w", path, err)
			}
			defer func() { _ = kf.Close() }()

			s := summarize(path, kf.Header)
			if asJSON {
				return printJSON(stdout, s)
			}
			printText(stdout, s)
			return nil
		},
	}
}

func summarize(path string, h *kpatch.Header) headerSummary {
	return headerSummary{
		Path:          path,
		Magic:         strings.TrimRight(string(h.Magic[:]), "\x00"),
		TargetID:      h.TargetIDString(),
		BuildTime:     h.Time(),
		BuildTimeUnix: h.BuildTime,
		Checksum:      h.Checksum,
		RelocCount:    h.RelocCount,
		RelocOffset:   h.RelocOffset,
		PayloadOffset: h.PayloadOffset,
		PayloadSize:   h.PayloadSize(),
		TotalSize:     h.TotalSize,
	}
}

func printJSON(w io.Writer, s headerSummary) error {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func printText(w io.Writer, s headerSummary) {
	_, _ = fmt.Fprintf(w, "kpatch container: %s\n", s.Path)
	row(w, "magic", s.Magic)
	row(w, "target_id", s.TargetID)
	row(w, "build_time", fmt.Sprintf("%s (%d)", s.BuildTime.Format(time.RFC3339), s.BuildTimeUnix))
	// checksum is reserved and never verified
	row(w, "checksum", fmt.Sprintf("%#018x", s.Checksum))
	row(w, "relocations", fmt.Sprintf("%d @ %d", s.RelocCount, s.RelocOffset))
	row(w, "payload", fmt.Sprintf("%d bytes @ %d", s.PayloadSize, s.PayloadOffset))
	row(w, "total_size", fmt.Sprintf("%d", s.TotalSize))
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%-16s %s\n", label+":", value)
}
