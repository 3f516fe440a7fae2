package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	inflate "github.com/secDre4mer/go-inflate"
	"github.com/secDre4mer/go-inflate/config"
	"github.com/secDre4mer/go-inflate/gzip"
)

var ErrUnknownSuffix = errors.New("unknown suffix")

type gunzipper struct {
	cli     *config.CLI
	workers int
	decoder *inflate.Decoder
	stdout  io.Writer
	log     *logrus.Entry
}

func newGunzipper(cfg *config.Config, stdout io.Writer) (*gunzipper, error) {
	if cfg == nil || cfg.CLI == nil || cfg.TOML == nil {
		return nil, errors.New("config cannot be nil")
	}

	log := logrus.WithField("pkg", "gunzip")
	decoderConfig := inflate.Config{
		MaxOutputSize: cfg.TOML.Decoder.MaxOutputSize,
		DynamicOnly:   cfg.TOML.Decoder.DynamicOnly,
		Log:           log.WithField("component", "inflate"),
	}
	if !cfg.TOML.Decoder.DisableTreeCache {
		// Shared by all workers; files from the same compressor tend to repeat their trees
		cache, err := inflate.NewTreeCache(cfg.TOML.Decoder.TreeCacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create tree cache")
		}
		decoderConfig.TreeCache = cache
	}

	return &gunzipper{
		cli:     cfg.CLI,
		workers: cfg.TOML.Config.NumWorkers,
		decoder: inflate.NewDecoder(decoderConfig),
		stdout:  stdout,
		log:     log,
	}, nil
}

// Run decompresses files with up to g.workers files in flight. With --stdout the outputs are
// written in argument order once every file has been decoded.
func (g *gunzipper) Run(ctx context.Context, files []string) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)

	outputs := make([][]byte, len(files))
	for i, file := range files {
		group.Go(func() error {
			data, err := g.processFile(ctx, file)
			if err != nil {
				return errors.Wrapf(err, "%s", file)
			}
			outputs[i] = data
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if !g.cli.Stdout {
		return nil
	}
	for _, data := range outputs {
		if _, err := g.stdout.Write(data); err != nil {
			return errors.Wrap(err, "unable to write to stdout")
		}
	}
	return nil
}

// processFile decodes one file. The decompressed data is returned when writing to stdout and
// written next to the input (or into --output-dir) otherwise.
func (g *gunzipper) processFile(ctx context.Context, file string) ([]byte, error) {
	var target string
	if !g.cli.Stdout {
		var err error
		if target, err = outputName(file, g.cli.OutputDir); err != nil {
			return nil, err
		}
		if !g.cli.Force {
			if _, err := os.Stat(target); err == nil {
				return nil, errors.Errorf("%s already exists", target)
			}
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read input")
	}
	archive, err := gzip.DecompressContext(ctx, data, g.decoder)
	if err != nil {
		return nil, err
	}

	if g.cli.VerboseHeader {
		for i, member := range archive.Members {
			g.log.Infof("%s member %d: name=%q comment=%q mtime=%s os=%d size=%d",
				file, i, member.Name, member.Comment, member.ModTime, member.OS, member.Stat().Size())
		}
	}

	contents, err := io.ReadAll(archive.Open())
	if err != nil {
		return nil, errors.Wrap(err, "unable to read decompressed data")
	}
	if g.cli.Stdout {
		return contents, nil
	}

	if err := writeOutput(target, contents, g.cli.Force); err != nil {
		return nil, err
	}
	g.log.Debugf("%s: %d -> %d bytes, wrote %s", file, len(data), len(contents), target)

	if !g.cli.Keep {
		if err := os.Remove(file); err != nil {
			return nil, errors.Wrap(err, "unable to remove input")
		}
	}
	return nil, nil
}

// outputName strips the compression suffix from file. A .tgz file becomes a .tar file.
func outputName(file, outputDir string) (string, error) {
	dir, base := filepath.Split(file)
	if outputDir != "" {
		dir = outputDir
	}

	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, ".tgz") && len(base) > 4:
		base = base[:len(base)-4] + ".tar"
	case strings.HasSuffix(lower, config.DefaultSuffix) && len(base) > len(config.DefaultSuffix):
		base = base[:len(base)-len(config.DefaultSuffix)]
	default:
		return "", errors.Wrapf(ErrUnknownSuffix, "%s", base)
	}
	return filepath.Join(dir, base), nil
}

func writeOutput(target string, contents []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		return errors.Wrap(err, "unable to create output")
	}
	if _, err := out.Write(contents); err != nil {
		out.Close()
		return errors.Wrap(err, "unable to write output")
	}
	return out.Close()
}
