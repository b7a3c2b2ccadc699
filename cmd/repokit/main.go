// Command repokit inspects a repokit deployment: it prints the resolved
// configuration, checks that the configured provider and blob store open,
// and exports, imports and lists zone archives.
//
//	repokit [-config path] config
//	repokit [-config path] check
//	repokit [-config path] archives [prefix]
//	repokit [-config path] export <key> <kind>...
//	repokit [-config path] import <key>
//
// Archived rows are moved as raw JSON, so the command needs no entity types.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"repokit/internal/archive"
	"repokit/internal/blob"
	"repokit/internal/config"
	"repokit/internal/core"
	"repokit/pkg/domain"
)

const usage = "usage: repokit [-config path] config|check|archives [prefix]|export <key> <kind>...|import <key>"

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("repokit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "path to repokit.yaml (default: $"+config.EnvConfigPath+" or ./"+config.ConfigFileName+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		_, _ = fmt.Fprintln(stderr, usage)
		return 2
	}
	cfg, path, err := load(cfgPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	ctx := context.Background()
	switch rest[0] {
	case "config":
		err = printConfig(stdout, cfg, path)
	case "check":
		err = check(ctx, stdout, cfg)
	case "archives":
		prefix := ""
		if len(rest) > 1 {
			prefix = rest[1]
		}
		err = listArchives(ctx, stdout, cfg, prefix)
	case "export":
		if len(rest) < 3 {
			_, _ = fmt.Fprintln(stderr, usage)
			return 2
		}
		kinds := make([]domain.Kind, 0, len(rest)-2)
		for _, k := range rest[2:] {
			kinds = append(kinds, domain.Kind(k))
		}
		err = exportZone(ctx, stdout, cfg, rest[1], kinds)
	case "import":
		if len(rest) != 2 {
			_, _ = fmt.Fprintln(stderr, usage)
			return 2
		}
		err = importZone(ctx, stdout, cfg, rest[1])
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		return 2
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", rest[0], err)
		return 1
	}
	return 0
}

func load(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func printConfig(w io.Writer, cfg *config.Config, path string) error {
	if path == "" {
		path = "<defaults>"
	}
	if _, err := fmt.Fprintf(w, "# source: %s\n", path); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// check opens the provider with an empty registry, so durable backends are
// reached without creating tables, then opens the blob store.
func check(ctx context.Context, w io.Writer, cfg *config.Config) error {
	repo, err := core.OpenFromConfig(ctx, cfg, domain.NewRegistry())
	if err != nil {
		return err
	}
	closeErr := repo.Close()
	if _, err := blob.Open(ctx, cfg.Blob); err != nil {
		return errors.Join(closeErr, fmt.Errorf("blob: %w", err))
	}
	if closeErr != nil {
		return closeErr
	}
	_, err = fmt.Fprintf(w, "provider %s ok (zone %s)\nblob %s ok\n", cfg.Provider.Type, cfg.Zone, cfg.Blob.Driver)
	return err
}

func listArchives(ctx context.Context, w io.Writer, cfg *config.Config, prefix string) error {
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02T15:04:05Z07:00")); err != nil {
			return err
		}
	}
	return nil
}

func exportZone(ctx context.Context, w io.Writer, cfg *config.Config, key string, kinds []domain.Kind) (err error) {
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	reg := archive.RawRegistry(kinds...)
	repo, err := core.OpenFromConfig(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, repo.Close()) }()
	sum, err := archive.Export(ctx, repo.Provider(), reg, store, key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "exported %d rows from zone %s to %s\n", sum.Total(), sum.Zone, key)
	return err
}

func importZone(ctx context.Context, w io.Writer, cfg *config.Config, key string) (err error) {
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	doc, err := archive.Read(ctx, store, key)
	if err != nil {
		return err
	}
	reg := archive.RawRegistry(archive.DocumentKinds(doc)...)
	repo, err := core.OpenFromConfig(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, repo.Close()) }()
	sum, err := archive.Import(ctx, repo.Provider(), reg, store, key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "imported %d rows into zone %s from %s\n", sum.Total(), sum.Zone, key)
	return err
}
