package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/inboxtriage/internal/config"
	"github.com/joshsymonds/inboxtriage/internal/runtime"
	"github.com/joshsymonds/inboxtriage/internal/triage"
)

const usage = `usage:
  inboxtriage search -keyword K [-max N]
  inboxtriage action -action trash|archive|dry-run [-continue-on-error] ID...`

type cliConfig struct {
	envFile         string
	command         string
	keyword         string
	maxResults      int
	action          string
	continueOnError bool
	ids             []string
}

func main() {
	cfg, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(cfg, os.Stdout); err != nil {
		runtime.DefaultLogger().Error("inboxtriage failed", "error", err)
		os.Exit(1)
	}
}

func parseCLIFlags(args []string) (cliConfig, error) {
	if len(args) == 0 {
		return cliConfig{}, errors.New("missing command")
	}
	cfg := cliConfig{command: args[0]}
	fs := flag.NewFlagSet(cfg.command, flag.ContinueOnError)
	fs.StringVar(&cfg.envFile, "env-file", ".env", "dotenv file seeding the environment (optional)")

	switch cfg.command {
	case "search":
		fs.StringVar(&cfg.keyword, "keyword", "", "subject keyword")
		fs.IntVar(&cfg.maxResults, "max", triage.DefaultMaxResults, "maximum results")
	case "action":
		fs.StringVar(&cfg.action, "action", "dry-run", "trash, archive or dry-run")
		fs.BoolVar(&cfg.continueOnError, "continue-on-error", false, "attempt every id even after a failure")
	default:
		return cliConfig{}, fmt.Errorf("unknown command %q", cfg.command)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return cliConfig{}, err
	}

	switch cfg.command {
	case "search":
		if cfg.keyword == "" {
			return cliConfig{}, errors.New("-keyword is required")
		}
	case "action":
		cfg.ids = fs.Args()
		if len(cfg.ids) == 0 {
			return cliConfig{}, errors.New("at least one message id is required")
		}
	}
	return cfg, nil
}

func run(cc cliConfig, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(cc.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := runtime.NewLogger(cfg.LogLevel)
	svc, stop := runtime.NewTriageService(cfg, logger)
	defer stop()

	switch cc.command {
	case "search":
		res, err := svc.Search(ctx, cc.keyword, cc.maxResults)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		return printJSON(out, res)
	default:
		res, err := svc.Apply(ctx, triage.ActionRequest{
			EmailIDs:        cc.ids,
			Action:          cc.action,
			ContinueOnError: cc.continueOnError,
		})
		if len(res.Outcomes) > 0 || err == nil {
			if printErr := printJSON(out, res); printErr != nil {
				return printErr
			}
		}
		if err != nil {
			return fmt.Errorf("action: %w", err)
		}
		return nil
	}
}

// printJSON encodes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
