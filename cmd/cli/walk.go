package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sitenav/internal/ioformats"
	"sitenav/internal/models"
	"sitenav/internal/session"
)

const (
	formatNDJSON   = "ndjson"
	formatMarkdown = "markdown"
)

var (
	walkSteps    []string
	walkScript   string
	walkOutput   string
	walkFormat   string
	walkVisitor  string
	walkFailFast bool
)

var walkCmd = &cobra.Command{
	Use:   "walk <url>",
	Short: "Open a page and run a scripted walk over it",
	Long: `Open the page at <url> with a full load, then run each step in order:
steps from --script first, then every --step flag. A step is written as
"action [target]", for example "click #to-work", "navigate /contact/",
"back", "forward", "theme" or "menu".

Each step produces one record with the outcome and a snapshot of the page.`,
	Example: `  sitenav walk https://example.com/ --step "click a[href='/work/']" --step back
  sitenav walk https://example.com/ --script walk.csv --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runWalk,
}

func init() {
	walkCmd.Flags().StringArrayVar(&walkSteps, "step", nil, `step to run, e.g. "click #to-work" (repeatable)`)
	walkCmd.Flags().StringVar(&walkScript, "script", "", "step script (csv with 'action','target' columns or ndjson)")
	walkCmd.Flags().StringVarP(&walkOutput, "output", "o", "", "output file (default stdout)")
	walkCmd.Flags().StringVar(&walkFormat, "format", formatNDJSON, "output format: ndjson or markdown")
	walkCmd.Flags().StringVar(&walkVisitor, "visitor", "", "visitor id for stored preferences")
	walkCmd.Flags().BoolVar(&walkFailFast, "fail-fast", false, "stop at the first failing step")
	rootCmd.AddCommand(walkCmd)
}

func runWalk(cmd *cobra.Command, args []string) error {
	if walkFormat != formatNDJSON && walkFormat != formatMarkdown {
		return fmt.Errorf("unknown format %q: must be ndjson or markdown", walkFormat)
	}
	steps, err := collectSteps(args[0])
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := cfg.NewPrefsProvider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	sess, err := session.New(uuid.NewString(), session.Deps{
		Fetcher: cfg.NewFetcher(),
		Prefs:   provider.For(walkVisitor),
		Logger:  log,
	}, cfg.SessionOptions())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if walkOutput != "" {
		f, err := os.Create(walkOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	failed, err := walk(ctx, sess, steps, newRecorder(w, walkFormat), walkFailFast)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(steps))
	}
	return nil
}

// collectSteps builds the walk: the opening load, the script, then flags.
func collectSteps(rawURL string) ([]models.Step, error) {
	steps := []models.Step{{Action: ioformats.ActionOpen, Target: rawURL}}
	if walkScript != "" {
		script, err := ioformats.ReadSteps(walkScript)
		if err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
		steps = append(steps, script...)
	}
	for _, s := range walkSteps {
		st, err := ioformats.ParseStep(s)
		if err != nil {
			return nil, fmt.Errorf("--step %q: %w", s, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// walk runs steps in order and returns how many failed. A failed opening
// load ends the walk since there is no page to act on.
func walk(ctx context.Context, sess *session.Session, steps []models.Step, rec *recorder, failFast bool) (int, error) {
	failed := 0
	for i, st := range steps {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		res := sess.Do(ctx, st)
		if err := rec.record(i, res); err != nil {
			return failed, fmt.Errorf("write result: %w", err)
		}
		if res.Error == "" {
			continue
		}
		failed++
		if i == 0 && st.Action == ioformats.ActionOpen {
			return failed, errors.New(res.Error)
		}
		if failFast {
			break
		}
	}
	return failed, nil
}
