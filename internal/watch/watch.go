// Package watch runs scheduled pulls and matches freshly stored events
// against configured rules, executing a shell command for each match. The
// matched record is rendered to a temp buffer file whose path is handed to
// the command in SLACK_EVENT_FILE, so commands never have to parse argv
// for untrusted message text.
package watch

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"time"

	"github.com/google/shlex"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mikesmullin/slack/internal/config"
	"github.com/mikesmullin/slack/internal/pull"
	"github.com/mikesmullin/slack/internal/store"
)

// Rule is one compiled watch rule.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Channel string
	Command string
}

// CompileRules validates and compiles rule configs.
func CompileRules(configs []config.RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(configs))
	for _, rc := range configs {
		pattern, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, err
		}
		rules = append(rules, Rule{
			Name:    rc.Name,
			Pattern: pattern,
			Channel: rc.Channel,
			Command: rc.Command,
		})
	}
	return rules, nil
}

// Matches reports whether a stored record triggers the rule.
func (r *Rule) Matches(rec *store.Record) bool {
	if r.Channel != "" && rec.ChannelID != r.Channel {
		return false
	}
	return r.Pattern.MatchString(rec.Text)
}

type Watcher struct {
	puller  *pull.Puller
	store   *store.Store
	rules   []Rule
	options pull.Options
	runCmd  func(ctx context.Context, rule Rule, rec *store.Record) error
}

func New(puller *pull.Puller, s *store.Store, rules []Rule, options pull.Options) *Watcher {
	w := &Watcher{
		puller:  puller,
		store:   s,
		rules:   rules,
		options: options,
	}
	w.runCmd = w.execute
	return w
}

// Run schedules pulls on the given cron spec and blocks until the context
// is cancelled. The first pull happens immediately.
func (w *Watcher) Run(ctx context.Context, interval string) error {
	schedule, err := cron.ParseStandard(interval)
	if err != nil {
		return err
	}

	w.Tick(ctx)
	for {
		next := schedule.Next(time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
			w.Tick(ctx)
		}
	}
}

// Tick performs one pull and evaluates rules against the records it
// stored. Rule failures are logged, never fatal to the watch loop.
func (w *Watcher) Tick(ctx context.Context) {
	result, err := w.puller.Run(ctx, w.options)
	if err != nil {
		slog.Error("Watch pull failed", "error", err)
		return
	}
	if len(w.rules) == 0 || len(result.Stored) == 0 {
		return
	}

	for _, shortID := range result.Stored {
		hash, err := w.store.ResolveKey(shortID)
		if err != nil {
			slog.Warn("Watch could not resolve stored record", "short", shortID, "error", err)
			continue
		}
		rec, err := w.store.Get(hash)
		if err != nil {
			slog.Warn("Watch could not load stored record", "hash", hash, "error", err)
			continue
		}
		w.evaluate(ctx, rec)
	}
}

func (w *Watcher) evaluate(ctx context.Context, rec *store.Record) {
	for i := range w.rules {
		rule := w.rules[i]
		if !rule.Matches(rec) {
			continue
		}
		slog.Info("Watch rule matched", "rule", rule.Name, "record", rec.ShortID())
		if err := w.runCmd(ctx, rule, rec); err != nil {
			slog.Error("Watch rule command failed", "rule", rule.Name, "error", err)
		}
	}
}

func (w *Watcher) execute(ctx context.Context, rule Rule, rec *store.Record) error {
	args, err := shlex.Split(rule.Command)
	if err != nil || len(args) == 0 {
		return err
	}

	buffer, err := writeBuffer(rec)
	if err != nil {
		return err
	}
	defer os.Remove(buffer)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), "SLACK_EVENT_FILE="+buffer)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// writeBuffer renders the record to a temp YAML file for rule commands.
func writeBuffer(rec *store.Record) (string, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "slack-event-*.yml")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
