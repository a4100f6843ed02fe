// Package dispatch runs loaded rules over a flattened catalog and applies
// the resulting collection and actor edits.
//
// Collection rules run first, then actor rules. Within each pass rules are
// visited in merge order and items in catalog order. A failed edit is logged
// and counted; the pass continues with the next item.
package dispatch

import (
	"context"
	"log/slog"

	"autocollect/internal/catalog"
	"autocollect/internal/logging"
	"autocollect/internal/rules"
	"autocollect/internal/services"
)

// Reporter receives one announcement per edit.
type Reporter interface {
	CollectionAdded(item catalog.Item, collection string)
	ActorAdded(item catalog.Item, actor string)
	ActorRemoved(item catalog.Item, actor string)
	ThumbSet(item catalog.Item, actor string)
}

// Options tune a dispatcher.
type Options struct {
	// DryRun announces matches without calling the mutator.
	DryRun bool
}

// Dispatcher applies rules through a catalog.Mutator.
type Dispatcher struct {
	mutator  catalog.Mutator
	reporter Reporter
	logger   *slog.Logger
	dryRun   bool
}

// New builds a dispatcher. reporter and logger may be nil.
func New(mutator catalog.Mutator, reporter Reporter, logger *slog.Logger, opts Options) *Dispatcher {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Dispatcher{
		mutator:  mutator,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "dispatch"),
		dryRun:   opts.DryRun,
	}
}

// Run dispatches every rule of bundle against items. It returns early only
// when ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, bundle rules.Bundle, items []catalog.Item) (Summary, error) {
	summary := Summary{Items: len(items), DryRun: d.dryRun}
	for _, rule := range bundle.Collections.Rules() {
		if err := d.runRule(ctx, rule, items, &summary, d.applyCollection); err != nil {
			return summary, err
		}
	}
	for _, rule := range bundle.Actors.Rules() {
		if err := d.runRule(ctx, rule, items, &summary, d.applyActor); err != nil {
			return summary, err
		}
	}
	d.logger.Info("dispatch complete",
		logging.Int("items", summary.Items),
		logging.Int("matches", summary.Matches),
		logging.Int("failures", summary.Failures),
		logging.Bool("dry_run", d.dryRun),
	)
	return summary, nil
}

type applyFunc func(ctx context.Context, rule rules.Rule, item catalog.Item, summary *Summary) error

func (d *Dispatcher) runRule(ctx context.Context, rule rules.Rule, items []catalog.Item, summary *Summary, apply applyFunc) error {
	ruleCtx := services.WithRule(ctx, rule.Kind.String(), rule.Name)
	logger := logging.WithContext(ruleCtx, d.logger)
	logger.Debug("evaluating rule", logging.String("source", rule.Source))

	summary.Rules++
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		itemCtx := services.WithItem(ruleCtx, item.Key)
		matched, err := d.evaluate(rule, item, summary)
		if err != nil {
			summary.Failures++
			logging.WithContext(itemCtx, d.logger).Warn("pattern evaluation failed",
				logging.String("title", item.Title),
				logging.Error(err),
			)
			continue
		}
		if !matched {
			continue
		}
		summary.Matches++
		if err := apply(itemCtx, rule, item, summary); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			summary.Failures++
			logging.WithContext(itemCtx, d.logger).Error("edit failed",
				logging.String("title", item.Title),
				logging.Error(err),
			)
		}
	}
	return nil
}

// evaluate applies exclusion first for actor rules; an excluded item never
// matches.
func (d *Dispatcher) evaluate(rule rules.Rule, item catalog.Item, summary *Summary) (bool, error) {
	if rule.Kind == rules.KindActor {
		excluded, err := rule.Spec.Excluded(item)
		if err != nil {
			return false, err
		}
		if excluded {
			summary.Excluded++
			return false, nil
		}
	}
	return rule.Spec.Matches(item)
}

func (d *Dispatcher) applyCollection(ctx context.Context, rule rules.Rule, item catalog.Item, summary *Summary) error {
	d.reporter.CollectionAdded(item, rule.Name)
	if !d.dryRun {
		if err := d.mutator.AddCollection(ctx, item, rule.Name); err != nil {
			return err
		}
	}
	summary.CollectionAdds++
	return nil
}

func (d *Dispatcher) applyActor(ctx context.Context, rule rules.Rule, item catalog.Item, summary *Summary) error {
	spec := rule.Spec
	if spec.Action == rules.ActionRemove {
		d.reporter.ActorRemoved(item, rule.Name)
		if !d.dryRun {
			if err := d.mutator.RemoveActor(ctx, item, rule.Name, spec.Locked); err != nil {
				return err
			}
		}
		summary.ActorRemovals++
		return nil
	}

	d.reporter.ActorAdded(item, rule.Name)
	if !d.dryRun {
		if err := d.mutator.AddActor(ctx, item, rule.Name, spec.Locked); err != nil {
			return err
		}
	}
	summary.ActorAdds++
	if spec.Thumb == "" {
		return nil
	}
	d.reporter.ThumbSet(item, rule.Name)
	if !d.dryRun {
		if err := d.mutator.SetActorThumb(ctx, item, rule.Name, spec.Thumb, spec.Locked); err != nil {
			return err
		}
	}
	summary.ThumbsSet++
	return nil
}

type nopReporter struct{}

func (nopReporter) CollectionAdded(catalog.Item, string) {}
func (nopReporter) ActorAdded(catalog.Item, string)      {}
func (nopReporter) ActorRemoved(catalog.Item, string)    {}
func (nopReporter) ThumbSet(catalog.Item, string)        {}
