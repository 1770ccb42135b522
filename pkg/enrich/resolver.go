package enrich

import (
	"context"
	"log/slog"
	"strings"

	"github.com/japaniel/lexindex/pkg/cache"
	"github.com/japaniel/lexindex/pkg/freq"
	"github.com/japaniel/lexindex/pkg/language"
)

// Resolver queries its sources in order and merges what they return. The
// first source to supply a field wins it; the chain stops once both a
// translation and a definition are known.
type Resolver struct {
	sources []Source
	cache   cache.Store[Result]
	rules   *language.Registry
	oracle  freq.Oracle
	log     *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache sets the process-wide result cache.
func WithCache(c cache.Store[Result]) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithRules enables heuristic grammar and POS for languages in reg.
func WithRules(reg *language.Registry) ResolverOption {
	return func(r *Resolver) { r.rules = reg }
}

// WithOracle sets the frequency oracle used by the sanitizer.
func WithOracle(o freq.Oracle) ResolverOption {
	return func(r *Resolver) { r.oracle = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// NewResolver returns a Resolver over sources, tried in order.
func NewResolver(sources []Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{sources: sources}
	for _, o := range opts {
		o(r)
	}
	if r.cache == nil {
		r.cache = cache.NewMap[Result]()
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "enrich.resolver")
	return r
}

// Resolve looks up req. Source failures are logged and skipped; the only
// error returned is the context's.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	req.Lemma = strings.TrimSpace(req.Lemma)
	req.Source = language.Normalize(req.Source)
	req.Target = language.Normalize(req.Target)
	if req.Lemma == "" {
		return Result{}, nil
	}
	// Proper nouns keep their capitalization as identity, so "Roma" and
	// "roma" are different entries.
	key := req.Lemma + "|" + req.Source + "|" + req.Target
	if res, ok := r.cache.Get(key); ok {
		return res, nil
	}

	var out Result
	for _, s := range r.sources {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := s.Lookup(ctx, req.Lemma, req.Source, req.Target)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			r.log.WarnContext(ctx, "enrichment source failed",
				slog.String("source", s.Name()), slog.String("lemma", req.Lemma), slog.String("error", err.Error()))
			continue
		}
		if res == nil {
			continue
		}
		r.merge(&out, *res, req, s.Name())
		if out.Complete() {
			break
		}
	}

	r.heuristics(&out, req)
	if out.Found() {
		r.cache.Set(key, out)
	}
	return out, nil
}

func (r *Resolver) merge(out *Result, res Result, req Request, name string) {
	contributed := false
	if out.Translation == "" && res.Translation != "" {
		if t, ok := Sanitize(res.Translation, req.Lemma, req.Target, r.oracle); ok {
			out.Translation = t
			contributed = true
		} else {
			r.log.Debug("translation rejected", slog.String("source", name), slog.String("lemma", req.Lemma), slog.String("candidate", res.Translation))
		}
	}
	if out.Definition == "" && res.Definition != "" {
		if d, ok := SanitizeDefinition(res.Definition, req.Lemma); ok {
			out.Definition = d
			contributed = true
		}
	}
	if out.POS == "" {
		out.POS = NormalizePOS(res.POS)
	}
	if len(res.Grammar) > 0 {
		out.Grammar = MergeGrammar(out.Grammar, res.Grammar)
	}
	if contributed && out.Source == "" {
		out.Source = res.Source
		if out.Source == "" {
			out.Source = name
		}
	}
}

func (r *Resolver) heuristics(out *Result, req Request) {
	if r.rules == nil {
		return
	}
	rules := r.rules.Get(req.Source)
	if rules == nil {
		return
	}
	lemma := strings.ToLower(req.Lemma)
	if g := rules.Grammar(lemma); len(g) > 0 {
		out.Grammar = MergeGrammar(out.Grammar, g)
	}
	if out.POS == "" {
		out.POS = rules.POS(lemma)
	}
}
