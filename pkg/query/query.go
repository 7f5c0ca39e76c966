package query

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
)

// Query is a fully parsed query or subscription body, per spec.md's
// "{ expression tree, field list, since spec, suffix list, path list with
// depths, glob list, relative_root, sync_timeout, lock_timeout,
// case_sensitive, dedup_results, empty_on_fresh_instance }".
type Query struct {
	Expression Expression
	Fields     []string

	Since    *clock.Spec
	Suffixes []string
	Paths    []PathSpec
	Globs    []string

	// GlobNoEscape is parsed but not yet honored: doublestar.Match (v4)
	// exposes no per-call option to disable backslash-escaping, unlike
	// its Glob/GlobWalk entry points which take GlobOptions. Patterns
	// relying on backslash as a literal character rather than an escape
	// will not match as a wildmatch-noescape caller would expect.
	GlobNoEscape        bool
	GlobIncludeDotfiles bool

	RelativeRoot string

	SyncTimeout time.Duration
	LockTimeout time.Duration

	CaseSensitive         bool
	DedupResults          bool
	EmptyOnFreshInstance bool
}

// Compile parses a decoded query-spec body (the map produced by decoding
// the `query`/`subscribe` command's BSER/JSON argument) into a Query. Every
// field is optional; an absent expression matches everything and an absent
// generator set falls back to the all-files generator.
func Compile(spec map[string]interface{}) (*Query, error) {
	q := &Query{CaseSensitive: true}

	if raw, ok := spec["expression"]; ok {
		expr, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		q.Expression = expr
	}

	if raw, ok := spec["fields"]; ok {
		fields, ok := asStringList(raw)
		if !ok {
			return nil, errors.New("query: fields must be a string or list of strings")
		}
		q.Fields = fields
	} else {
		q.Fields = []string{"name"}
	}

	if raw, ok := spec["since"]; ok {
		s, ok := asString(raw)
		if !ok {
			return nil, errors.New("query: since must be a string clockspec")
		}
		parsed, err := clock.ParseSpec(s)
		if err != nil {
			return nil, err
		}
		q.Since = &parsed
	}

	if raw, ok := spec["suffix"]; ok {
		list, ok := asStringList(raw)
		if !ok {
			return nil, errors.New("query: suffix must be a string or list of strings")
		}
		q.Suffixes = list
	}

	if raw, ok := spec["path"]; ok {
		paths, err := parsePathSpecs(raw)
		if err != nil {
			return nil, err
		}
		q.Paths = paths
	}

	if raw, ok := spec["glob"]; ok {
		list, ok := asStringList(raw)
		if !ok {
			return nil, errors.New("query: glob must be a string or list of strings")
		}
		q.Globs = list
	}

	if raw, ok := spec["glob_noescape"]; ok {
		b, _ := raw.(bool)
		q.GlobNoEscape = b
	}
	if raw, ok := spec["glob_includedotfiles"]; ok {
		b, _ := raw.(bool)
		q.GlobIncludeDotfiles = b
	}

	if raw, ok := spec["relative_root"]; ok {
		s, ok := asString(raw)
		if !ok {
			return nil, errors.New("query: relative_root must be a string")
		}
		q.RelativeRoot = strings.Trim(s, "/")
	}

	if raw, ok := spec["sync_timeout"]; ok {
		if n, ok := asNumber(raw); ok {
			q.SyncTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if raw, ok := spec["lock_timeout"]; ok {
		if n, ok := asNumber(raw); ok {
			q.LockTimeout = time.Duration(n) * time.Millisecond
		}
	}

	if raw, ok := spec["case_sensitive"]; ok {
		if b, ok := raw.(bool); ok {
			q.CaseSensitive = b
		}
	}
	if raw, ok := spec["dedup_results"]; ok {
		b, _ := raw.(bool)
		q.DedupResults = b
	}
	if raw, ok := spec["empty_on_fresh_instance"]; ok {
		b, _ := raw.(bool)
		q.EmptyOnFreshInstance = b
	}

	return q, nil
}

func parsePathSpecs(raw interface{}) ([]PathSpec, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.New("query: path must be a list")
	}
	out := make([]PathSpec, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case string:
			out = append(out, PathSpec{Path: t, Depth: -1})
		case map[string]interface{}:
			p, _ := asString(t["path"])
			depth := -1
			if d, ok := asNumber(t["depth"]); ok {
				depth = int(d)
			}
			out = append(out, PathSpec{Path: p, Depth: depth})
		default:
			return nil, errors.Errorf("query: invalid path entry %T", item)
		}
	}
	return out, nil
}

func (q *Query) generatorSpec() GeneratorSpec {
	return GeneratorSpec{
		Since:               q.Since,
		Suffixes:            q.Suffixes,
		Paths:               q.Paths,
		Globs:               q.Globs,
		GlobIncludeDotfiles: q.GlobIncludeDotfiles,
	}
}

// Result is the outcome of executing a Query, matching the `query`
// command's `{clock, is_fresh_instance, files}` response shape.
type Result struct {
	Clock           string
	IsFreshInstance bool
	Files           []map[string]interface{}
}

// Execute runs q against g, projecting result fields via ctx. evalClock is
// used both for resolving named-cursor since-specs (via the generator) and
// for the top-level fresh-instance comparison against q.Since.
//
// Fresh-instance semantics (§4.9): if q.Since compared as a fresh-instance
// clockspec (a different process incarnation, or ticks preceding the
// root's last age-out), the result reports is_fresh_instance and, if
// q.EmptyOnFreshInstance is set, an empty file list; otherwise every
// matching file currently present is returned regardless of the since
// comparison's own boundary (a fresh instance can't trust incremental
// history, so it must report everything it currently knows, or nothing at
// all, never a partial incremental slice).
func Execute(g *graph.Graph, evalClock *clock.Clock, ctx *ProjectContext, q *Query) (*Result, error) {
	clockAtStart := evalClock.Ticks()

	freshInstance := false
	if q.Since != nil && q.Since.Kind == clock.SpecClock {
		freshInstance = evalClock.Compare(*q.Since)
	}

	result := &Result{
		Clock:           evalClock.StringAt(clockAtStart),
		IsFreshInstance: freshInstance,
	}

	if freshInstance && q.EmptyOnFreshInstance {
		result.Files = []map[string]interface{}{}
		return result, nil
	}

	genSpec := q.generatorSpec()
	if freshInstance {
		// A fresh instance can't trust the since boundary (it may refer
		// to ticks this incarnation never produced); fall back to
		// reporting every file currently present instead of the narrow
		// since-scoped slice.
		genSpec.Since = nil
		genSpec.AllFiles = true
	}

	candidates := Generate(g, genSpec, evalClock)

	evalCtx := &EvalContext{Clock: evalClock, CaseSensitive: q.CaseSensitive}

	var matched []Candidate
	seenNames := make(map[string]bool)
	for _, c := range candidates {
		if q.RelativeRoot != "" && !withinRelativeRoot(c.RelativePath, q.RelativeRoot) {
			continue
		}
		if q.Expression != nil && !q.Expression.Evaluate(evalCtx, c) {
			continue
		}
		if q.DedupResults {
			if seenNames[c.RelativePath] {
				continue
			}
			seenNames[c.RelativePath] = true
		}
		matched = append(matched, c)
	}

	files, err := Project(ctx, q.Fields, matched)
	if err != nil {
		return nil, err
	}
	result.Files = files

	return result, nil
}

func withinRelativeRoot(relativePath, relativeRoot string) bool {
	if relativePath == relativeRoot {
		return true
	}
	return strings.HasPrefix(relativePath, relativeRoot+"/")
}
