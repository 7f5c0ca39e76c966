// Package query implements the expression parser, field projectors,
// generators, and executor that back both ad-hoc queries and subscription
// dispatch.
package query

import (
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
)

// Candidate is the per-file view an expression and a field projector
// operate against.
type Candidate struct {
	// RelativePath is the file's path relative to the root.
	RelativePath string
	Node         *graph.FileNode
}

// EvalContext carries the state an expression may need beyond the
// candidate itself: the root's clock (for since comparisons) and the
// query's case-sensitivity setting.
type EvalContext struct {
	Clock         *clock.Clock
	CaseSensitive bool
}

// Expression is a parsed, evaluable node of the query expression tree.
type Expression interface {
	Evaluate(ctx *EvalContext, c Candidate) bool
}

// ParseFunc constructs an Expression from a term's argument list (the
// elements of the term array after its name).
type ParseFunc func(args []interface{}) (Expression, error)

var registry = map[string]ParseFunc{}

// Register adds name to the term registry. Called from this package's
// init as well as available to callers that want to extend the grammar.
func Register(name string, fn ParseFunc) {
	registry[name] = fn
}

func init() {
	Register("not", parseNot)
	Register("allof", parseAllOf)
	Register("anyof", parseAnyOf)
	Register("true", parseTrue)
	Register("false", parseFalse)
	Register("match", parseMatch(false))
	Register("imatch", parseMatch(true))
	Register("pcre", parsePCRE(false))
	Register("ipcre", parsePCRE(true))
	Register("since", parseSince)
	Register("suffix", parseSuffix)
	Register("name", parseName)
	Register("type", parseType)
	Register("size", parseSize)
	Register("exists", parseExists)
	Register("empty", parseEmpty)
}

// Parse parses a single term: either a bare string (shorthand for
// [string]) or a [name, ...args] array, as decoded from BSER/JSON into
// plain interface{} values (strings, float64/int64, bool, []interface{},
// map[string]interface{}, nil).
func Parse(term interface{}) (Expression, error) {
	switch t := term.(type) {
	case string:
		return Parse([]interface{}{t})
	case []interface{}:
		if len(t) == 0 {
			return nil, errors.New("query: empty term array")
		}
		name, ok := t[0].(string)
		if !ok {
			return nil, errors.Errorf("query: term name must be a string, got %T", t[0])
		}
		fn, ok := registry[name]
		if !ok {
			return nil, errors.Errorf("query: unknown term %q", name)
		}
		return fn(t[1:])
	default:
		return nil, errors.Errorf("query: invalid term representation %T", term)
	}
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asStringList(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func asNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

// --- not / allof / anyof / true / false ---

func parseNot(args []interface{}) (Expression, error) {
	if len(args) != 1 {
		return nil, errors.New("query: not takes exactly one sub-expression")
	}
	sub, err := Parse(args[0])
	if err != nil {
		return nil, err
	}
	return notExpr{sub}, nil
}

type notExpr struct{ sub Expression }

func (e notExpr) Evaluate(ctx *EvalContext, c Candidate) bool { return !e.sub.Evaluate(ctx, c) }

func parseAllOf(args []interface{}) (Expression, error) {
	subs, err := parseAll(args)
	if err != nil {
		return nil, err
	}
	return allOfExpr(subs), nil
}

type allOfExpr []Expression

func (e allOfExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	for _, sub := range e {
		if !sub.Evaluate(ctx, c) {
			return false
		}
	}
	return true
}

func parseAnyOf(args []interface{}) (Expression, error) {
	subs, err := parseAll(args)
	if err != nil {
		return nil, err
	}
	return anyOfExpr(subs), nil
}

type anyOfExpr []Expression

func (e anyOfExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	for _, sub := range e {
		if sub.Evaluate(ctx, c) {
			return true
		}
	}
	return false
}

func parseAll(args []interface{}) ([]Expression, error) {
	out := make([]Expression, 0, len(args))
	for _, a := range args {
		sub, err := Parse(a)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

type constExpr bool

func (e constExpr) Evaluate(*EvalContext, Candidate) bool { return bool(e) }

func parseTrue([]interface{}) (Expression, error)  { return constExpr(true), nil }
func parseFalse([]interface{}) (Expression, error) { return constExpr(false), nil }

// --- match / imatch ---

// matchScope selects whether a pattern is matched against a file's
// basename or its full path relative to the query's relative_root.
type matchScope int

const (
	scopeBasename matchScope = iota
	scopeWholename
)

type matchExpr struct {
	pattern       string
	scope         matchScope
	caseSensitive bool
}

func (e matchExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	subject := c.RelativePath
	if e.scope == scopeBasename {
		subject = path.Base(subject)
	}
	pattern := e.pattern
	if !e.caseSensitive {
		subject = strings.ToLower(subject)
		pattern = strings.ToLower(pattern)
	}
	matched, err := doublestar.Match(pattern, subject)
	return err == nil && matched
}

func parseMatch(caseInsensitive bool) ParseFunc {
	return func(args []interface{}) (Expression, error) {
		if len(args) == 0 {
			return nil, errors.New("query: match requires a pattern")
		}
		pattern, ok := asString(args[0])
		if !ok {
			return nil, errors.New("query: match pattern must be a string")
		}
		scope := scopeBasename
		if len(args) > 1 {
			if s, ok := asString(args[1]); ok && s == "wholename" {
				scope = scopeWholename
			}
		}
		return matchExpr{pattern: pattern, scope: scope, caseSensitive: !caseInsensitive}, nil
	}
}

// --- pcre / ipcre ---
//
// There is no PCRE binding anywhere in the example pack; stdlib regexp
// (RE2 syntax, a strict subset of PCRE) is used instead. Patterns that
// rely on PCRE-only constructs (backreferences, lookaround) will fail to
// compile; this is a documented gap, not a silent behavior change.

type pcreExpr struct {
	re *regexp.Regexp
}

func (e pcreExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	return e.re.MatchString(c.RelativePath)
}

func parsePCRE(caseInsensitive bool) ParseFunc {
	return func(args []interface{}) (Expression, error) {
		if len(args) == 0 {
			return nil, errors.New("query: pcre requires a pattern")
		}
		pattern, ok := asString(args[0])
		if !ok {
			return nil, errors.New("query: pcre pattern must be a string")
		}
		if caseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, "query: invalid pcre pattern")
		}
		return pcreExpr{re: re}, nil
	}
}

// --- since ---

type sinceExpr struct {
	spec  clock.Spec
	field string

	resolved   bool
	thresholdT uint32
	wall       int64
}

func parseSince(args []interface{}) (Expression, error) {
	if len(args) == 0 {
		return nil, errors.New("query: since requires a clockspec")
	}
	specString, ok := asString(args[0])
	if !ok {
		return nil, errors.New("query: since clockspec must be a string")
	}
	spec, err := clock.ParseSpec(specString)
	if err != nil {
		return nil, errors.Wrap(err, "query: invalid since clockspec")
	}
	field := "oclock"
	if len(args) > 1 {
		if f, ok := asString(args[1]); ok {
			field = f
		}
	}
	switch field {
	case "oclock", "cclock", "mtime", "ctime":
	default:
		return nil, errors.Errorf("query: unknown since field %q", field)
	}
	return &sinceExpr{spec: spec, field: field}, nil
}

// resolve converts a named-cursor spec into a concrete tick threshold the
// first time it's evaluated, consuming (and advancing) the cursor exactly
// once per query, matching the named-cursor "read and advance" contract.
func (e *sinceExpr) resolve(c *clock.Clock) {
	if e.resolved {
		return
	}
	switch e.spec.Kind {
	case clock.SpecNamedCursor:
		e.thresholdT = c.Cursor(e.spec.CursorName)
	case clock.SpecClock:
		e.thresholdT = e.spec.Ticks
	case clock.SpecWallClock:
		e.wall = e.spec.WallClock
	}
	e.resolved = true
}

func (e *sinceExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	e.resolve(ctx.Clock)

	switch e.field {
	case "mtime":
		return e.spec.Kind == clock.SpecWallClock && c.Node.Stat.MTime.Unix() > e.wall
	case "ctime":
		return e.spec.Kind == clock.SpecWallClock && c.Node.Stat.CTime.Unix() > e.wall
	case "cclock":
		return e.tickSince(c.Node.CTime.Ticks)
	default:
		return e.tickSince(c.Node.OTime.Ticks)
	}
}

func (e *sinceExpr) tickSince(ticks uint32) bool {
	switch e.spec.Kind {
	case clock.SpecClock, clock.SpecNamedCursor:
		return ticks > e.thresholdT
	case clock.SpecWallClock:
		return false
	default:
		return false
	}
}

// --- suffix / name ---

type suffixExpr struct{ suffixes map[string]bool }

func (e suffixExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	idx := strings.LastIndexByte(c.RelativePath, '.')
	if idx < 0 {
		return false
	}
	return e.suffixes[strings.ToLower(c.RelativePath[idx+1:])]
}

func parseSuffix(args []interface{}) (Expression, error) {
	if len(args) == 0 {
		return nil, errors.New("query: suffix requires at least one suffix")
	}
	suffixes, ok := asStringList(args[0])
	if !ok {
		return nil, errors.New("query: suffix argument must be a string or list of strings")
	}
	set := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		set[strings.ToLower(strings.TrimPrefix(s, "."))] = true
	}
	return suffixExpr{suffixes: set}, nil
}

type nameExpr struct {
	names         map[string]bool
	scope         matchScope
	caseSensitive bool
}

func (e nameExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	subject := c.RelativePath
	if e.scope == scopeBasename {
		subject = path.Base(subject)
	}
	if !e.caseSensitive {
		subject = strings.ToLower(subject)
	}
	return e.names[subject]
}

func parseName(args []interface{}) (Expression, error) {
	if len(args) == 0 {
		return nil, errors.New("query: name requires at least one name")
	}
	names, ok := asStringList(args[0])
	if !ok {
		return nil, errors.New("query: name argument must be a string or list of strings")
	}
	scope := scopeBasename
	caseSensitive := true
	if len(args) > 1 {
		if s, ok := asString(args[1]); ok && s == "wholename" {
			scope = scopeWholename
		}
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if !caseSensitive {
			n = strings.ToLower(n)
		}
		set[n] = true
	}
	return nameExpr{names: set, scope: scope, caseSensitive: caseSensitive}, nil
}

// --- type ---

type typeExpr struct{ code byte }

func (e typeExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	switch e.code {
	case 'f':
		return !c.Node.Stat.IsDir && !c.Node.Stat.IsSymlink
	case 'd':
		return c.Node.Stat.IsDir
	case 'l':
		return c.Node.Stat.IsSymlink
	default:
		return false
	}
}

func parseType(args []interface{}) (Expression, error) {
	if len(args) != 1 {
		return nil, errors.New("query: type requires exactly one type code")
	}
	s, ok := asString(args[0])
	if !ok || len(s) != 1 {
		return nil, errors.New("query: type code must be a single-character string")
	}
	return typeExpr{code: s[0]}, nil
}

// --- size ---

type sizeExpr struct {
	op    string
	value int64
}

func (e sizeExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	size := c.Node.Stat.Size
	switch e.op {
	case "eq", "==":
		return size == e.value
	case "ne", "!=":
		return size != e.value
	case "gt", ">":
		return size > e.value
	case "ge", ">=":
		return size >= e.value
	case "lt", "<":
		return size < e.value
	case "le", "<=":
		return size <= e.value
	default:
		return false
	}
}

func parseSize(args []interface{}) (Expression, error) {
	if len(args) != 2 {
		return nil, errors.New("query: size requires [operator, value]")
	}
	op, ok := asString(args[0])
	if !ok {
		return nil, errors.New("query: size operator must be a string")
	}
	value, ok := asNumber(args[1])
	if !ok {
		return nil, errors.New("query: size value must be a number")
	}
	return sizeExpr{op: op, value: int64(value)}, nil
}

// --- exists / empty ---

type existsExpr struct{}

func (existsExpr) Evaluate(ctx *EvalContext, c Candidate) bool { return c.Node.Exists }

func parseExists([]interface{}) (Expression, error) { return existsExpr{}, nil }

type emptyExpr struct{}

func (emptyExpr) Evaluate(ctx *EvalContext, c Candidate) bool {
	return c.Node.Exists && c.Node.Stat.Size == 0
}

func parseEmpty([]interface{}) (Expression, error) { return emptyExpr{}, nil }
