package engine

import (
	"maps"
	"slices"

	"github.com/roach88/modellist/internal/value"
	"github.com/roach88/modellist/pkg/modellist"
)

// operation is one entry of the registry that maps step names onto List
// methods.
type operation struct {
	apply   func(c *call) (any, error)
	minArgs int
	needsFn bool
}

// call carries one step to its operation.
type call struct {
	list     *modellist.List[any]
	step     Step
	programs *programCache
}

// operations is keyed by the lower-camel method name.
var operations = map[string]operation{
	"get":         {apply: opGet, minArgs: 1},
	"length":      {apply: opLength},
	"bindable":    {apply: opBindable},
	"push":        {apply: opPush},
	"pop":         {apply: opPop},
	"shift":       {apply: opShift},
	"unshift":     {apply: opUnshift},
	"splice":      {apply: opSplice, minArgs: 1},
	"set":         {apply: opSet, minArgs: 2},
	"clean":       {apply: opClean},
	"overwrite":   {apply: opOverwrite, minArgs: 1},
	"map":         {apply: opMap, needsFn: true},
	"filter":      {apply: opFilter, needsFn: true},
	"pull":        {apply: opPull},
	"concat":      {apply: opConcat},
	"slice":       {apply: opSlice},
	"merge":       {apply: opMerge, minArgs: 1},
	"clone":       {apply: opClone},
	"forEach":     {apply: opForEach, needsFn: true},
	"some":        {apply: opSome, needsFn: true},
	"every":       {apply: opEvery, needsFn: true},
	"indexOf":     {apply: opIndexOf, minArgs: 1},
	"lastIndexOf": {apply: opLastIndexOf, minArgs: 1},
	"join":        {apply: opJoin},
	"reverse":     {apply: opReverse},
	"sort":        {apply: opSort},
	"reduce":      {apply: opReduce, needsFn: true},
	"reduceRight": {apply: opReduceRight, needsFn: true},
}

// Operations returns the registered operation names in sorted order.
func Operations() []string {
	return slices.Sorted(maps.Keys(operations))
}

func (c *call) arg(i int) any {
	if i < len(c.step.Args) {
		return c.step.Args[i]
	}
	return nil
}

func (c *call) intArg(i int) (int, error) {
	switch n := c.arg(i).(type) {
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int64(n)) {
			return int(n), nil
		}
	}
	return 0, newError(ErrCodeInvalidArgument, "args[%d]: want int, got %s", i, value.TypeName(c.arg(i)))
}

func (c *call) optionalInt(i, fallback int) (int, error) {
	if i >= len(c.step.Args) {
		return fallback, nil
	}
	return c.intArg(i)
}

func (c *call) arrayArg(i int) ([]any, error) {
	switch seq := c.arg(i).(type) {
	case value.Array:
		return seq, nil
	case value.Snapshotter:
		return seq.Snapshot(), nil
	}
	return nil, newError(ErrCodeInvalidArgument, "args[%d]: want array, got %s", i, value.TypeName(c.arg(i)))
}

func (c *call) eval(env map[string]any) (any, error) {
	return c.programs.eval(c.step.Fn, env)
}

func (c *call) evalBool(env map[string]any) (bool, error) {
	return c.programs.evalBool(c.step.Fn, env)
}

func opGet(c *call) (any, error) {
	i, err := c.intArg(0)
	if err != nil {
		return nil, err
	}
	item, _ := c.list.Get(i)
	return item, nil
}

func opLength(c *call) (any, error) {
	return int64(c.list.Len()), nil
}

func opBindable(c *call) (any, error) {
	return c.list.Snapshot(), nil
}

func opPush(c *call) (any, error) {
	c.list.Push(c.step.Args...)
	return nil, nil
}

func opPop(c *call) (any, error) {
	item, _ := c.list.Pop()
	return item, nil
}

func opShift(c *call) (any, error) {
	item, _ := c.list.Shift()
	return item, nil
}

func opUnshift(c *call) (any, error) {
	c.list.Unshift(c.step.Args...)
	return nil, nil
}

func opSplice(c *call) (any, error) {
	start, err := c.intArg(0)
	if err != nil {
		return nil, err
	}
	deleteCount, err := c.optionalInt(1, c.list.Len())
	if err != nil {
		return nil, err
	}
	var items []any
	if len(c.step.Args) > 2 {
		items = c.step.Args[2:]
	}
	return value.Array(c.list.Splice(start, deleteCount, items...)), nil
}

func opSet(c *call) (any, error) {
	index, err := c.intArg(1)
	if err != nil {
		return nil, err
	}
	c.list.Set(c.arg(0), index)
	return nil, nil
}

func opClean(c *call) (any, error) {
	c.list.Clean()
	return nil, nil
}

func opOverwrite(c *call) (any, error) {
	seq, err := c.arrayArg(0)
	if err != nil {
		return nil, err
	}
	c.list.Overwrite(seq)
	return nil, nil
}

// opMap evaluates every element before writing any of them back, so a
// failing expression leaves the list untouched.
func opMap(c *call) (any, error) {
	snapshot := c.list.Snapshot()
	results := make([]any, len(snapshot))
	for i, item := range snapshot {
		out, err := c.eval(map[string]any{"item": item, "index": int64(i)})
		if err != nil {
			return nil, err
		}
		results[i] = out
	}
	c.list.Map(func(_ any, index int) any { return results[index] })
	return nil, nil
}

func opFilter(c *call) (any, error) {
	snapshot := c.list.Snapshot()
	keep := make([]bool, len(snapshot))
	for i, item := range snapshot {
		ok, err := c.evalBool(map[string]any{"item": item, "index": int64(i)})
		if err != nil {
			return nil, err
		}
		keep[i] = ok
	}
	c.list.Filter(func(_ any, index int) bool { return keep[index] })
	return nil, nil
}

func opPull(c *call) (any, error) {
	c.list.Pull(c.step.Args...)
	return nil, nil
}

func opConcat(c *call) (any, error) {
	seqs := make([][]any, len(c.step.Args))
	for i := range c.step.Args {
		seq, err := c.arrayArg(i)
		if err != nil {
			return nil, err
		}
		seqs[i] = seq
	}
	c.list.Concat(seqs...)
	return nil, nil
}

func opSlice(c *call) (any, error) {
	start, err := c.optionalInt(0, 0)
	if err != nil {
		return nil, err
	}
	if len(c.step.Args) < 2 {
		c.list.SliceFrom(start)
		return nil, nil
	}
	end, err := c.intArg(1)
	if err != nil {
		return nil, err
	}
	c.list.Slice(start, end)
	return nil, nil
}

// opMerge evaluates the match and merger expressions in a dry run over a
// deep copy of the list first. Only when every expression succeeded is the
// live list merged, replaying the recorded answers in the order Merge asks
// for them, so a failing expression leaves the list untouched.
func opMerge(c *call) (any, error) {
	source, err := c.arrayArg(0)
	if err != nil {
		return nil, err
	}
	spec := c.step.Merge
	if spec == nil {
		spec = &MergeSpec{}
	}

	rec, err := c.recordMerge(spec, source)
	if err != nil {
		return nil, err
	}

	opts := modellist.MergeOptions[any]{Key: spec.Key}
	if spec.Match != "" {
		opts.Match = func(any, any) bool {
			ok := rec.matches[0]
			rec.matches = rec.matches[1:]
			return ok
		}
	}
	if spec.Merger != "" {
		opts.Merger = func(held, _ any) any {
			out := rec.merged[0]
			rec.merged = rec.merged[1:]
			if out.keepHeld {
				return held
			}
			return out.value
		}
	}
	switch spec.Accumulate {
	case AccumulateAppend:
		opts.Accumulator = func(candidate any, _ int) { c.list.Push(candidate) }
	case AccumulateIgnore:
		opts.Accumulator = func(any, int) {}
	}
	if spec.Remove == RemovePull {
		opts.Remover = func(held any) { c.list.Pull(held) }
	}

	c.list.Merge(source, opts)
	return nil, nil
}

// mergeRecord holds the answers of a dry-run merge in call order.
type mergeRecord struct {
	matches []bool
	merged  []mergedValue
}

type mergedValue struct {
	value    any
	keepHeld bool // the merger returned the held element itself
}

// recordMerge runs Merge over deep copies of the elements and the source,
// evaluating spec's expressions and recording every answer. Accumulation
// and removal are skipped since they evaluate nothing.
func (c *call) recordMerge(spec *MergeSpec, source []any) (*mergeRecord, error) {
	rec := &mergeRecord{}
	if spec.Match == "" && spec.Merger == "" {
		return rec, nil
	}

	scratch := value.Copy(c.list.Snapshot()).([]any)
	candidates := value.Copy(value.Array(source)).(value.Array)

	var firstErr error
	opts := modellist.MergeOptions[any]{
		Key:         spec.Key,
		Accumulator: func(any, int) {},
	}
	if spec.Match != "" {
		opts.Match = func(held, candidate any) bool {
			if firstErr != nil {
				return false
			}
			ok, err := c.programs.evalBool(spec.Match, map[string]any{"held": held, "candidate": candidate})
			if err != nil {
				firstErr = err
				return false
			}
			rec.matches = append(rec.matches, ok)
			return ok
		}
	}
	if spec.Merger != "" {
		opts.Merger = func(held, candidate any) any {
			if firstErr != nil {
				return held
			}
			out, err := c.programs.eval(spec.Merger, map[string]any{"held": held, "candidate": candidate})
			if err != nil {
				firstErr = err
				return held
			}
			rec.merged = append(rec.merged, mergedValue{value: out, keepHeld: value.Identical(out, held)})
			return out
		}
	}

	modellist.New(&scratch, false).Merge(candidates, opts)
	if firstErr != nil {
		return nil, firstErr
	}
	return rec, nil
}

func opClone(c *call) (any, error) {
	return c.list.Clone().Snapshot(), nil
}

func opForEach(c *call) (any, error) {
	var firstErr error
	visited := int64(0)
	c.list.ForEach(func(item any, index int, seq []any) {
		if firstErr != nil {
			return
		}
		env := map[string]any{"item": item, "index": int64(index), "seq": value.Array(seq)}
		if _, err := c.eval(env); err != nil {
			firstErr = err
			return
		}
		visited++
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return visited, nil
}

func opSome(c *call) (any, error) {
	var firstErr error
	found := c.list.Some(func(item any, index int) bool {
		ok, err := c.evalBool(map[string]any{"item": item, "index": int64(index)})
		if err != nil {
			firstErr = err
			return true
		}
		return ok
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return found, nil
}

func opEvery(c *call) (any, error) {
	var firstErr error
	all := c.list.Every(func(item any, index int) bool {
		ok, err := c.evalBool(map[string]any{"item": item, "index": int64(index)})
		if err != nil {
			firstErr = err
			return false
		}
		return ok
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}

func opIndexOf(c *call) (any, error) {
	return int64(c.list.IndexOf(c.arg(0))), nil
}

func opLastIndexOf(c *call) (any, error) {
	return int64(c.list.LastIndexOf(c.arg(0))), nil
}

func opJoin(c *call) (any, error) {
	sep := ","
	if len(c.step.Args) > 0 {
		s, ok := c.arg(0).(string)
		if !ok {
			return nil, newError(ErrCodeInvalidArgument, "args[0]: want string, got %s", value.TypeName(c.arg(0)))
		}
		sep = s
	}
	return c.list.Join(sep), nil
}

func opReverse(c *call) (any, error) {
	c.list.Reverse()
	return nil, nil
}

// opSort sorts a clone first and copies the result back only when every
// comparison succeeded.
func opSort(c *call) (any, error) {
	if c.step.Fn == "" {
		c.list.Sort(nil)
		return nil, nil
	}

	var firstErr error
	sorted := c.list.Clone().Sort(func(a, b any) int {
		if firstErr != nil {
			return 0
		}
		n, err := c.programs.compare(c.step.Fn, a, b)
		if err != nil {
			firstErr = err
		}
		return n
	})
	if firstErr != nil {
		return nil, firstErr
	}
	c.list.Overwrite(*sorted.Bindable())
	return nil, nil
}

func opReduce(c *call) (any, error) {
	return reduce(c, modellist.Reduce[any, any])
}

func opReduceRight(c *call) (any, error) {
	return reduce(c, modellist.ReduceRight[any, any])
}

type reducer func(l *modellist.List[any], fn func(acc, item any, index int) any, initial any) any

func reduce(c *call, run reducer) (any, error) {
	var firstErr error
	out := run(c.list, func(acc, item any, index int) any {
		if firstErr != nil {
			return acc
		}
		next, err := c.eval(map[string]any{"acc": acc, "item": item, "index": int64(index)})
		if err != nil {
			firstErr = err
			return acc
		}
		return next
	}, c.arg(0))
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
