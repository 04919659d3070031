package types

import (
	"slices"
	"sort"

	"github.com/hashicorp/go-set/v3"
	xset "github.com/xtgo/set"
)

// maxCommonSupertypeDepth bounds how deep CommonSupertype recurses into arguments.
// Past it, arguments become star projections.
const maxCommonSupertypeDepth = 8

// CommonSupertype computes the least common supertype of types, the type of an
// expression like `if (c) a else b`.
//
// Nothing is ignored and the result is nullable if any input is. If any input is
// an error type, that error type is the result.
func CommonSupertype(types []Type) Type {
	return commonSupertype(types, 0)
}

func commonSupertype(types []Type, depth int) Type {
	if len(types) == 0 {
		return Builtins().NothingType()
	}
	nullable := false
	var remaining []Type
	for _, t := range dedupe(types) {
		t = Unwrap(t)
		if t.IsError() {
			return t
		}
		nullable = nullable || t.IsNullable()
		if Builtins().IsNothing(t) {
			continue
		}
		remaining = append(remaining, MakeNotNullable(t))
	}
	if len(remaining) == 0 {
		return MakeNullableIfNeeded(Builtins().NothingType(), nullable)
	}
	remaining = dedupe(remaining)
	if len(remaining) == 1 {
		return MakeNullableIfNeeded(remaining[0], nullable)
	}

	frontier := computeCommonRawSupertypes(remaining)
	for len(frontier) > 1 {
		var merged []Type
		for _, entry := range frontier {
			merged = append(merged, computeSupertypeProjections(entry.constructor, entry.instances, depth))
		}
		frontier = computeCommonRawSupertypes(merged)
	}
	if len(frontier) == 0 {
		logger.Debug("no common constructor", "types", remaining)
		return Builtins().NullableAnyType()
	}
	result := computeSupertypeProjections(frontier[0].constructor, frontier[0].instances, depth)
	return MakeNullableIfNeeded(result, nullable)
}

type rawSupertype struct {
	constructor *TypeConstructor
	instances   []Type
}

type constructorIDs []ConstructorID

func (s constructorIDs) Len() int           { return len(s) }
func (s constructorIDs) Less(i, j int) bool { return s[i] < s[j] }
func (s constructorIDs) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// computeCommonRawSupertypes finds the constructors that are supertypes of every
// one of types and are not supertypes of another such constructor, together with
// every instance of them reachable from types
func computeCommonRawSupertypes(types []Type) []rawSupertype {
	walker := newSupertypeWalker()
	var common constructorIDs
	for i, t := range types {
		reached := walker.markAll(t)
		ids := make(constructorIDs, 0, reached.Size())
		for id := range reached.Items() {
			ids = append(ids, id)
		}
		sort.Sort(ids)
		if i == 0 {
			common = ids
			continue
		}
		data := append(slices.Clone(common), ids...)
		n := xset.Inter(data, len(common))
		common = data[:n]
	}
	commonSet := set.From(common)

	notSource := set.New[ConstructorID](len(common))
	var result []rawSupertype
	for _, constructor := range walker.topologicalOrder() {
		if !commonSet.Contains(constructor.ID()) || notSource.Contains(constructor.ID()) {
			continue
		}
		result = append(result, rawSupertype{constructor: constructor, instances: walker.instances[constructor]})
		walker.markSupertypes(constructor, notSource)
	}
	return result
}

// supertypeWalker records every instance of every constructor reachable through
// supertypes, and the declaration graph between those constructors
type supertypeWalker struct {
	instances    map[*TypeConstructor][]Type
	constructors []*TypeConstructor
}

func newSupertypeWalker() *supertypeWalker {
	return &supertypeWalker{instances: make(map[*TypeConstructor][]Type)}
}

func (w *supertypeWalker) markAll(t Type) *set.Set[ConstructorID] {
	reached := set.New[ConstructorID](8)
	w.mark(t, reached)
	return reached
}

func (w *supertypeWalker) mark(t Type, reached *set.Set[ConstructorID]) {
	constructor := t.Constructor()
	existing, known := w.instances[constructor]
	if !known {
		w.constructors = append(w.constructors, constructor)
	}
	if !slices.ContainsFunc(existing, func(other Type) bool { return Equal(other, t) }) {
		w.instances[constructor] = append(existing, t)
	}
	if !reached.Insert(constructor.ID()) {
		return
	}
	for _, supertype := range ImmediateSupertypes(t) {
		w.mark(supertype, reached)
	}
}

func (w *supertypeWalker) markSupertypes(constructor *TypeConstructor, marked *set.Set[ConstructorID]) {
	for _, supertype := range constructor.Supertypes() {
		next := Unwrap(supertype).Constructor()
		if marked.Insert(next.ID()) {
			w.markSupertypes(next, marked)
		}
	}
}

// topologicalOrder lists the reached constructors so that subtypes come before
// their supertypes
func (w *supertypeWalker) topologicalOrder() []*TypeConstructor {
	visited := set.New[ConstructorID](len(w.constructors))
	var postOrder []*TypeConstructor
	var visit func(*TypeConstructor)
	visit = func(constructor *TypeConstructor) {
		if !visited.Insert(constructor.ID()) {
			return
		}
		for _, supertype := range constructor.Supertypes() {
			next := Unwrap(supertype).Constructor()
			if _, reached := w.instances[next]; reached {
				visit(next)
			}
		}
		postOrder = append(postOrder, constructor)
	}
	for _, constructor := range w.constructors {
		visit(constructor)
	}
	slices.Reverse(postOrder)
	return postOrder
}

// computeSupertypeProjections merges instances of the same constructor into a
// single type by merging arguments parameter-wise
func computeSupertypeProjections(constructor *TypeConstructor, instances []Type, depth int) Type {
	instances = dedupe(instances)
	if len(instances) == 1 {
		return instances[0]
	}
	nullable := false
	for _, instance := range instances {
		nullable = nullable || instance.IsNullable()
	}
	params := constructor.Parameters()
	args := make([]TypeProjection, len(params))
	for i, param := range params {
		var projections []TypeProjection
		for _, instance := range instances {
			projection := instance.Arguments()[i]
			if !slices.ContainsFunc(projections, func(p TypeProjection) bool { return ProjectionsEqual(p, projection) }) {
				projections = append(projections, projection)
			}
		}
		args[i] = computeSupertypeProjection(param, projections, depth)
	}
	return NewType(constructor, args, nullable)
}

func computeSupertypeProjection(param *TypeParameter, projections []TypeProjection, depth int) TypeProjection {
	if len(projections) == 1 {
		return projections[0]
	}
	if depth >= maxCommonSupertypeDepth {
		return StarProjection(param)
	}

	var ins, outs []Type
	insAlive, outsAlive := param.Variance() != Out, param.Variance() != In
	for _, projection := range projections {
		if projection.IsStar() {
			return StarProjection(param)
		}
		switch projection.Kind {
		case Invariant:
			ins = append(ins, projection.Type)
			outs = append(outs, projection.Type)
		case In:
			ins = append(ins, projection.Type)
			outsAlive = false
		case Out:
			outs = append(outs, projection.Type)
			insAlive = false
		}
	}

	if insAlive && len(ins) > 0 {
		if intersection, ok := Intersect(ins); ok {
			kind := In
			if param.Variance() == In {
				kind = Invariant
			}
			return TypeProjection{Kind: kind, Type: intersection}
		}
	}
	if outsAlive && len(outs) > 0 {
		supertype := commonSupertype(outs, depth+1)
		kind := Out
		if param.Variance() == Out {
			kind = Invariant
		}
		if kind == Out && Equal(supertype, param.UpperBoundsAsType()) {
			return StarProjection(param)
		}
		return TypeProjection{Kind: kind, Type: supertype}
	}
	return StarProjection(param)
}
