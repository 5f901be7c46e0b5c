package flow

// Rule ids, as used in config fusion.disabled_rules.
const (
	RuleFilterMerge   = "filter-merge"
	RuleMapMerge      = "map-merge"
	RuleSkipMerge     = "skip-merge"
	RuleLimitMerge    = "limit-merge"
	RuleReverseCancel = "reverse-cancel"
	RuleSortLimit     = "sort-limit"
	RuleSortTail      = "sort-tail"
	RuleLimitTail     = "limit-tail"
	RuleUniqueHoist   = "unique-hoist"
	RuleFlatMerge     = "flat-merge"
	RuleTerminalDrop  = "terminal-drop"
)

type rulePair struct {
	tail, incoming Kind
}

// rewrite describes what a rule does to the chain. The tail is removed or
// replaced, hoist is inserted in front of the tail, and incoming is what is
// left to append. A nil incoming means the new node was fully absorbed.
type rewrite struct {
	replace  Operation
	remove   bool
	hoist    Operation
	incoming Operation
}

type rule struct {
	id    string
	apply func(tail, incoming Operation) (rewrite, bool)
}

var rules = map[rulePair]rule{}

func register(id string, tails, incomings []Kind, apply func(tail, incoming Operation) (rewrite, bool)) {
	for _, t := range tails {
		for _, in := range incomings {
			rules[rulePair{t, in}] = rule{id: id, apply: apply}
		}
	}
}

func init() {
	register(RuleFilterMerge, []Kind{KindFilter}, []Kind{KindFilter}, func(tail, in Operation) (rewrite, bool) {
		f := tail.(*filterOp)
		f.preds = append(f.preds, in.(*filterOp).preds...)
		return rewrite{}, true
	})

	register(RuleMapMerge, []Kind{KindMap}, []Kind{KindMap}, func(tail, in Operation) (rewrite, bool) {
		m := tail.(*mapOp)
		for _, mapper := range in.(*mapOp).mappers {
			m.absorb(mapper)
		}
		return rewrite{}, true
	})

	register(RuleSkipMerge, []Kind{KindSkip}, []Kind{KindSkip}, func(tail, in Operation) (rewrite, bool) {
		s := tail.(*skipOp)
		s.n += in.(*skipOp).n
		s.remaining = s.n
		return rewrite{}, true
	})

	register(RuleLimitMerge, []Kind{KindLimit}, []Kind{KindLimit}, func(tail, in Operation) (rewrite, bool) {
		l := tail.(*limitOp)
		l.n = min(l.n, in.(*limitOp).n)
		return rewrite{}, true
	})

	register(RuleReverseCancel, []Kind{KindReverse}, []Kind{KindReverse}, func(Operation, Operation) (rewrite, bool) {
		return rewrite{remove: true}, true
	})

	register(RuleSortLimit, []Kind{KindSort}, []Kind{KindLimit}, func(tail, in Operation) (rewrite, bool) {
		s := tail.(*sortOp)
		return rewrite{replace: &sortLimitedOp{ordering: s.ordering, k: in.(*limitOp).n}}, true
	})

	// The last n elements in sorted order are the first n of the fully
	// inverted order, reversed back.
	register(RuleSortTail, []Kind{KindSort}, []Kind{KindTail}, func(tail, in Operation) (rewrite, bool) {
		s := tail.(*sortOp)
		return rewrite{
			replace:  &sortLimitedOp{ordering: s.ordering, k: in.(*tailOp).n, invert: true},
			incoming: &reverseOp{},
		}, true
	})

	register(RuleLimitTail, []Kind{KindLimit}, []Kind{KindTail}, func(tail, in Operation) (rewrite, bool) {
		if in.(*tailOp).n < tail.(*limitOp).n {
			return rewrite{}, false
		}
		return rewrite{}, true
	})

	register(RuleUniqueHoist, []Kind{KindShuffle, KindSort}, []Kind{KindUnique}, func(tail, in Operation) (rewrite, bool) {
		u := in.(*uniqueOp)
		switch t := tail.(type) {
		case *shuffleOp:
			if t.rng != nil {
				return rewrite{}, false
			}
		case *sortOp:
			if !t.ordering.natural() || t.ordering.Mode != u.mode || u.mode == ModeBoth {
				return rewrite{}, false
			}
		}
		return rewrite{hoist: u}, true
	})

	register(RuleFlatMerge, []Kind{KindFlat}, []Kind{KindFlat}, func(tail, in Operation) (rewrite, bool) {
		f := tail.(*flatOp)
		if n := in.(*flatOp).levels; f.levels != 0 {
			if n == 0 {
				f.levels = 0
			} else {
				f.levels += n
			}
		}
		return rewrite{}, true
	})

	// Reordering cannot change emptiness, size or membership. Reindexing
	// cannot either, unless the terminal looks at keys.
	dropTail := func(_, in Operation) (rewrite, bool) {
		return rewrite{remove: true, incoming: in}, true
	}
	register(RuleTerminalDrop, []Kind{KindSort, KindShuffle, KindReverse},
		[]Kind{KindIsEmpty, KindCount, KindHas}, dropTail)
	register(RuleTerminalDrop, []Kind{KindReindex}, []Kind{KindIsEmpty, KindCount}, dropTail)
}
