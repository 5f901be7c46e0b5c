package flow

// Kind is the closed set of operation kinds known to the chain optimizer.
type Kind int

const (
	KindFilter Kind = iota
	KindMap
	KindMapKey
	KindReindex
	KindFlip
	KindTap
	KindAssert
	KindSkip
	KindSkipWhile
	KindLimit
	KindWhile
	KindUntil
	KindUnique
	KindFlat
	KindTokenize
	KindFeed
	KindChunk
	KindWindow
	KindAccumulate
	KindTail
	KindReverse
	KindShuffle
	KindSort
	KindSortLimited
	KindSegregate
	// KindCustom marks caller-defined operations. No rewrite rule matches it.
	KindCustom

	// Terminal kinds. Exactly one ends every executable chain.
	KindCollect
	KindGroupBy
	KindFirst
	KindLast
	KindFind
	KindHas
	KindIsEmpty
	KindCount
	KindReduce
	KindFold
	KindDrain
	KindYield
)

var kindNames = [...]string{
	KindFilter:      "filter",
	KindMap:         "map",
	KindMapKey:      "map-key",
	KindReindex:     "reindex",
	KindFlip:        "flip",
	KindTap:         "tap",
	KindAssert:      "assert",
	KindSkip:        "skip",
	KindSkipWhile:   "skip-while",
	KindLimit:       "limit",
	KindWhile:       "while",
	KindUntil:       "until",
	KindUnique:      "unique",
	KindFlat:        "flat",
	KindTokenize:    "tokenize",
	KindFeed:        "feed",
	KindChunk:       "chunk",
	KindWindow:      "window",
	KindAccumulate:  "accumulate",
	KindTail:        "tail",
	KindReverse:     "reverse",
	KindShuffle:     "shuffle",
	KindSort:        "sort",
	KindSortLimited: "sort-limited",
	KindSegregate:   "segregate",
	KindCustom:      "custom",
	KindCollect:     "collect",
	KindGroupBy:     "group-by",
	KindFirst:       "first",
	KindLast:        "last",
	KindFind:        "find",
	KindHas:         "has",
	KindIsEmpty:     "is-empty",
	KindCount:       "count",
	KindReduce:      "reduce",
	KindFold:        "fold",
	KindDrain:       "drain",
	KindYield:       "yield",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Terminal reports whether operations of this kind end a chain.
func (k Kind) Terminal() bool { return k >= KindCollect }
