package engine

// resultKind tags the outcome of a recursive insert/remove step. The tree
// walk is modeled as returning one of these variants rather than
// threading sentinel errors through the recursion: a split or an emptied
// child is routine control flow the parent must react to, not a failure.
type resultKind uint8

const (
	// resultOK reports the child subtree absorbed the mutation without
	// changing its own offset in a way the parent needs to react to
	// beyond updating its child pointer.
	resultOK resultKind = iota

	// resultSplit reports the child page was split. The parent must
	// insert a new separator slot pointing at right.
	resultSplit

	// resultEmptyPage reports a leaf (or internal page) was emptied by a
	// remove and should be dropped from its parent entirely.
	resultEmptyPage
)
