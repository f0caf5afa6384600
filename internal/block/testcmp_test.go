package block

import "bytes"

// bytewiseCmp is the trivial Comparator used by this package's tests.
type bytewiseCmp struct{}

func (bytewiseCmp) Compare(a, b []byte) int { return bytes.Compare(a, b) }

var testCmp Comparator = bytewiseCmp{}
