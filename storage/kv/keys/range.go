package keys

// All returns a new range matching all rows
func All() Range {
	return Range{}
}

// Range represents all rows such that
//   r >= Min and r < Max
// If Min = nil that indicates the start of all rows
// If Max = nil that indicates the end of all rows
// If multiple modifiers are called on a range the end
// result is effectively the same as ANDing all the
// restrictions.
type Range struct {
	Min []byte
	Max []byte
}

// Eq confines the range to just row k
func (r Range) Eq(k []byte) Range {
	return r.Gte(k).Lte(k)
}

// Gt confines the range to rows that are
// greater than k
func (r Range) Gt(k []byte) Range {
	return r.refineMin(Next(k))
}

// Gte confines the range to rows that are
// greater than or equal to k
func (r Range) Gte(k []byte) Range {
	return r.refineMin(k)
}

// Lt confines the range to rows that are
// less than k
func (r Range) Lt(k []byte) Range {
	return r.refineMax(k)
}

// Lte confines the range to rows that are
// less than or equal to k
func (r Range) Lte(k []byte) Range {
	return r.refineMax(Next(k))
}

// Prefix confines the range to rows that
// have the prefix k, including k itself
func (r Range) Prefix(k []byte) Range {
	r = r.Gte(k)

	if max := Inc(k); max != nil {
		r = r.Lt(max)
	}

	return r
}

// Contains returns true if row k is inside the range
func (r Range) Contains(k []byte) bool {
	if r.Min != nil && Compare(k, r.Min) < 0 {
		return false
	}

	if r.Max != nil && Compare(k, r.Max) >= 0 {
		return false
	}

	return true
}

// Empty returns true if no row can be inside the range
func (r Range) Empty() bool {
	return r.Max != nil && compare(r.Min, r.Max) >= 0
}

func (r Range) refineMin(min []byte) Range {
	if compare(min, r.Min) <= 0 {
		return r
	}

	r.Min = min

	return r
}

func (r Range) refineMax(max []byte) Range {
	if r.Max != nil && compare(max, r.Max) >= 0 {
		return r
	}

	r.Max = max

	return r
}

// compare orders nil before every non-nil key
func compare(a []byte, b []byte) int {
	if a == nil {
		if b == nil {
			return 0
		}

		return -1
	}

	if b == nil {
		return 1
	}

	return Compare(a, b)
}
