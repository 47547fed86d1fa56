package kv

var _ Scanner = (*sliceScanner)(nil)

// NewSliceScanner returns a scanner over entries that
// were already read. entries must be sorted.
func NewSliceScanner(entries []Entry) Scanner {
	return &sliceScanner{entries: entries, i: -1}
}

type sliceScanner struct {
	entries []Entry
	i       int
}

// Next implements Scanner.Next
func (scanner *sliceScanner) Next() bool {
	if scanner.i >= len(scanner.entries) {
		return false
	}

	scanner.i++

	return scanner.i < len(scanner.entries)
}

// Entry implements Scanner.Entry
func (scanner *sliceScanner) Entry() Entry {
	if scanner.i < 0 || scanner.i >= len(scanner.entries) {
		return Entry{}
	}

	return scanner.entries[scanner.i]
}

// Error implements Scanner.Error
func (scanner *sliceScanner) Error() error {
	return nil
}

// Close implements Scanner.Close
func (scanner *sliceScanner) Close() error {
	scanner.i = len(scanner.entries)

	return nil
}

// ReadAll drains scanner and returns its entries
func ReadAll(scanner Scanner) ([]Entry, error) {
	entries := []Entry{}

	for scanner.Next() {
		entries = append(entries, scanner.Entry())
	}

	return entries, scanner.Error()
}

// Filter returns a scanner that skips the entries of
// scanner for which keep returns false
func Filter(scanner Scanner, keep func(Entry) bool) Scanner {
	return &filteredScanner{scanner, keep}
}

type filteredScanner struct {
	Scanner
	keep func(Entry) bool
}

func (scanner *filteredScanner) Next() bool {
	hasMore := false

	for hasMore = scanner.Scanner.Next(); hasMore && !scanner.keep(scanner.Entry()); hasMore = scanner.Scanner.Next() {
	}

	return hasMore
}

// Limit returns a scanner that stops after n entries
// of scanner. If n <= 0 there is no limit.
func Limit(scanner Scanner, n int) Scanner {
	if n <= 0 {
		return scanner
	}

	return &limitedScanner{scanner, n}
}

type limitedScanner struct {
	Scanner
	remaining int
}

func (scanner *limitedScanner) Next() bool {
	if scanner.remaining <= 0 {
		return false
	}

	scanner.remaining--

	return scanner.Scanner.Next()
}
