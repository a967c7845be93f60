package armour

// Kind classifies a line returned by the Scanner.
type Kind int

const (
	// Outside is a line that belongs to no block.
	Outside Kind = iota
	// Begin is the BEGIN marker line that opened a block.
	Begin
	// Body is a line inside an open block, including nested BEGIN markers
	// and END markers carrying a different label.
	Body
	// End is the END marker line that closed the open block.
	End
)

func (k Kind) String() string {
	switch k {
	case Outside:
		return "outside"
	case Begin:
		return "begin"
	case Body:
		return "body"
	case End:
		return "end"
	}
	return "unknown"
}

// Event is one line of input and its place in the block structure.
type Event struct {
	Kind  Kind
	Label string // label of the open block; empty for Outside
	Line  []byte // raw bytes, valid until the next Scan
}

// Scanner drives the outside-block / inside-block state machine over a
// stream. At most one block is open at a time.
type Scanner struct {
	r        *Reader
	maxLabel int

	open  bool
	label string
}

// NewScanner returns a Scanner over r keeping at most maxLabel bytes of
// each label. A zero maxLabel selects DefaultMaxLabel.
func NewScanner(r *Reader, maxLabel int) *Scanner {
	if maxLabel <= 0 {
		maxLabel = DefaultMaxLabel
	}
	return &Scanner{r: r, maxLabel: maxLabel}
}

// Scan returns the next event. It returns io.EOF once the input is
// exhausted; a block still open at that point stays open and is reported
// by Open.
func (s *Scanner) Scan() (Event, error) {
	line, err := s.r.Next()
	if err != nil {
		return Event{}, err
	}

	if !s.open {
		label, ok := MatchBegin(line, s.maxLabel)
		if !ok {
			return Event{Kind: Outside, Line: line}, nil
		}
		s.open = true
		s.label = label
		return Event{Kind: Begin, Label: label, Line: line}, nil
	}

	if label, ok := MatchEnd(line, s.maxLabel); ok && label == s.label {
		s.open = false
		s.label = ""
		return Event{Kind: End, Label: label, Line: line}, nil
	}
	return Event{Kind: Body, Label: s.label, Line: line}, nil
}

// Open returns the label of the block currently open, if any.
func (s *Scanner) Open() (string, bool) {
	return s.label, s.open
}
