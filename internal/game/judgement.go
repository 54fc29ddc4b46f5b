package game

type Judgement int

const (
	None Judgement = iota
	Perfect
	Good
	Miss
	Penalty // A stray tap with no note in range
)

var judgementNames = map[Judgement]string{
	None:    "none",
	Perfect: "perfect",
	Good:    "good",
	Miss:    "miss",
	Penalty: "penalty",
}

func (j Judgement) String() string {
	if name, ok := judgementNames[j]; ok {
		return name
	}
	return "unknown"
}

// Hit reports whether the judgement resolved a note by input.
func (j Judgement) Hit() bool {
	return j == Perfect || j == Good
}
