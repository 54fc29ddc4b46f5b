package score

type rankStep struct {
	percent int
	rank    string
}

var ranks = []rankStep{
	{95, "S"},
	{85, "A"},
	{70, "B"},
	{50, "C"},
}

// Rank grades a final score against the difficulty maximum.
func Rank(score, maxScore int) string {
	if maxScore <= 0 {
		return "D"
	}
	pct := score * 100 / maxScore
	for _, step := range ranks {
		if pct >= step.percent {
			return step.rank
		}
	}
	return "D"
}
