package game

type ScoreField string

const (
	FieldLevel1Easy   ScoreField = "level1Easy"
	FieldLevel1Normal ScoreField = "level1Normal"
	FieldLevel1Hard   ScoreField = "level1Hard"
	FieldLevel2       ScoreField = "level2Score"
	FieldLevel3       ScoreField = "level3Score"
)

var ScoreFields = []ScoreField{
	FieldLevel1Easy,
	FieldLevel1Normal,
	FieldLevel1Hard,
	FieldLevel2,
	FieldLevel3,
}

func (f ScoreField) Valid() bool {
	for _, field := range ScoreFields {
		if f == field {
			return true
		}
	}
	return false
}

// ScoreEntry is the persisted best-score record of one user. Every field is
// a high score and only ever grows.
type ScoreEntry struct {
	Level1Easy   int `json:"level1Easy" firestore:"level1Easy"`
	Level1Normal int `json:"level1Normal" firestore:"level1Normal"`
	Level1Hard   int `json:"level1Hard" firestore:"level1Hard"`
	Level2Score  int `json:"level2Score" firestore:"level2Score"`
	Level3Score  int `json:"level3Score" firestore:"level3Score"`
}

func (e *ScoreEntry) field(f ScoreField) *int {
	switch f {
	case FieldLevel1Easy:
		return &e.Level1Easy
	case FieldLevel1Normal:
		return &e.Level1Normal
	case FieldLevel1Hard:
		return &e.Level1Hard
	case FieldLevel2:
		return &e.Level2Score
	case FieldLevel3:
		return &e.Level3Score
	}
	return nil
}

func (e ScoreEntry) Get(f ScoreField) int {
	if p := e.field(f); nil != p {
		return *p
	}
	return 0
}

// With returns a copy of the entry with f set to v.
func (e ScoreEntry) With(f ScoreField, v int) ScoreEntry {
	if p := e.field(f); nil != p {
		*p = v
	}
	return e
}

// Level1Total is derived and never stored.
func (e ScoreEntry) Level1Total() int {
	return e.Level1Easy + e.Level1Normal + e.Level1Hard
}

// MergeMax keeps the greater value per field.
func (e ScoreEntry) MergeMax(other ScoreEntry) (ScoreEntry, bool) {
	changed := false
	for _, f := range ScoreFields {
		if v := other.Get(f); v > e.Get(f) {
			e = e.With(f, v)
			changed = true
		}
	}
	return e, changed
}

// Fields returns the non-zero fields of the entry.
func (e ScoreEntry) Fields() map[ScoreField]int {
	fields := make(map[ScoreField]int, len(ScoreFields))
	for _, f := range ScoreFields {
		if v := e.Get(f); v != 0 {
			fields[f] = v
		}
	}
	return fields
}

// EntryFromFields builds an entry from a partial field set, ignoring unknown
// and negative values.
func EntryFromFields(fields map[ScoreField]int) ScoreEntry {
	var e ScoreEntry
	for f, v := range fields {
		if v > 0 {
			e = e.With(f, v)
		}
	}
	return e
}
