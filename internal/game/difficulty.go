package game

import (
	"strings"
	"time"
)

type Level int

const (
	Easy Level = iota
	Normal
	Hard
)

// Levels in unlock order.
var Levels = []Level{Easy, Normal, Hard}

type Difficulty struct {
	Label              string
	Speed              float64 // Visual scroll rate, not used for judgment
	Duration           time.Duration
	MaxScore           int
	RushComboThreshold int
	MusicAsset         string
	ScoreField         ScoreField
}

var Difficulties = map[Level]Difficulty{
	Easy: {
		Label:              "easy",
		Speed:              1.0,
		Duration:           60 * time.Second,
		MaxScore:           12000,
		RushComboThreshold: 10,
		MusicAsset:         "level1_easy.mp3",
		ScoreField:         FieldLevel1Easy,
	},
	Normal: {
		Label:              "normal",
		Speed:              1.5,
		Duration:           75 * time.Second,
		MaxScore:           18000,
		RushComboThreshold: 15,
		MusicAsset:         "level1_normal.mp3",
		ScoreField:         FieldLevel1Normal,
	},
	Hard: {
		Label:              "hard",
		Speed:              2.0,
		Duration:           90 * time.Second,
		MaxScore:           26000,
		RushComboThreshold: 20,
		MusicAsset:         "level1_hard.mp3",
		ScoreField:         FieldLevel1Hard,
	},
}

func (l Level) Difficulty() (Difficulty, error) {
	d, ok := Difficulties[l]
	if !ok {
		return Difficulty{}, ErrUnknownDifficulty
	}
	return d, nil
}

func (l Level) String() string {
	if d, ok := Difficulties[l]; ok {
		return d.Label
	}
	return "unknown"
}

func LevelFromLabel(label string) (Level, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, l := range Levels {
		if Difficulties[l].Label == label {
			return l, nil
		}
	}
	return 0, ErrUnknownDifficulty
}
