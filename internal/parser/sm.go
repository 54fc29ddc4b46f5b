package parser

import (
	"os"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
)

// SMParser reads StepMania .sm files. Every row with at least one tap
// becomes a single note, the game has one lane.
type SMParser struct{}

type bpm struct {
	StartingBeat float64
	Value        float64
}

type smSection struct {
	level game.Level
	notes string
}

// difficultyNames maps StepMania difficulty names onto game levels.
var difficultyNames = map[string]game.Level{
	"beginner":  game.Easy,
	"easy":      game.Easy,
	"medium":    game.Normal,
	"normal":    game.Normal,
	"hard":      game.Hard,
	"challenge": game.Hard,
}

func (p *SMParser) getSecondsPerNote(rates []bpm, currentBeat float64, bpn float64) float64 {
	sel := 0.0
	for _, rate := range rates {
		if currentBeat >= rate.StartingBeat {
			sel = rate.Value
		} else {
			break
		}
	}
	if sel <= 0 {
		return 0
	}
	return bpn * 60.0 / sel
}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine
func (p *SMParser) isTap(ch byte) bool {
	return ch == '1' || ch == '2' || ch == '4'
}

func (p *SMParser) Parse(file string) (map[game.Level]*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return p.parse(string(data))
}

func (p *SMParser) parse(str string) (map[game.Level]*game.Chart, error) {
	str = strings.ReplaceAll(str, "\r", "")
	sections := strings.Split(str, "#NOTES:")
	meta := sections[0]

	found := []smSection{}
	seen := map[game.Level]bool{}
	for _, section := range sections[1:] {
		lines := strings.SplitN(section, "\n", 7)
		if len(lines) < 7 {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"))
		level, ok := difficultyNames[name]
		if !ok || seen[level] {
			continue
		}
		seen[level] = true
		found = append(found, smSection{level: level, notes: lines[6]})
	}

	offset := 0.0
	bpms := []bpm{}

	for _, mdl := range strings.Split(meta, "\n#") {
		mdl = strings.TrimPrefix(strings.TrimSpace(mdl), "#")
		if strings.HasPrefix(mdl, "OFFSET:") {
			mdl = strings.TrimPrefix(mdl, "OFFSET:")
			mdl = strings.TrimSuffix(mdl, ";")
			offs, err := strconv.ParseFloat(mdl, 64)
			if nil != err {
				return nil, err
			}
			offset = -offs
		} else if strings.HasPrefix(mdl, "BPMS:") {
			mdl = strings.TrimPrefix(mdl, "BPMS:")
			mdl = strings.ReplaceAll(mdl, "\n", "")
			for _, pair := range strings.Split(strings.TrimSuffix(mdl, ";"), ",") {
				as := strings.Split(pair, "=")
				if len(as) != 2 {
					continue
				}
				sb, err := strconv.ParseFloat(strings.TrimSpace(as[0]), 64)
				if nil != err {
					return nil, err
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(as[1]), 64)
				if nil != err {
					return nil, err
				}
				bpms = append(bpms, bpm{StartingBeat: sb, Value: value})
			}
		}
	}

	charts := map[game.Level]*game.Chart{}
	for _, section := range found {
		// Start time of first note
		seconds := offset
		currentBeat := 0.0
		times := []time.Duration{}

		for _, block := range strings.Split(section.notes, "\n,") {
			lines := []string{}
			for _, l := range strings.Split(block, "\n") {
				if strings.HasPrefix(l, " ") || strings.Contains(l, "-") || strings.HasPrefix(l, "//") {
					continue
				}
				l = strings.TrimSpace(l)
				if len(l) > 3 {
					lines = append(lines, l)
				}
			}
			if len(lines) == 0 {
				continue
			}

			// Beat count is 4 per block
			beatsPerNote := 4.0 / float64(len(lines))

			for _, line := range lines {
				for i := 0; i < len(line); i++ {
					if p.isTap(line[i]) {
						times = append(times, time.Duration(seconds*float64(time.Second)).Round(time.Millisecond))
						break
					}
				}
				seconds += p.getSecondsPerNote(bpms, currentBeat, beatsPerNote)
				currentBeat += beatsPerNote
			}
		}

		charts[section.level] = &game.Chart{Level: section.level, Times: times}
	}

	return charts, nil
}
