package parser

import (
	"fmt"
	"os"
	"sort"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"gopkg.in/yaml.v3"
)

// YAMLParser reads charts.yaml files:
//
//	charts:
//	  easy:
//	    notes: [1000, 1500, 2000]  # milliseconds
//	  normal:
//	    offset: 250                # milliseconds added to every note
//	    bpm: 120
//	    beats: [0, 1, 2, 2.5]
type YAMLParser struct{}

type yamlChart struct {
	Offset int64     `yaml:"offset"`
	Notes  []int64   `yaml:"notes"`
	BPM    float64   `yaml:"bpm"`
	Beats  []float64 `yaml:"beats"`
}

type yamlFile struct {
	Charts map[string]yamlChart `yaml:"charts"`
}

func (p *YAMLParser) Parse(file string) (map[game.Level]*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return p.parse(data)
}

func (p *YAMLParser) parse(data []byte) (map[game.Level]*game.Chart, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); nil != err {
		return nil, fmt.Errorf("decode charts: %w", err)
	}

	charts := map[game.Level]*game.Chart{}
	for label, c := range f.Charts {
		level, err := game.LevelFromLabel(label)
		if nil != err {
			return nil, fmt.Errorf("chart %q: %w", label, err)
		}

		ms := append([]int64(nil), c.Notes...)
		if len(c.Beats) > 0 {
			if c.BPM <= 0 {
				return nil, fmt.Errorf("chart %q: beats need a positive bpm", label)
			}
			beat := float64(time.Minute/time.Millisecond) / c.BPM
			for _, b := range c.Beats {
				ms = append(ms, int64(b*beat+0.5))
			}
		}
		for i := range ms {
			ms[i] += c.Offset
		}
		sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })

		charts[level] = game.ChartFromMillis(level, ms)
	}
	return charts, nil
}
