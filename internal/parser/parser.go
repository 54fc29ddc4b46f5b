package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/rs/zerolog/log"
)

// Parser reads the charts of every difficulty found in one file.
type Parser interface {
	Parse(file string) (map[game.Level]*game.Chart, error)
}

var ErrNoCharts = errors.New("no charts found")

func parserFor(file string) Parser {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".sm":
		return &SMParser{}
	case ".yaml", ".yml":
		return &YAMLParser{}
	}
	return nil
}

// Library holds the charts of a chart directory.
type Library struct {
	charts map[game.Level]*game.Chart
}

// Load parses every chart file in dir. When two files define the same
// difficulty the first one in lexical order wins.
func Load(dir string) (*Library, error) {
	lib := &Library{charts: map[game.Level]*game.Chart{}}

	if err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		if info.IsDir() {
			return nil
		}
		psr := parserFor(p)
		if nil == psr {
			return nil
		}
		charts, err := psr.Parse(p)
		if nil != err {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		for level, chart := range charts {
			if _, ok := lib.charts[level]; ok {
				log.Warn().Str("file", p).Str("level", level.String()).Msg("duplicate chart ignored")
				continue
			}
			lib.charts[level] = chart
			log.Debug().Str("file", p).Str("level", level.String()).Int("notes", len(chart.Times)).Msg("chart loaded")
		}
		return nil
	}); nil != err {
		return nil, fmt.Errorf("unable to walk chart directory: %w", err)
	}

	if len(lib.charts) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoCharts)
	}
	return lib, nil
}

func NewLibrary(charts ...*game.Chart) *Library {
	lib := &Library{charts: map[game.Level]*game.Chart{}}
	for _, c := range charts {
		lib.charts[c.Level] = c
	}
	return lib
}

func (l *Library) Chart(level game.Level) (*game.Chart, error) {
	chart, ok := l.charts[level]
	if !ok {
		return nil, fmt.Errorf("chart for %s: %w", level, game.ErrNotFound)
	}
	return chart, nil
}

// Levels lists the difficulties with a chart, in unlock order.
func (l *Library) Levels() []game.Level {
	levels := []game.Level{}
	for _, level := range game.Levels {
		if _, ok := l.charts[level]; ok {
			levels = append(levels, level)
		}
	}
	return levels
}
