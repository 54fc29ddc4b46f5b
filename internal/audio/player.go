// Package audio plays the background track of a session.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/rs/zerolog/log"
)

const (
	SampleRate      = beep.SampleRate(44100)
	resampleQuality = 4
)

// Player starts and stops music. Both calls return immediately and never
// fail; playback problems are logged.
type Player interface {
	Play(asset string)
	Stop()
}

type NopPlayer struct{}

func (NopPlayer) Play(string) {}
func (NopPlayer) Stop()       {}

type decoder func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

func decoderFor(path string) (decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(f)
		}, nil
	case ".ogg":
		return func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(f)
		}, nil
	}
	return nil, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
}

// BeepPlayer plays assets from a directory through the system speaker.
// Every Play and Stop bumps a generation counter so a track that finishes
// loading after it was stopped or replaced is dropped.
type BeepPlayer struct {
	dir string

	mu         sync.Mutex
	generation uint64
	ready      bool
	ctrl       *beep.Ctrl
	current    beep.StreamSeekCloser
}

func NewBeepPlayer(dir string) *BeepPlayer {
	return &BeepPlayer{dir: dir}
}

func (p *BeepPlayer) Play(asset string) {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	go func() {
		if err := p.load(gen, filepath.Join(p.dir, asset)); nil != err {
			log.Error().Err(err).Str("asset", asset).Msg("unable to play music")
		}
	}()
}

func (p *BeepPlayer) load(gen uint64, path string) error {
	decode, err := decoderFor(path)
	if nil != err {
		return err
	}
	f, err := os.Open(path)
	if nil != err {
		return err
	}
	streamer, format, err := decode(f)
	if nil != err {
		f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		streamer.Close()
		return nil
	}
	if !p.ready {
		if err := speaker.Init(SampleRate, SampleRate.N(time.Second/60)); nil != err {
			streamer.Close()
			return fmt.Errorf("init speaker: %w", err)
		}
		p.ready = true
	}

	var s beep.Streamer = streamer
	if format.SampleRate != SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, SampleRate, streamer)
	}
	p.release()
	p.ctrl = &beep.Ctrl{Streamer: s}
	p.current = streamer
	speaker.Play(p.ctrl)
	log.Debug().Str("path", path).Msg("music started")
	return nil
}

// release detaches the playing track from the mixer. Callers hold p.mu.
func (p *BeepPlayer) release() {
	if nil == p.ctrl {
		return
	}
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	p.current.Close()
	p.ctrl, p.current = nil, nil
}

func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.release()
}
