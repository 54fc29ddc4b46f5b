package input

import (
	"context"
	"fmt"

	"github.com/eiannone/keyboard"
	"github.com/rs/zerolog/log"
)

type Action int

const (
	ActionNone Action = iota
	ActionTap
	ActionSelect
	ActionExit
	ActionRetry
	ActionBack
	ActionQuit
)

// Key is a decoded keypress.
type Key struct {
	Action Action
	Index  int // Difficulty index for ActionSelect
}

var tapRunes = map[rune]bool{'j': true, 'k': true, 'f': true, 'd': true}

// Decode maps a raw key to a host action.
func Decode(r rune, k keyboard.Key) Key {
	switch k {
	case keyboard.KeySpace:
		return Key{Action: ActionTap}
	case keyboard.KeyEsc:
		return Key{Action: ActionExit}
	case keyboard.KeyCtrlC:
		return Key{Action: ActionQuit}
	}
	switch {
	case tapRunes[r]:
		return Key{Action: ActionTap}
	case r >= '1' && r <= '3':
		return Key{Action: ActionSelect, Index: int(r - '1')}
	case r == 'r':
		return Key{Action: ActionRetry}
	case r == 'b':
		return Key{Action: ActionBack}
	case r == 'q':
		return Key{Action: ActionQuit}
	}
	return Key{Action: ActionNone}
}

// Keyboard reads the terminal keyboard and hands decoded keys to a callback.
type Keyboard struct {
	buffer int
}

func NewKeyboard(buffer int) *Keyboard {
	if buffer <= 0 {
		buffer = 128
	}
	return &Keyboard{buffer: buffer}
}

// Run blocks until ctx is done or the keyboard fails. onKey is called on the
// reader goroutine.
func (kb *Keyboard) Run(ctx context.Context, onKey func(Key)) error {
	keys, err := keyboard.GetKeys(kb.buffer)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Error().Err(err).Msg("unable to close keyboard")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-keys:
			if !ok {
				return nil
			}
			if nil != ev.Err {
				return fmt.Errorf("keyboard read: %w", ev.Err)
			}
			if key := Decode(ev.Rune, ev.Key); key.Action != ActionNone {
				onKey(key)
			}
		}
	}
}
