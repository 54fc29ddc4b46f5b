package input

import (
	"sync"
	"testing"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDrainKeepsArrivalOrder(t *testing.T) {
	s := NewStream()
	for _, ms := range []int{30, 10, 20} {
		require.True(t, s.Push(Event{At: time.Duration(ms) * time.Millisecond}))
	}
	got := s.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, 30*time.Millisecond, got[0].At)
	assert.Equal(t, 10*time.Millisecond, got[1].At)
	assert.Equal(t, 20*time.Millisecond, got[2].At)
	assert.Nil(t, s.Drain())
}

func TestStreamClose(t *testing.T) {
	s := NewStream()
	s.Push(Event{At: time.Millisecond})
	s.Close()
	assert.False(t, s.Push(Event{At: 2 * time.Millisecond}))
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Drain())
}

func TestStreamConcurrentPush(t *testing.T) {
	s := NewStream()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Push(Event{At: time.Duration(j)})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.Drain(), 800)
}

var decodeTests = map[Key][]struct {
	r rune
	k keyboard.Key
}{
	{Action: ActionTap}:              {{0, keyboard.KeySpace}, {'j', 0}, {'f', 0}},
	{Action: ActionExit}:             {{0, keyboard.KeyEsc}},
	{Action: ActionQuit}:             {{'q', 0}, {0, keyboard.KeyCtrlC}},
	{Action: ActionSelect, Index: 0}: {{'1', 0}},
	{Action: ActionSelect, Index: 2}: {{'3', 0}},
	{Action: ActionRetry}:            {{'r', 0}},
	{Action: ActionBack}:             {{'b', 0}},
	{Action: ActionNone}:             {{'x', 0}, {'4', 0}},
}

func TestDecode(t *testing.T) {
	for expected, inputs := range decodeTests {
		for _, in := range inputs {
			assert.Equal(t, expected, Decode(in.r, in.k), "rune %q key %v", in.r, in.k)
		}
	}
}
