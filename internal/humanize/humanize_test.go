package humanize

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRandomPacerBetween(t *testing.T) {
	pacer := NewRandomPacer(rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 100; i++ {
		d := pacer.Between(500*time.Millisecond, 2*time.Second)
		require.GreaterOrEqual(t, d, 500*time.Millisecond)
		require.Less(t, d, 2*time.Second)
	}
	require.Equal(t, time.Second, pacer.Between(time.Second, time.Second))
}

func TestPauseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := NewRandomPacer(nil).Pause(ctx, time.Minute, 2*time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)

	require.ErrorIs(t, NoPacer{}.Pause(ctx, 0, 0), context.Canceled)
}

func TestPlanTypingAlwaysYieldsText(t *testing.T) {
	pacer := NewRandomPacer(rand.New(rand.NewPCG(1, 1)))
	opts := DefaultTypingOptions
	opts.ErrorRate = 0.5

	text := "Puzzle Harry Potter 1000 pieces"
	plan := PlanTyping(text, opts, pacer)
	require.Equal(t, text, Replay(plan))

	rendered := Render(plan)
	require.Contains(t, rendered, "\b")
	require.Greater(t, len(plan), len([]rune(text)))
	for _, k := range plan {
		if !k.Backspace {
			require.GreaterOrEqual(t, k.Delay, 50*time.Millisecond)
		}
	}
}

func TestPlanTypingWithoutPacing(t *testing.T) {
	plan := PlanTyping("Lego", DefaultTypingOptions, NoPacer{})
	require.Equal(t, "Lego", Render(plan))
	for _, k := range plan {
		require.Zero(t, k.Delay)
	}
}

func TestTypoKeepsCase(t *testing.T) {
	opts := TypingOptions{ErrorRate: 1}
	plan := PlanTyping("A", opts, NewRandomPacer(rand.New(rand.NewPCG(3, 4))))
	require.Len(t, plan, 3)
	require.True(t, strings.ContainsRune("QSZW", plan[0].Char))
	require.True(t, plan[1].Backspace)
	require.Equal(t, 'A', plan[2].Char)
}
