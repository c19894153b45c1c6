package humanize

import (
	"strings"
	"time"
	"unicode"
)

var keyboardNeighbors = map[rune]string{
	'a': "qszw", 'b': "vghn", 'c': "xdfv", 'd': "serfcx", 'e': "wrsdf",
	'f': "drtgvc", 'g': "ftyhbv", 'h': "gyujnb", 'i': "uojk", 'j': "huiknm",
	'k': "jiolm", 'l': "kop", 'm': "njk", 'n': "bhjm", 'o': "iklp",
	'p': "ol", 'q': "asw", 'r': "edft", 's': "qawedxz", 't': "rfgy",
	'u': "yhji", 'v': "cfgb", 'w': "qase", 'x': "zsdc", 'y': "tghu",
	'z': "asx", '0': "9", '1': "2", '2': "13", '3': "24", '4': "35",
	'5': "46", '6': "57", '7': "68", '8': "79", '9': "80",
}

// Keystroke is either a character to type or a backspace, followed by a
// pause.
type Keystroke struct {
	Char      rune
	Backspace bool
	Delay     time.Duration
}

type TypingOptions struct {
	// ErrorRate is the chance of hitting a neighboring key first.
	ErrorRate float64
	DelayMin  time.Duration
	DelayMax  time.Duration
	// PauseRate is the chance of an extra pause after a key, as if
	// thinking.
	PauseRate float64
	PauseMin  time.Duration
	PauseMax  time.Duration
}

var DefaultTypingOptions = TypingOptions{
	ErrorRate: 0.05,
	DelayMin:  50 * time.Millisecond,
	DelayMax:  200 * time.Millisecond,
	PauseRate: 0.1,
	PauseMin:  300 * time.Millisecond,
	PauseMax:  time.Second,
}

const typoCorrectionMin = 100 * time.Millisecond
const typoCorrectionMax = 300 * time.Millisecond

// PlanTyping returns the keystrokes to type `text`. Typos are always
// followed by a backspace, so replaying the plan yields `text`.
func PlanTyping(text string, opts TypingOptions, pacer Pacer) []Keystroke {
	plan := []Keystroke{}
	for _, char := range text {
		neighbors, ok := keyboardNeighbors[unicode.ToLower(char)]
		if ok && pacer.Float() < opts.ErrorRate {
			typo := rune(neighbors[pacer.IntN(len(neighbors))])
			if unicode.IsUpper(char) {
				typo = unicode.ToUpper(typo)
			}
			plan = append(plan,
				Keystroke{Char: typo, Delay: pacer.Between(typoCorrectionMin, typoCorrectionMax)},
				Keystroke{Backspace: true},
			)
		}

		delay := pacer.Between(opts.DelayMin, opts.DelayMax)
		if pacer.Float() < opts.PauseRate {
			delay += pacer.Between(opts.PauseMin, opts.PauseMax)
		}
		plan = append(plan, Keystroke{Char: char, Delay: delay})
	}
	return plan
}

// Replay applies the keystrokes of a plan to a string, it is the text an
// input ends up holding.
func Replay(plan []Keystroke) string {
	out := []rune{}
	for _, k := range plan {
		if k.Backspace {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, k.Char)
	}
	return string(out)
}

// Render returns the plan as typed characters with '\b' for backspaces.
func Render(plan []Keystroke) string {
	var out strings.Builder
	for _, k := range plan {
		if k.Backspace {
			out.WriteRune('\b')
			continue
		}
		out.WriteRune(k.Char)
	}
	return out.String()
}
