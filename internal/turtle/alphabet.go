package turtle

// Command is what the interpreter does for one symbol.
type Command uint8

const (
	CommandNone Command = iota
	CommandForward
	CommandMove
	CommandYawLeft
	CommandYawRight
	CommandPitchDown
	CommandPitchUp
	CommandRollLeft
	CommandRollRight
	CommandTurnAround
	CommandPush
	CommandPop
	CommandLeaf
)

var commandNames = map[Command]string{
	CommandNone:       "none",
	CommandForward:    "forward",
	CommandMove:       "move",
	CommandYawLeft:    "yaw-left",
	CommandYawRight:   "yaw-right",
	CommandPitchDown:  "pitch-down",
	CommandPitchUp:    "pitch-up",
	CommandRollLeft:   "roll-left",
	CommandRollRight:  "roll-right",
	CommandTurnAround: "turn-around",
	CommandPush:       "push",
	CommandPop:        "pop",
	CommandLeaf:       "leaf",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Alphabet maps grammar symbols to turtle commands. Symbols that are not in
// the alphabet are ignored during interpretation.
type Alphabet map[rune]Command

// DefaultAlphabet returns the canonical command set.
func DefaultAlphabet() Alphabet {
	return Alphabet{
		'F':  CommandForward,
		'f':  CommandMove,
		'+':  CommandYawLeft,
		'-':  CommandYawRight,
		'&':  CommandPitchDown,
		'^':  CommandPitchUp,
		'\\': CommandRollLeft,
		'/':  CommandRollRight,
		'|':  CommandTurnAround,
		'[':  CommandPush,
		']':  CommandPop,
		'L':  CommandLeaf,
	}
}

// With returns a copy of a with sym bound to cmd. CommandNone unbinds sym.
func (a Alphabet) With(sym rune, cmd Command) Alphabet {
	out := make(Alphabet, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	if cmd == CommandNone {
		delete(out, sym)
	} else {
		out[sym] = cmd
	}
	return out
}
