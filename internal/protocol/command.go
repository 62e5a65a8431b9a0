package protocol

import (
	"bytes"
	"encoding/json"
)

// Command wraps an action with the game it targets and its sequence number.
// Both are nil for requests that are not game-scoped.
type Command struct {
	Game   *int64
	Number *int
	Action Action
}

// NewCommand builds a command. Pass game or number as nil when absent.
func NewCommand(game *int64, number *int, a Action) Command {
	return Command{Game: game, Number: number, Action: a}
}

// GameCommand builds a command scoped to a game with a sequence number.
func GameCommand(game int64, number int, a Action) Command {
	return Command{Game: &game, Number: &number, Action: a}
}

// Push builds a server push for a game. game may be nil.
func Push(game *int64, a Action) Command {
	return Command{Game: game, Action: a}
}

type wireCommand struct {
	Game   *int64          `json:"game"`
	Number *int            `json:"number"`
	Action json.RawMessage `json:"action"`
}

// MarshalJSON writes {"game":..,"number":..,"action":..} in that order.
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireCommand{
		Game:   c.Game,
		Number: c.Number,
		Action: Encode(c.Action),
	})
}

// UnmarshalJSON decodes and validates a single command.
func (c *Command) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeCommand(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// EncodeCommand returns the wire form of a command.
func EncodeCommand(c Command) []byte {
	// wireCommand fields marshal without error.
	b, _ := c.MarshalJSON()
	return b
}

// DecodeCommand parses and validates one command.
func DecodeCommand(data []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return Command{}, Wrap(CodeMalformedMessage, err, "command")
	}
	if w.Action == nil {
		return Command{}, Errorf(CodeMalformedMessage, "command has no action")
	}
	a, err := Decode(w.Action)
	if err != nil {
		return Command{}, err
	}
	return Command{Game: w.Game, Number: w.Number, Action: a}, nil
}

// DecodeBatch parses a single command or an array of commands. All commands
// must target the same game and carry consecutive sequence numbers.
func DecodeBatch(data []byte) ([]Command, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, Errorf(CodeMalformedMessage, "empty message")
	}

	var raws []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, Wrap(CodeMalformedMessage, err, "command batch")
		}
		if len(raws) == 0 {
			return nil, Errorf(CodeMalformedMessage, "empty command batch")
		}
	} else {
		raws = []json.RawMessage{data}
	}

	batch := make([]Command, 0, len(raws))
	for _, raw := range raws {
		c, err := DecodeCommand(raw)
		if err != nil {
			return nil, err
		}
		batch = append(batch, c)
	}
	if err := CheckBatch(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// CheckBatch enforces the same-game and consecutive-number rules.
func CheckBatch(batch []Command) error {
	if len(batch) == 0 {
		return Errorf(CodeBatchOrdering, "empty batch")
	}
	first := batch[0]
	for i, c := range batch[1:] {
		if !sameGame(first.Game, c.Game) {
			return Errorf(CodeBatchOrdering, "command %d targets a different game", i+1)
		}
		prev := batch[i].Number
		if (prev == nil) != (c.Number == nil) {
			return Errorf(CodeBatchOrdering, "command %d mixes numbered and unnumbered commands", i+1)
		}
		if prev != nil && *c.Number != *prev+1 {
			return Errorf(CodeBatchOrdering, "command %d has number %d, want %d", i+1, *c.Number, *prev+1)
		}
	}
	return nil
}

func sameGame(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// NumberRange returns the lowest and highest sequence numbers of a checked
// batch. ok is false when the batch is unnumbered.
func NumberRange(batch []Command) (lo, hi int, ok bool) {
	if len(batch) == 0 || batch[0].Number == nil {
		return 0, 0, false
	}
	return *batch[0].Number, *batch[len(batch)-1].Number, true
}
