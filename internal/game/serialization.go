package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
)

// ChecksumVersion is bumped when the canonical representation changes.
const ChecksumVersion = 1

// Checksum identifies a game state. Two games with the same checksum agree on
// every field that affects play.
type Checksum struct {
	Hash    string `json:"hash"`
	Version int    `json:"version"`
}

// Marshal encodes the game as JSON. The encoding is canonical: equal games
// produce equal bytes.
func Marshal(g *Game) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode game %d: %w", g.ID, err)
	}
	return data, nil
}

// Unmarshal decodes a game written by Marshal.
func Unmarshal(data []byte) (*Game, error) {
	g := &Game{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to decode game: %w", err)
	}
	if g.Stack == nil {
		g.Stack = rules.NewStack()
	}
	for i, p := range g.Players {
		if p == nil {
			return nil, fmt.Errorf("failed to decode game %d: seat %d is empty", g.ID, i)
		}
	}
	return g, nil
}

// ComputeChecksum hashes a line-oriented rendering of the game. The log and
// creation time are left out.
func (g *Game) ComputeChecksum() Checksum {
	sum := sha256.Sum256([]byte(g.canonical()))
	return Checksum{Hash: hex.EncodeToString(sum[:]), Version: ChecksumVersion}
}

// VerifyChecksum reports whether the game still matches expected.
func (g *Game) VerifyChecksum(expected Checksum) bool {
	return expected.Version == ChecksumVersion && g.ComputeChecksum().Hash == expected.Hash
}

func idents(z Zone) string {
	parts := make([]string, len(z))
	for i, c := range z {
		parts[i] = fmt.Sprint(int(c))
	}
	return strings.Join(parts, ",")
}

func sites(ms []cards.Material) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

func (g *Game) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%d|%s|%d|%d|%d|%s|%d|%s|%d\n",
		g.ID, g.Host, g.Seed, g.LeaderIndex, g.TurnNumber, g.RoleLed,
		g.ActivePlayerIndex, g.ExpectedAction, g.ActionNumber)
	fmt.Fprintf(&buf, "LEGIONARY:%d|%d\nOOT:%t|%t\n",
		g.LegionaryCount, g.LegionaryPlayerIndex, g.OOTAllowed, g.UsedOOT)

	// Seat order matters, so players are not sorted.
	for i, p := range g.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%d|%s|%d|%t\n", i, p.UID, p.Name, p.NCampActions, p.PerformedCraftsman)
		fmt.Fprintf(&buf, "  HAND:%s\n", idents(p.Hand))
		fmt.Fprintf(&buf, "  STOCKPILE:%s\n", idents(p.Stockpile))
		fmt.Fprintf(&buf, "  CLIENTELE:%s\n", idents(p.Clientele))
		fmt.Fprintf(&buf, "  VAULT:%s\n", idents(p.Vault))
		fmt.Fprintf(&buf, "  CAMP:%s\n", idents(p.Camp))
		fmt.Fprintf(&buf, "  REVEALED:%s|%s\n", idents(p.Revealed), idents(p.PrevRevealed))
		fmt.Fprintf(&buf, "  GIVEN:%s\n", idents(p.ClientsGiven))
		fmt.Fprintf(&buf, "  INFLUENCE:%s\n", sites(p.Influence))
		if p.FountainCard != nil {
			fmt.Fprintf(&buf, "  FOUNTAIN:%d\n", int(*p.FountainCard))
		}
		for _, b := range p.Buildings {
			fmt.Fprintf(&buf, "  BUILDING:%d|%s|%t|%s|%s\n",
				int(b.Foundation), b.Site, b.Complete, idents(b.Materials), idents(b.StairwayMaterials))
		}
	}

	fmt.Fprintf(&buf, "JACKS:%s\nLIBRARY:%s\nPOOL:%s\n", idents(g.Jacks), idents(g.Library), idents(g.Pool))
	fmt.Fprintf(&buf, "SITES:%s|%s\n", sites(g.InTownSites), sites(g.OutOfTownSites))

	// Stack order is execution order.
	buf.WriteString("STACK:\n")
	if g.Stack != nil {
		for i, f := range g.Stack.List() {
			fmt.Fprintf(&buf, "  %d:%s\n", i, f)
		}
	}
	if g.CurrentFrame != nil {
		fmt.Fprintf(&buf, "FRAME:%s\n", g.CurrentFrame)
	}
	fmt.Fprintf(&buf, "WINNERS:%s\n", strings.Join(g.Winners, ","))
	return buf.String()
}
