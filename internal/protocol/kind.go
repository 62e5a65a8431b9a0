package protocol

import "fmt"

// Kind identifies an action. The numeric values are part of the wire format.
type Kind int

// KindNone marks the absence of an expected action.
const KindNone Kind = -1

const (
	ThinkerOrLead Kind = iota
	UseLatrine
	UseVomitorium
	PatronFromPool
	BarOrAqueduct
	PatronFromDeck
	PatronFromHand
	UseFountain
	Fountain
	Legionary
	GiveCards
	ThinkerType
	SkipThinker
	UseSewer
	UseSenate
	Laborer
	Stairway
	Architect
	Craftsman
	Merchant
	LeadRole
	FollowRole
	ReqGameState
	GameState
	SetPlayerID
	ReqJoinGame
	JoinGame
	ReqCreateGame
	CreateGame
	Login
	ReqStartGame
	StartGame
	ReqGameList
	GameList
	ServerError
	Prison
	TakePoolCards
	TakeClients
	GameLog
	ReqGameLog

	kindCount
)

func (k Kind) String() string {
	if sig, ok := Lookup(k); ok {
		return sig.Name
	}
	if k == KindNone {
		return "none"
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// IsLobby reports whether the kind is a request handled outside the turn
// engine.
func (k Kind) IsLobby() bool {
	switch k {
	case ReqGameState, ReqJoinGame, ReqCreateGame, Login, ReqStartGame, ReqGameList, ReqGameLog:
		return true
	}
	return false
}

// IsServerPush reports whether the kind is only ever sent by the server.
func (k Kind) IsServerPush() bool {
	switch k {
	case GameState, SetPlayerID, JoinGame, CreateGame, StartGame, GameList, ServerError, GameLog:
		return true
	}
	return false
}
