package protocol

import "unicode/utf8"

// Slot is one declared argument of an action.
type Slot struct {
	Name string
	Type ArgType
}

// Signature is the catalog entry for one action kind: a fixed list of required
// slots plus an optional homogeneous tail.
type Signature struct {
	Kind     Kind
	Name     string
	Required []Slot
	Tail     *Slot
}

// Extensible reports whether the kind takes a variable-length tail.
func (s Signature) Extensible() bool { return s.Tail != nil }

func slot(name string, t ArgType) Slot { return Slot{Name: name, Type: t} }

func tail(name string, t ArgType) *Slot { return &Slot{Name: name, Type: t} }

var catalog = [...]Signature{
	ThinkerOrLead:  {Name: "thinkerorlead", Required: []Slot{slot("do_thinker", TypeBool)}},
	UseLatrine:     {Name: "uselatrine", Required: []Slot{slot("to_discard", TypeCard)}},
	UseVomitorium:  {Name: "usevomitorium", Required: []Slot{slot("discard_all", TypeBool)}},
	PatronFromPool: {Name: "patronfrompool", Required: []Slot{slot("from_pool", TypeCard)}},
	BarOrAqueduct:  {Name: "baroraqueduct", Required: []Slot{slot("bar_first", TypeBool)}},
	PatronFromDeck: {Name: "patronfromdeck", Required: []Slot{slot("from_deck", TypeBool)}},
	PatronFromHand: {Name: "patronfromhand", Required: []Slot{slot("from_hand", TypeCard)}},
	UseFountain:    {Name: "usefountain", Required: []Slot{slot("use_fountain", TypeBool)}},
	Fountain: {Name: "fountain", Required: []Slot{
		slot("building", TypeCard), slot("material", TypeCard), slot("site", TypeText),
	}},
	Legionary:   {Name: "legionary", Tail: tail("from_hand", TypeCard)},
	GiveCards:   {Name: "givecards", Tail: tail("cards", TypeCard)},
	ThinkerType: {Name: "thinkertype", Required: []Slot{slot("for_jack", TypeBool)}},
	SkipThinker: {Name: "skipthinker", Required: []Slot{slot("skip", TypeBool)}},
	UseSewer:    {Name: "usesewer", Tail: tail("cards", TypeCard)},
	UseSenate:   {Name: "usesenate", Tail: tail("jacks", TypeCard)},
	Laborer:     {Name: "laborer", Tail: tail("cards", TypeCard)},
	Stairway: {Name: "stairway", Required: []Slot{
		slot("building", TypeCard), slot("material", TypeCard),
	}},
	Architect: {Name: "architect", Required: []Slot{
		slot("building", TypeCard), slot("material", TypeCard), slot("site", TypeText),
	}},
	Craftsman: {Name: "craftsman", Required: []Slot{
		slot("building", TypeCard), slot("material", TypeCard), slot("site", TypeText),
	}},
	Merchant: {Name: "merchant", Required: []Slot{slot("from_deck", TypeBool)}, Tail: tail("cards", TypeCard)},
	LeadRole: {Name: "leadrole", Required: []Slot{
		slot("role", TypeText), slot("n_actions", TypeInt),
	}, Tail: tail("cards", TypeCard)},
	FollowRole:    {Name: "followrole", Required: []Slot{slot("n_actions", TypeInt)}, Tail: tail("cards", TypeCard)},
	ReqGameState:  {Name: "reqgamestate"},
	GameState:     {Name: "gamestate", Required: []Slot{slot("game_state", TypeText)}},
	SetPlayerID:   {Name: "setplayerid", Required: []Slot{slot("id", TypeInt)}},
	ReqJoinGame:   {Name: "reqjoingame"},
	JoinGame:      {Name: "joingame"},
	ReqCreateGame: {Name: "reqcreategame"},
	CreateGame:    {Name: "creategame"},
	Login:         {Name: "login", Required: []Slot{slot("session_id", TypeText)}},
	ReqStartGame:  {Name: "reqstartgame"},
	StartGame:     {Name: "startgame"},
	ReqGameList:   {Name: "reqgamelist"},
	GameList:      {Name: "gamelist", Required: []Slot{slot("game_list", TypeText)}},
	ServerError:   {Name: "servererror", Required: []Slot{slot("err_msg", TypeText)}},
	Prison:        {Name: "prison", Required: []Slot{slot("building", TypeCard)}},
	TakePoolCards: {Name: "takepoolcards", Tail: tail("from_pool", TypeCard)},
	TakeClients:   {Name: "takeclients", Tail: tail("clients", TypeCard)},
	GameLog: {Name: "gamelog", Required: []Slot{
		slot("n_total", TypeInt), slot("n_start", TypeInt), slot("messages", TypeText),
	}},
	ReqGameLog: {Name: "reqgamelog", Required: []Slot{
		slot("n_messages", TypeInt), slot("n_start", TypeInt),
	}},
}

func init() {
	for i := range catalog {
		catalog[i].Kind = Kind(i)
	}
}

// Lookup returns the catalog entry for a kind.
func Lookup(k Kind) (Signature, bool) {
	if k < 0 || int(k) >= len(catalog) {
		return Signature{}, false
	}
	return catalog[k], true
}

// Kinds returns every kind in the catalog.
func Kinds() []Kind {
	out := make([]Kind, len(catalog))
	for i := range catalog {
		out[i] = Kind(i)
	}
	return out
}

// slotAt returns the slot that position i of an argument list fills.
func (s Signature) slotAt(i int) (Slot, bool) {
	if i < len(s.Required) {
		return s.Required[i], true
	}
	if s.Tail != nil {
		return *s.Tail, true
	}
	return Slot{}, false
}

// checkArity validates the argument count.
func (s Signature) checkArity(n int) error {
	if s.Tail == nil && n != len(s.Required) {
		return Errorf(CodeArityMismatch, "%s takes %d args, got %d", s.Name, len(s.Required), n)
	}
	if s.Tail != nil && n < len(s.Required) {
		return Errorf(CodeArityMismatch, "%s takes at least %d args, got %d", s.Name, len(s.Required), n)
	}
	return nil
}

// Check validates an argument list against the signature.
func (s Signature) Check(args []Arg) error {
	if err := s.checkArity(len(args)); err != nil {
		return err
	}
	for i, a := range args {
		sl, _ := s.slotAt(i)
		if !a.accepts(sl.Type) {
			return slotError(i, "%s arg %d (%s) must be %s, got %s", s.Name, i, sl.Name, sl.Type, a)
		}
		if a.kind == ArgText && !utf8.ValidString(a.s) {
			return slotError(i, "%s arg %d (%s) is not valid UTF-8", s.Name, i, sl.Name)
		}
	}
	return nil
}
