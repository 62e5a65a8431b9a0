package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cloaca/cloaca-server/internal/auth"
	"github.com/cloaca/cloaca-server/internal/game"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/cloaca/cloaca-server/internal/session"
	"go.uber.org/zap"
)

// GameListSize is the number of games returned for a list request.
const GameListSize = 30

// Sender delivers pushes to users.
type Sender interface {
	Send(userID int, c protocol.Command)
}

// Dispatcher routes decoded batches from a user to the registry and answers
// through the sender. Every failure is reported to the user as SERVERERROR.
type Dispatcher struct {
	registry *session.Registry
	out      Sender
	logger   *zap.Logger
}

func NewDispatcher(registry *session.Registry, out Sender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, out: out, logger: logger}
}

// Dispatch handles one batch.
func (d *Dispatcher) Dispatch(ctx context.Context, user auth.Identity, batch []protocol.Command) {
	if len(batch) == 0 {
		return
	}
	kind := batch[0].Action.Kind()
	var err error
	switch {
	case kind == protocol.Login:
		d.logger.Debug("ignoring login message", zap.Int("user_id", user.UserID))
	case kind.IsServerPush():
		err = protocol.Errorf(protocol.CodeMalformedMessage, "%s is sent by the server only", kind)
	case kind.IsLobby():
		if len(batch) > 1 {
			err = protocol.Errorf(protocol.CodeBatchOrdering, "%s cannot be batched", kind)
			break
		}
		err = d.lobby(ctx, user, batch[0])
	default:
		_, err = d.registry.Route(ctx, user, batch)
	}
	if err != nil {
		d.fail(user, err)
	}
}

func (d *Dispatcher) fail(user auth.Identity, err error) {
	d.logger.Debug("request failed",
		zap.Int("user_id", user.UserID),
		zap.String("class", string(protocol.ClassOf(err))),
		zap.Error(err),
	)
	d.out.Send(user.UserID, errorCommand(err.Error()))
}

func errorCommand(msg string) protocol.Command {
	return protocol.Push(nil, protocol.MustAction(protocol.ServerError, protocol.Text(msg)))
}

func gameID(c protocol.Command) (int64, error) {
	if c.Game == nil {
		return 0, protocol.Errorf(protocol.CodeMalformedMessage, "%s requires a game id", c.Action.Kind())
	}
	return *c.Game, nil
}

func (d *Dispatcher) lobby(ctx context.Context, user auth.Identity, c protocol.Command) error {
	switch c.Action.Kind() {
	case protocol.ReqCreateGame:
		id, err := d.registry.Create(ctx, user)
		if err != nil {
			return err
		}
		d.out.Send(user.UserID, protocol.Push(&id, protocol.MustAction(protocol.CreateGame)))
		return d.sendGameList(ctx, user)

	case protocol.ReqGameList:
		return d.sendGameList(ctx, user)
	}

	id, err := gameID(c)
	if err != nil {
		return err
	}
	s, err := d.registry.Lookup(ctx, id)
	if err != nil {
		return err
	}

	switch c.Action.Kind() {
	case protocol.ReqJoinGame:
		if err := s.Join(ctx, user); err != nil {
			return err
		}
		d.out.Send(user.UserID, protocol.Push(&id, protocol.MustAction(protocol.JoinGame)))
		return nil

	case protocol.ReqStartGame:
		return s.Start(ctx, user)

	case protocol.ReqGameState:
		view, err := s.Snapshot(ctx, user)
		if err != nil {
			return err
		}
		text := ""
		if view != nil {
			data, err := game.Marshal(view)
			if err != nil {
				return err
			}
			text = string(data)
		}
		d.out.Send(user.UserID, protocol.Push(&id, protocol.MustAction(protocol.GameState, protocol.Text(text))))
		return nil

	case protocol.ReqGameLog:
		page, err := s.Log(ctx, user, c.Action.Int(0), c.Action.Int(1))
		if err != nil {
			return err
		}
		d.out.Send(user.UserID, protocol.Push(&id, protocol.MustAction(protocol.GameLog,
			protocol.Int(page.Total), protocol.Int(page.Start), protocol.Text(strings.Join(page.Messages, "\n")))))
		return nil
	}
	return errors.New("unhandled lobby request " + c.Action.Kind().String())
}

func (d *Dispatcher) sendGameList(ctx context.Context, user auth.Identity) error {
	games, err := d.registry.ListRecent(ctx, GameListSize)
	if err != nil {
		return err
	}
	data, err := json.Marshal(games)
	if err != nil {
		return err
	}
	d.out.Send(user.UserID, protocol.Push(nil, protocol.MustAction(protocol.GameList, protocol.Text(string(data)))))
	return nil
}
