package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/undeconstructed/machi/comms"
	"github.com/undeconstructed/machi/machi"
)

// Server hosts just one game, that's enough. All changes to the game go
// through one goroutine, the others only send it messages.
type Server struct {
	cfg    Config
	rules  machi.Rules
	dice   Dice
	now    func() time.Time
	coreCh chan interface{}
	log    zerolog.Logger

	// owned by the core loop
	state   machi.GameState
	clients map[string]*clientBundle
}

// Option changes a server as it's made.
type Option func(*Server)

// WithDice replaces the dice.
func WithDice(d Dice) Option {
	return func(s *Server) { s.dice = d }
}

// WithClock replaces where times come from.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(cfg Config, rules machi.Rules, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		rules:   rules,
		dice:    NewDice(cfg.DiceSeed),
		now:     time.Now,
		coreCh:  make(chan interface{}, 100),
		log:     log.With().Str("part", "core").Logger(),
		clients: map[string]*clientBundle{},
	}
	for _, o := range opts {
		o(s)
	}
	s.state = machi.NewGame(s.now())
	return s
}

// Rules are fixed for the life of the server.
func (s *Server) Rules() machi.Rules {
	return s.rules
}

// Run starts the gateways and the core, and waits for any to fail or for the
// context to end.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Msg("server running")
	defer s.log.Info().Msg("server stopping")

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		return s.runCore(gctx)
	})
	grp.Go(func() error {
		return runTcpGateway(gctx, s, s.cfg.TCPAddr)
	})
	grp.Go(func() error {
		return runWebGateway(gctx, s, s.cfg.WebAddr)
	})
	grp.Go(func() error {
		return runGRPCGateway(gctx, s, s.cfg.GRPCAddr)
	})

	return grp.Wait()
}

// runCore is the server's main loop.
func (s *Server) runCore(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-s.coreCh:
			if s.processMessage(in) {
				s.broadcastState()
			}
		}
	}
}

// processMessage handles one message, and says whether the state changed.
func (s *Server) processMessage(in interface{}) bool {
	switch msg := in.(type) {
	case connectMsg:
		return s.handleConnect(msg)
	case disconnectMsg:
		return s.handleDisconnect(msg)
	case queryStateMsg:
		msg.Rep <- s.state
		return false
	case dispatchMsg:
		err := s.apply(msg.User, msg.Action)
		msg.Rep <- dispatchResult{State: s.state, Err: err}
		return err == nil
	case requestFromUser:
		return s.handleRequest(msg)
	case textFromUser:
		s.broadcast(toSend{"text", TextMessage{Who: msg.Who, Text: msg.Text}})
		return false
	default:
		s.log.Warn().Msgf("nonsense in core: %#v", in)
	}
	return false
}

func (s *Server) handleConnect(msg connectMsg) bool {
	if msg.User == "" {
		msg.Rep <- connectResult{Err: machi.ErrBadRequest}
		return false
	}

	connID := uuid.NewString()
	client := msg.Client
	client.user = msg.User
	s.clients[connID] = &client
	// queued before any update, so it's always the first thing a client gets
	s.sendTo(&client, toSend{"connected", comms.ConnectResponse{User: msg.User}})
	msg.Rep <- connectResult{ConnID: connID}

	s.log.Info().Str("conn", connID).Msgf("client connects: %s", msg.User)

	if s.connections(msg.User) > 1 {
		// same user again, from somewhere else
		s.sendState(&client)
		return false
	}

	s.state = s.rules.Update(machi.Action{
		Type: machi.UserEntered,
		User: machi.User{ID: msg.User},
		At:   s.now(),
	}, s.state)
	return true
}

func (s *Server) handleDisconnect(msg disconnectMsg) bool {
	client, ok := s.clients[msg.ConnID]
	if !ok {
		return false
	}
	delete(s.clients, msg.ConnID)
	if client.downCh != nil {
		close(client.downCh)
	}

	s.log.Info().Str("conn", msg.ConnID).Msgf("client gone: %s", client.user)

	if s.connections(client.user) > 0 {
		return false
	}

	s.state = s.rules.Update(machi.Action{
		Type: machi.UserExit,
		User: machi.User{ID: client.user},
		At:   s.now(),
	}, s.state)
	return true
}

func (s *Server) handleRequest(in requestFromUser) bool {
	client, ok := s.clients[in.ConnID]
	if !ok {
		return false
	}

	var err error
	switch {
	case len(in.Cmd) > 0 && in.Cmd[0] == "action":
		var a machi.PlayerAction
		a, err = machi.ParsePlayerAction(in.Body)
		if err == nil {
			err = s.apply(in.Who, a)
		}
	default:
		err = machi.ErrBadRequest
	}

	s.sendTo(client, responseToUser{ID: in.ID, Body: comms.Response{Err: comms.WrapError(err)}})

	return err == nil
}

// apply checks an action from a player and folds it into the game.
func (s *Server) apply(user string, pa machi.PlayerAction) error {
	action := pa.WithUser(machi.User{ID: user}, s.now())
	if action.Type == machi.Roll && pa.Roll == nil {
		action.Roll = s.dice.Roll()
	}

	if err := machi.Validate(action, s.state); err != nil {
		s.log.Info().Err(err).Str("user", user).Msgf("refused %s", action.Type)
		return err
	}

	s.state = s.rules.Update(action, s.state)
	return nil
}

func (s *Server) connections(user string) int {
	n := 0
	for _, c := range s.clients {
		if c.user == user {
			n++
		}
	}
	return n
}

func (s *Server) broadcastState() {
	msg, err := comms.Encode("update", s.state)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode update")
		return
	}
	s.broadcast(msg)
}

func (s *Server) sendState(c *clientBundle) {
	msg, err := comms.Encode("update", s.state)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode update")
		return
	}
	s.sendTo(c, msg)
}

func (s *Server) broadcast(msg interface{}) {
	for _, c := range s.clients {
		s.sendTo(c, msg)
	}
}

func (s *Server) sendTo(c *clientBundle, msg interface{}) {
	if c.downCh == nil {
		return
	}
	select {
	case c.downCh <- msg:
	default:
		// client lagging
		s.log.Info().Msgf("client lagging: %s", c.user)
	}
}

// Connect joins a user to the game. The returned id is needed to disconnect.
func (s *Server) Connect(user string, downCh chan interface{}) (string, error) {
	resCh := make(chan connectResult)
	s.coreCh <- connectMsg{user, clientBundle{downCh: downCh}, resCh}
	res := <-resCh
	return res.ConnID, res.Err
}

// Disconnect drops one connection. The user leaves with their last one.
func (s *Server) Disconnect(connID string) {
	s.coreCh <- disconnectMsg{connID}
}

// Dispatch does an action for a user, and gives back the state after it.
func (s *Server) Dispatch(user string, a machi.PlayerAction) (machi.GameState, error) {
	resCh := make(chan dispatchResult)
	s.coreCh <- dispatchMsg{user, a, resCh}
	res := <-resCh
	return res.State, res.Err
}

// State gets the current state.
func (s *Server) State() machi.GameState {
	resCh := make(chan machi.GameState)
	s.coreCh <- queryStateMsg{resCh}
	return <-resCh
}
