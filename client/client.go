package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/undeconstructed/machi/comms"
	"github.com/undeconstructed/machi/machi"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned once the connection has gone.
var ErrClosed = errors.New("connection closed")

type reqRep struct {
	head string
	body interface{}
	rep  chan error
}

// Client is one user connected to a room over the tcp gateway.
type Client struct {
	user string
	conn net.Conn
	enc  *comms.Encoder
	dec  *comms.Decoder
	log  zerolog.Logger

	locCh  chan reqRep
	downCh chan comms.Message
	doneCh chan struct{}

	// notes are log lines and chat, for whoever is showing them
	notes chan string
	state *Box

	// owned by the loop
	reqNo int
	reqs  map[string]chan error
}

// Dial connects to a room as a user, and keeps the connection going until
// Close or the context ends.
func Dial(ctx context.Context, addr, user string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	c := &Client{
		user:   user,
		conn:   conn,
		enc:    comms.NewEncoder(conn),
		dec:    comms.NewDecoder(conn),
		log:    log.With().Str("user", user).Logger(),
		locCh:  make(chan reqRep),
		downCh: make(chan comms.Message, 10),
		doneCh: make(chan struct{}),
		notes:  make(chan string, 100),
		state:  NewBox(),
		reqs:   map[string]chan error{},
	}

	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()
	go c.mainLoop(ctx)

	return c, nil
}

func (c *Client) handshake() error {
	if err := c.enc.Send(comms.Message{Head: comms.Head("connect:" + c.user)}); err != nil {
		return fmt.Errorf("failed to send connect: %w", err)
	}
	msg, err := c.dec.Decode()
	if err != nil {
		return fmt.Errorf("failed to read connect reply: %w", err)
	}
	if msg.Type() != "connected" {
		return fmt.Errorf("unexpected reply: %s", msg.Head)
	}
	res := comms.ConnectResponse{}
	if err := comms.Decode(msg, &res); err != nil {
		return fmt.Errorf("bad connect reply: %w", err)
	}
	return machi.ReError(res.Err)
}

func (c *Client) readLoop() {
	defer close(c.downCh)
	for {
		msg, err := c.dec.Decode()
		if err != nil {
			if err != io.EOF {
				c.log.Debug().Err(err).Msg("decode error")
			}
			return
		}
		select {
		case c.downCh <- msg:
		case <-c.doneCh:
			return
		}
	}
}

// this is the client's main loop
func (c *Client) mainLoop(ctx context.Context) {
	defer close(c.doneCh)
	defer c.conn.Close()
	defer func() {
		for _, rep := range c.reqs {
			rep <- ErrClosed
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case rr := <-c.locCh:
			head := rr.head
			if rr.rep != nil {
				c.reqNo++
				id := strconv.Itoa(c.reqNo)
				head = "request:" + id + ":" + head
				c.reqs[id] = rr.rep
			}
			if err := c.enc.Encode(head, rr.body); err != nil {
				c.log.Info().Err(err).Msg("send error")
				return
			}
		case msg, ok := <-c.downCh:
			if !ok {
				return
			}
			c.handleDown(msg)
		}
	}
}

func (c *Client) handleDown(msg comms.Message) {
	f := msg.Head.Fields()
	switch f[0] {
	case "update":
		state := &machi.GameState{}
		if err := comms.Decode(msg, state); err != nil {
			c.log.Info().Err(err).Msg("bad update")
			return
		}
		if old, ok := c.state.Get().(*machi.GameState); ok {
			c.noteNewLog(old, state)
		} else {
			c.noteNewLog(nil, state)
		}
		c.state.Put(state)
	case "response":
		if len(f) < 2 {
			return
		}
		rep, ok := c.reqs[f[1]]
		if !ok {
			return
		}
		delete(c.reqs, f[1])
		res := comms.Response{}
		if err := comms.Decode(msg, &res); err != nil {
			rep <- err
			return
		}
		rep <- machi.ReError(res.Err)
	case "text":
		var tm struct {
			Who  string `json:"who"`
			Text string `json:"text"`
		}
		if err := comms.Decode(msg, &tm); err == nil {
			c.note(fmt.Sprintf("%s says %s", tm.Who, tm.Text))
		}
	default:
		c.log.Debug().Msgf("ignoring %s", msg.Head)
	}
}

// noteNewLog passes on log entries that weren't in the last state.
func (c *Client) noteNewLog(old, state *machi.GameState) {
	var last machi.LogEntry
	if old != nil && len(old.Log) > 0 {
		last = old.Log[0]
	}
	fresh := []string{}
	for _, e := range state.Log {
		if e == last {
			break
		}
		fresh = append(fresh, e.Message)
	}
	// oldest first
	for i := len(fresh) - 1; i >= 0; i-- {
		c.note(fresh[i])
	}
}

func (c *Client) note(s string) {
	select {
	case c.notes <- s:
	default:
		// nobody reading
	}
}

func (c *Client) send(rr reqRep) error {
	select {
	case c.locCh <- rr:
	case <-c.doneCh:
		return ErrClosed
	}
	if rr.rep == nil {
		return nil
	}
	return <-rr.rep
}

// Act sends an action and waits to hear if it was accepted.
func (c *Client) Act(a machi.PlayerAction) error {
	return c.send(reqRep{head: "action", body: a, rep: make(chan error, 1)})
}

// Roll rolls a given number, or lets the server roll if n is 0.
func (c *Client) Roll(n int) error {
	a := machi.PlayerAction{Type: machi.Roll}
	if n != 0 {
		a.Roll = &n
	}
	return c.Act(a)
}

// Say sends chat.
func (c *Client) Say(text string) error {
	return c.send(reqRep{head: "text", body: text})
}

// State is the latest state heard, or nil before the first.
func (c *Client) State() *machi.GameState {
	s, _ := c.state.Get().(*machi.GameState)
	return s
}

// WaitState waits for a state other than seen.
func (c *Client) WaitState(seen *machi.GameState) *machi.GameState {
	if seen == nil {
		return c.state.Wait(nil).(*machi.GameState)
	}
	return c.state.Wait(seen).(*machi.GameState)
}

// Notes gives lines worth showing to the user.
func (c *Client) Notes() <-chan string {
	return c.notes
}

func (c *Client) User() string {
	return c.user
}

// Done closes when the connection is over.
func (c *Client) Done() <-chan struct{} {
	return c.doneCh
}

func (c *Client) Close() error {
	return c.conn.Close()
}
