package client

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/undeconstructed/machi/comms"
	"github.com/undeconstructed/machi/machi"
)

// fakeRoom accepts one client, and answers actions with a roll that
// always works unless it's over 6.
func fakeRoom(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		enc := comms.NewEncoder(conn)
		dec := comms.NewDecoder(conn)

		msg, err := dec.Decode()
		if err != nil {
			return
		}
		user := msg.Head.Fields()[1]
		state := machi.Update(machi.Action{Type: machi.UserEntered, User: machi.User{ID: user}}, machi.NewGame(time.Unix(0, 0)))

		_ = enc.Encode("connected", comms.ConnectResponse{User: user})
		_ = enc.Encode("update", state)

		for {
			msg, err := dec.Decode()
			if err != nil {
				return
			}
			f := msg.Head.Fields()
			switch f[0] {
			case "request":
				pa, err := machi.ParsePlayerAction(msg.Data)
				if err == nil && pa.Roll != nil && *pa.Roll > 6 {
					err = machi.ErrBadRoll
				}
				_ = enc.Encode("response:"+f[1], comms.Response{Err: comms.WrapError(err)})
				if err == nil {
					state = machi.Update(pa.WithUser(machi.User{ID: user}, time.Unix(1, 0)), state)
					_ = enc.Encode("update", state)
				}
			case "text":
				var text string
				_ = comms.Decode(msg, &text)
				_ = enc.Encode("text", map[string]string{"who": user, "text": text})
			}
		}
	}()

	return ln.Addr().String()
}

func TestClient_flow(t *testing.T) {
	addr := fakeRoom(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := Dial(ctx, addr, "a")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	s1 := c.WaitState(nil)
	if len(s1.Users) != 1 || s1.Users[0].ID != "a" {
		t.Fatalf("users: %v", s1.Users)
	}

	if err := c.Roll(1); err != nil {
		t.Fatalf("roll: %v", err)
	}
	s2 := c.WaitState(s1)
	if s2.UserInventories["a"].Income != 1 {
		t.Errorf("income: %d", s2.UserInventories["a"].Income)
	}

	if err := c.Roll(9); err != machi.ErrBadRoll {
		t.Errorf("bad roll: %v", err)
	}

	var out bytes.Buffer
	if _, err := c.Command(&out, "state"); err != nil {
		t.Fatalf("state: %v", err)
	}
	if !strings.Contains(out.String(), "a: 1") || !strings.Contains(out.String(), "user a rolled a 1") {
		t.Errorf("printed:\n%s", out.String())
	}

	if err := c.Say("hi"); err != nil {
		t.Fatalf("say: %v", err)
	}
	if n := waitNote(t, c, "a says hi"); n == "" {
		t.Errorf("no chat note")
	}
}

func waitNote(t *testing.T, c *Client, want string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case n := <-c.Notes():
			if n == want {
				return n
			}
		case <-timeout:
			return ""
		}
	}
}

func TestClient_commands(t *testing.T) {
	addr := fakeRoom(t)

	c, err := Dial(context.Background(), addr, "a")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	c.WaitState(nil)

	var out bytes.Buffer
	if quit, _ := c.Command(&out, "quit"); !quit {
		t.Errorf("quit should stop")
	}
	if _, err := c.Command(&out, "roll x"); err == nil {
		t.Errorf("roll x accepted")
	}
	if _, err := c.Command(&out, "roll 0"); err != machi.ErrBadRoll {
		t.Errorf("roll 0: %v", err)
	}
	if _, err := c.Command(&out, "build"); err == nil {
		t.Errorf("build with nothing accepted")
	}
	if _, err := c.Command(&out, "build cafe"); err != nil {
		t.Errorf("build: %v", err)
	}
}

func TestClient_closed(t *testing.T) {
	addr := fakeRoom(t)

	c, err := Dial(context.Background(), addr, "a")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c.Close()
	<-c.Done()

	if err := c.Roll(1); err != ErrClosed {
		t.Errorf("got %v", err)
	}
}
