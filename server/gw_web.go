package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/undeconstructed/machi/comms"
	"github.com/undeconstructed/machi/machi"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

func runWebGateway(ctx context.Context, server *Server, addr string) error {
	log := log.With().Str("gw", "web").Logger()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("web listening on http://%v", ln.Addr())

	s := &http.Server{
		Handler:     newWebHandler(server, log),
		ReadTimeout: time.Second * 10,
	}
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	err = s.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func newWebHandler(server *Server, log zerolog.Logger) http.Handler {
	rh := restHandler{
		server: server,
		log:    log,
	}

	ch := commsHandler{
		server:  server,
		origins: server.cfg.Origins,
		log:     log,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	a := r.Group("/api")
	a.GET("/state", rh.getState)
	a.GET("/rules", rh.getRules)
	a.POST("/actions", rh.postAction)
	r.GET("/ws", ch.serveWS)

	return r
}

type restHandler struct {
	server *Server
	log    zerolog.Logger
}

func (rh *restHandler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, rh.server.State())
}

func (rh *restHandler) getRules(c *gin.Context) {
	c.JSON(http.StatusOK, rh.server.Rules())
}

func (rh *restHandler) postAction(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, comms.Response{Err: comms.WrapError(machi.ErrBadRequest)})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, comms.Response{Err: comms.WrapError(machi.ErrBadRequest)})
		return
	}

	a, err := machi.ParsePlayerAction(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, comms.Response{Err: comms.WrapError(err)})
		return
	}

	state, err := rh.server.Dispatch(user, a)
	if err != nil {
		rh.log.Info().Err(err).Str("user", user).Msg("action refused")
		c.JSON(httpStatus(err), comms.Response{Err: comms.WrapError(err)})
		return
	}

	c.JSON(http.StatusOK, state)
}

func httpStatus(err error) int {
	switch err {
	case machi.ErrNotInRoom:
		return http.StatusConflict
	case machi.ErrBadRoll, machi.ErrBadRequest, machi.ErrUnknownAction:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type commsHandler struct {
	server  *Server
	origins []string
	log     zerolog.Logger
}

func (ch *commsHandler) serveWS(c *gin.Context) {
	addr := c.Request.RemoteAddr

	log := ch.log.With().Str("client", addr).Logger()
	log.Info().Msgf("connecting")

	user := c.Query("user")
	if user == "" {
		c.String(http.StatusBadRequest, "missing user")
		return
	}

	server := ch.server

	// ws stuff

	socket, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		Subprotocols:   []string{"comms"},
		OriginPatterns: ch.origins,
	})
	if err != nil {
		log.Info().Err(err).Msg("websocket accept error")
		return
	}
	defer socket.Close(websocket.StatusInternalError, "the sky is falling")

	if socket.Subprotocol() != "comms" {
		socket.Close(websocket.StatusPolicyViolation, "client must speak the comms subprotocol")
		return
	}

	ctx := c.Request.Context()

	// start real work

	downCh := make(chan interface{}, 100)

	connID, err := server.Connect(user, downCh)
	if err != nil {
		log.Info().Err(err).Msg("refusing")
		msg, _ := comms.Encode("connected", comms.ConnectResponse{Err: comms.WrapError(err)})
		_ = sendDownWs(ctx, socket, msg)
		socket.Close(websocket.StatusNormalClosure, "cannot connect")
		return
	}
	defer server.Disconnect(connID)

	go func() {
		// read downCh, write to conn
		for down := range downCh {
			msg, err := encodeDown(down)
			if err != nil {
				log.Info().Err(err).Msg("encode error")
				break
			}
			err = sendDownWs(ctx, socket, msg)
			if err != nil {
				log.Info().Err(err).Msg("send error")
				break
			}
		}
	}()

	for {
		// read conn, despatch into server
		msg, err := readMessageWs(ctx, socket)
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			return
		}
		if err != nil {
			log.Info().Err(err).Msg("client read error")
			return
		}
		log.Debug().Msgf("received: %s %s", msg.Head, string(msg.Data))

		if err := server.upstream(connID, user, msg); err != nil {
			log.Info().Err(err).Msg("bad message")
		}
	}
}

func sendDownWs(ctx context.Context, ws *websocket.Conn, msg comms.Message) error {
	data := msg.Data
	if len(data) == 0 {
		data = []byte("null")
	}

	tmsg, err := json.Marshal(comms.JSONMessage{
		Head: string(msg.Head),
		Data: json.RawMessage(data),
	})
	if err != nil {
		return err
	}

	return ws.Write(ctx, websocket.MessageText, tmsg)
}

func readMessageWs(ctx context.Context, c *websocket.Conn) (comms.Message, error) {
	typ, bytes, err := c.Read(ctx)
	if err != nil {
		return comms.Message{}, err
	}

	if typ != websocket.MessageText {
		return comms.Message{}, fmt.Errorf("client sent a %v", typ)
	}

	// text type means fully encapsulated in JSON
	msg := comms.JSONMessage{}
	err = json.Unmarshal(bytes, &msg)
	if err != nil {
		return comms.Message{}, err
	}

	return comms.Message{Head: comms.Head(msg.Head), Data: msg.Data}, nil
}
