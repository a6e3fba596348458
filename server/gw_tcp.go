package server

import (
	"context"
	"io"
	"net"

	"github.com/undeconstructed/machi/comms"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func runTcpGateway(ctx context.Context, server *Server, addr string) error {
	log := log.With().Str("gw", "tcp").Logger()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("comms listening on tcp:%v", ln.Addr())

	m := &tcpManager{
		server: server,
		log:    log,
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	err = m.Serve(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type tcpManager struct {
	server *Server
	log    zerolog.Logger
}

func (m *tcpManager) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go m.manageTcpConnection(conn)
	}
}

func (m *tcpManager) manageTcpConnection(conn net.Conn) {
	defer conn.Close()

	addr := conn.RemoteAddr()

	log := m.log.With().Str("client", addr.String()).Logger()
	log.Info().Msgf("connecting")

	downCh := make(chan interface{}, 100)

	upStream := comms.NewDecoder(conn)
	dnStream := comms.NewEncoder(conn)

	msg1, err := upStream.Decode()
	if err != nil {
		log.Info().Err(err).Msg("first message error")
		return
	}
	fields := msg1.Head.Fields()
	if len(fields) != 2 || fields[0] != "connect" {
		log.Info().Msg("bad first message head")
		return
	}
	user := fields[1]

	connID, err := m.server.Connect(user, downCh)
	if err != nil {
		log.Info().Err(err).Msg("connect error")
		_ = dnStream.Encode("connected", comms.ConnectResponse{Err: comms.WrapError(err)})
		return
	}
	// the core closes downCh once this is done
	defer m.server.Disconnect(connID)

	go func() {
		// read downCh, write to conn
		for down := range downCh {
			msg, err := encodeDown(down)
			if err != nil {
				log.Info().Err(err).Msg("encode error")
				break
			}
			err = dnStream.Send(msg)
			if err != nil {
				log.Info().Err(err).Msg("send error")
				break
			}
		}
	}()

	for {
		// read conn, despatch into server
		msg, err := upStream.Decode()
		if err != nil {
			if err != io.EOF {
				log.Info().Err(err).Msg("decode error")
			}
			return
		}
		log.Debug().Msgf("received: %s %s", msg.Head, string(msg.Data))

		if err := m.server.upstream(connID, user, msg); err != nil {
			log.Info().Err(err).Msg("bad message")
		}
	}
}
