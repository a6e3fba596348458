package server

import (
	"fmt"

	"github.com/undeconstructed/machi/comms"

	"github.com/rs/zerolog/log"
)

func encodeDown(down interface{}) (comms.Message, error) {
	switch msg := down.(type) {
	case comms.Message:
		// send preformatted message
		return msg, nil
	case responseToUser:
		// send response
		return comms.Encode("response:"+msg.ID, msg.Body)
	case toSend:
		// send anything
		return comms.Encode(msg.mtype, msg.data)
	default:
		log.Warn().Msgf("trying to send nonsense: %v", msg)
		return comms.Message{}, fmt.Errorf("cannot send: %#v", msg)
	}
}

// upstream routes one message from a client into the core.
func (s *Server) upstream(connID, user string, msg comms.Message) error {
	f := msg.Head.Fields()
	switch f[0] {
	case "text":
		var text string
		if err := comms.Decode(msg, &text); err != nil {
			return fmt.Errorf("bad text: %w", err)
		}
		s.coreCh <- textFromUser{user, text}
	case "request":
		if len(f) < 3 {
			return fmt.Errorf("bad request head: %s", msg.Head)
		}
		s.coreCh <- requestFromUser{connID, user, f[1], f[2:], msg.Data}
	default:
		return fmt.Errorf("junk from client: %v", f)
	}
	return nil
}
