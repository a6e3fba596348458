package comms

import (
	"encoding/json"
	"io"
	"strings"
)

// Head says what a message is. It's colon separated, e.g. "request:4:action".
type Head string

// Fields splits the head.
func (h Head) Fields() []string {
	return strings.Split(string(h), ":")
}

// Message is anything going either way. Data is always JSON.
type Message struct {
	Head Head
	Data []byte
}

// Type is the first field of the head.
func (m Message) Type() string {
	return m.Head.Fields()[0]
}

// Encode makes a message out of anything JSON can encode.
func Encode(head string, data interface{}) (Message, error) {
	bs, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Head: Head(head), Data: bs}, nil
}

// Decode unpacks the data of a message.
func Decode(msg Message, v interface{}) error {
	return json.Unmarshal(msg.Data, v)
}

// JSONMessage is how a message looks on the wire.
type JSONMessage struct {
	Head string          `json:"head"`
	Data json.RawMessage `json:"data"`
}

// Encoder writes messages to a stream, one JSON object each.
type Encoder struct {
	enc *json.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Encode encodes and sends in one go.
func (e *Encoder) Encode(head string, data interface{}) error {
	msg, err := Encode(head, data)
	if err != nil {
		return err
	}
	return e.Send(msg)
}

// Send sends a message that is already encoded.
func (e *Encoder) Send(msg Message) error {
	data := msg.Data
	if len(data) == 0 {
		data = []byte("null")
	}
	return e.enc.Encode(JSONMessage{Head: string(msg.Head), Data: data})
}

// Decoder reads messages written by an Encoder.
type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

func (d *Decoder) Decode() (Message, error) {
	var jm JSONMessage
	if err := d.dec.Decode(&jm); err != nil {
		return Message{}, err
	}
	return Message{Head: Head(jm.Head), Data: jm.Data}, nil
}
