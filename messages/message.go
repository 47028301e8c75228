package messages

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Message types exchanged between client, relay and upstream
const (
	TypeText             = "text"
	TypeSystem           = "system"
	TypeError            = "error"
	TypeAudio            = "audio"
	TypeAudioInput       = "audio_input"
	TypeAudioOutput      = "audio_output"
	TypeRecognition      = "recognition"
	TypeUserMessage      = "user_message"
	TypeAssistantMessage = "assistant_message"
	TypeAssistantEnd     = "assistant_end"
	TypeUserInterruption = "user_interruption"
	TypeSessionSettings  = "session_settings"
)

var codec = sonic.ConfigStd

// Message is a tagged record {type, ...payload}. Only the fields the relay and
// the client act on are decoded; everything else survives in the raw frame.
type Message struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     string          `json:"data,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Audio    json.RawMessage `json:"audio,omitempty"` // base64 string for "audio", settings object for "session_settings"

	raw []byte
}

// AudioSettings describes the format of audio_input chunks
type AudioSettings struct {
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Parse decodes a frame received from a client. Anything that is not a JSON
// object with a type tag is treated as plain text typed by the user.
func Parse(frame []byte) Message {
	msg, err := Decode(frame)
	if err != nil || msg.Type == "" {
		return Message{Type: TypeText, Text: string(frame)}
	}
	return msg
}

// Decode strictly decodes a JSON object frame. The original bytes are kept so
// Encode relays the frame unmodified.
func Decode(frame []byte) (Message, error) {
	var msg Message
	if err := codec.Unmarshal(frame, &msg); err != nil {
		// Payload fields with unexpected shapes must not hide the type tag.
		var probe struct {
			Type string `json:"type"`
		}
		if perr := codec.Unmarshal(frame, &probe); perr != nil {
			return Message{}, fmt.Errorf("decode message: %w", err)
		}
		msg = Message{Type: probe.Type}
	}
	msg.raw = append([]byte(nil), frame...)
	return msg, nil
}

// Encode returns the wire form: the original frame for decoded messages,
// the marshaled struct for constructed ones.
func (m Message) Encode() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	b, err := codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", m.Type, err)
	}
	return b, nil
}

// Raw reports the frame this message was decoded from, nil if constructed.
func (m Message) Raw() []byte {
	return m.raw
}

// ClipData returns the base64 audio payload of an audio, audio_input or
// audio_output message
func (m Message) ClipData() string {
	switch m.Type {
	case TypeAudio:
		var s string
		if len(m.Audio) > 0 && codec.Unmarshal(m.Audio, &s) == nil {
			return s
		}
		return m.Data
	case TypeAudioInput, TypeAudioOutput:
		return m.Data
	}
	return ""
}

// Settings returns the audio settings carried by a session_settings message
func (m Message) Settings() (AudioSettings, bool) {
	var s AudioSettings
	if m.Type != TypeSessionSettings || len(m.Audio) == 0 {
		return s, false
	}
	if err := codec.Unmarshal(m.Audio, &s); err != nil {
		return s, false
	}
	return s, true
}

// Marshal encodes provider-specific wire structs with the message codec
func Marshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}

// Unmarshal decodes JSON with the message codec
func Unmarshal(data []byte, v any) error {
	return codec.Unmarshal(data, v)
}
