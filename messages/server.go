package messages

// Messages shown to the client
const (
	MsgConnected        = "Connected to Antarctica AI"
	MsgConnectedMock    = "Connected to Antarctica AI (Mock)"
	MsgUpstreamClosed   = "Antarctica connection closed"
	MsgUpstreamError    = "Error communicating with Antarctica"
	MsgBadUpstreamFrame = "Error processing response from Antarctica"
	MsgProcessingFailed = "Error processing your message"
	MsgNotConnected     = "Not connected to Antarctica"
	MsgConnectFailed    = "Failed to connect to Antarctica"
	MsgTooManySessions  = "Antarctica is busy, try again later"
)

// NewTextMessage creates a text response message
func NewTextMessage(text string) Message {
	return Message{Type: TypeText, Text: text}
}

// NewSystemMessage creates a system notice
func NewSystemMessage(message string) Message {
	return Message{Type: TypeSystem, Message: message}
}

// NewErrorMessage creates an error message
func NewErrorMessage(message string) Message {
	return Message{Type: TypeError, Message: message}
}

// NewAudioMessage creates an audio reply carrying a base64 WAV clip
func NewAudioMessage(data string, duration float64) Message {
	encoded, _ := codec.Marshal(data)
	return Message{Type: TypeAudio, Audio: encoded, Duration: duration}
}

// NewAudioOutputMessage creates an assistant audio_output message
func NewAudioOutputMessage(data string, duration float64) Message {
	return Message{Type: TypeAudioOutput, Data: data, Duration: duration}
}

// NewUserMessage echoes what the user said
func NewUserMessage(text string) Message {
	return Message{Type: TypeUserMessage, Text: text}
}

// NewAssistantMessage creates an assistant transcript message
func NewAssistantMessage(text string) Message {
	return Message{Type: TypeAssistantMessage, Text: text}
}

// NewAssistantEndMessage marks the end of an assistant turn
func NewAssistantEndMessage() Message {
	return Message{Type: TypeAssistantEnd}
}

// NewUserInterruptionMessage tells the client to stop playback
func NewUserInterruptionMessage() Message {
	return Message{Type: TypeUserInterruption}
}
