package messages

// NewAudioInputMessage wraps a base64 audio chunk captured from the microphone
func NewAudioInputMessage(data string) Message {
	return Message{Type: TypeAudioInput, Data: data}
}

// NewSessionSettingsMessage announces the format of subsequent audio_input chunks
func NewSessionSettingsMessage(settings AudioSettings) Message {
	encoded, _ := codec.Marshal(settings)
	return Message{Type: TypeSessionSettings, Audio: encoded}
}
