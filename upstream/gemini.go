package upstream

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/room4-2/arka/audio"
	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/functions"
	"github.com/room4-2/arka/messages"
	"google.golang.org/genai"
)

const (
	geminiModel       = "models/gemini-2.5-flash-native-audio-preview-12-2025"
	geminiVoice       = "Zephyr"
	geminiInputRate   = 16000
	geminiOutputRate  = 24000
	geminiPCMMimeType = "audio/pcm"
)

// Gemini is a Gemini Live session speaking the relay's message vocabulary
type Gemini struct {
	id      string
	session *genai.Session
	down    Downstream

	mu        sync.RWMutex
	inputRate int
	closed    bool
}

// DialGemini connects to the Live API with the Antarctica persona
func DialGemini(ctx context.Context, cfg *config.Config, down Downstream) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingCredentials)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	liveConfig := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemPrompt}},
		},
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				functions.GetAntarcticaFactsFunctionDeclaration(),
			},
		}},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: geminiVoice},
			},
		},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
	}

	session, err := client.Live.Connect(ctx, geminiModel, liveConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Live API: %w", err)
	}

	g := &Gemini{
		id:        uuid.New().String(),
		session:   session,
		down:      down,
		inputRate: geminiInputRate,
	}
	log.Printf("✅ [%s] Connected to Gemini Live (%s)", short(g.id), geminiModel)

	go g.receive()
	return g, nil
}

func (g *Gemini) Kind() Kind { return KindProvider }

func (g *Gemini) ID() string { return g.id }

// Send translates a client message into Live API input
func (g *Gemini) Send(_ context.Context, msg messages.Message) error {
	if g.isClosed() {
		return ErrClosed
	}

	switch msg.Type {
	case messages.TypeAudioInput, messages.TypeAudio:
		pcm, rate, err := g.pcmFromClip(msg.ClipData())
		if err != nil {
			return err
		}
		if len(pcm) == 0 {
			return nil
		}
		if err := g.session.SendRealtimeInput(genai.LiveRealtimeInput{
			Audio: &genai.Blob{MIMEType: pcmMimeType(rate), Data: pcm},
		}); err != nil {
			return fmt.Errorf("failed to send audio: %w", err)
		}
		return nil

	case messages.TypeText:
		turnComplete := true
		if err := g.session.SendClientContent(genai.LiveSendClientContentParameters{
			Turns: []*genai.Content{{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Text}},
			}},
			TurnComplete: &turnComplete,
		}); err != nil {
			return fmt.Errorf("failed to send text: %w", err)
		}
		log.Printf("📤 [%s] Sent text to Gemini: %s", short(g.id), msg.Text)
		return nil

	case messages.TypeSessionSettings:
		if settings, ok := msg.Settings(); ok && settings.SampleRate > 0 {
			g.mu.Lock()
			g.inputRate = settings.SampleRate
			g.mu.Unlock()
		}
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnsupported, msg.Type)
}

// pcmFromClip accepts either a WAV clip or bare 16-bit PCM at the announced rate
func (g *Gemini) pcmFromClip(encoded string) ([]byte, int, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid base64: %w", err)
	}

	if clip, err := audio.DecodeWAV(data); err == nil {
		return audio.SamplesToPCM16(clip.Samples), clip.SampleRate, nil
	}

	g.mu.RLock()
	rate := g.inputRate
	g.mu.RUnlock()
	return data, rate, nil
}

func (g *Gemini) receive() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [%s] Panic in Gemini receiver: %v", short(g.id), r)
		}
	}()

	for {
		resp, err := g.session.Receive()
		if err != nil {
			if g.isClosed() {
				return
			}
			log.Printf("❌ [%s] Gemini receive error: %v", short(g.id), err)
			g.down.Deliver(messages.NewErrorMessage(messages.MsgUpstreamError))
			if !g.markClosed() {
				_ = g.session.Close()
			}
			g.down.UpstreamClosed(err)
			return
		}

		g.handleResponse(resp)
	}
}

func (g *Gemini) handleResponse(resp *genai.LiveServerMessage) {
	if resp.ToolCall != nil && len(resp.ToolCall.FunctionCalls) > 0 {
		g.handleToolCalls(resp.ToolCall.FunctionCalls)
	}

	content := resp.ServerContent
	if content == nil {
		return
	}

	if content.Interrupted {
		log.Printf("📥 [%s] Gemini reports user interruption", short(g.id))
		g.down.Deliver(messages.NewUserInterruptionMessage())
	}

	if content.InputTranscription != nil && content.InputTranscription.Text != "" {
		g.down.Deliver(messages.NewUserMessage(content.InputTranscription.Text))
	}
	if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
		g.down.Deliver(messages.NewAssistantMessage(content.OutputTranscription.Text))
	}

	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part.Text != "" {
				g.down.Deliver(messages.NewAssistantMessage(part.Text))
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				g.deliverAudio(part.InlineData)
			}
		}
	}

	if content.TurnComplete {
		log.Printf("📥 [%s] Gemini turn complete", short(g.id))
		g.down.Deliver(messages.NewAssistantEndMessage())
	}
}

// deliverAudio wraps a PCM chunk into a WAV clip the client can play
func (g *Gemini) deliverAudio(blob *genai.Blob) {
	rate := rateFromMimeType(blob.MIMEType, geminiOutputRate)
	samples := audio.PCM16ToSamples(blob.Data)

	wav, err := audio.EncodeWAV(samples, rate, 1)
	if err != nil {
		log.Printf("❌ [%s] Failed to wrap Gemini audio: %v", short(g.id), err)
		return
	}

	duration := float64(len(samples)) / float64(rate)
	g.down.Deliver(messages.NewAudioOutputMessage(base64.StdEncoding.EncodeToString(wav), duration))
}

func (g *Gemini) handleToolCalls(calls []*genai.FunctionCall) {
	var responses []*genai.FunctionResponse

	for _, fc := range calls {
		log.Printf("🔧 [%s] Function call: %s (id: %s)", short(g.id), fc.Name, fc.ID)

		var response map[string]any
		switch fc.Name {
		case functions.GetAntarcticaFactsName:
			response = map[string]any{"output": functions.GetAntarcticaFacts()}
		default:
			response = map[string]any{"error": fmt.Sprintf("Unknown function: %s", fc.Name)}
			log.Printf("⚠️ [%s] Unknown function called: %s", short(g.id), fc.Name)
		}

		responses = append(responses, &genai.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: response,
		})
	}

	if err := g.session.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: responses}); err != nil {
		log.Printf("❌ [%s] Failed to send tool response: %v", short(g.id), err)
		g.down.Deliver(messages.NewErrorMessage(messages.MsgUpstreamError))
	}
}

func (g *Gemini) isClosed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closed
}

func (g *Gemini) markClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	was := g.closed
	g.closed = true
	return was
}

// Close terminates the Live session
func (g *Gemini) Close() error {
	if g.markClosed() {
		return nil
	}
	log.Printf("🔌 [%s] Closing Gemini Live session", short(g.id))
	return g.session.Close()
}

func pcmMimeType(rate int) string {
	return geminiPCMMimeType + ";rate=" + strconv.Itoa(rate)
}

// rateFromMimeType reads the rate parameter of "audio/pcm;rate=24000"
func rateFromMimeType(mime string, fallback int) int {
	for _, param := range strings.Split(mime, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || key != "rate" {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return fallback
}
