package main

import (
	"context"
	"encoding/base64"
	"flag"
	"log"
	"time"

	"github.com/room4-2/arka/audio"
	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/messages"
	"github.com/room4-2/arka/upstream"
)

// printer logs everything the provider sends back
type printer struct {
	closed chan struct{}
}

func (p *printer) Deliver(msg messages.Message) {
	switch msg.Type {
	case messages.TypeAudio, messages.TypeAudioOutput:
		log.Printf("🔊 Received %s: %d base64 bytes (%.2fs)", msg.Type, len(msg.ClipData()), msg.Duration)
	case messages.TypeText, messages.TypeUserMessage, messages.TypeAssistantMessage:
		log.Printf("💬 Received %s: %s", msg.Type, msg.Text)
	default:
		log.Printf("📥 Received %s: %s", msg.Type, msg.Raw())
	}
}

func (p *printer) UpstreamClosed(err error) {
	log.Printf("🔌 Upstream closed: %v", err)
	close(p.closed)
}

func main() {
	text := flag.String("text", "Tell me about yourself", "text message to send")
	tone := flag.Bool("tone", false, "also send a one second test tone as audio_input")
	wait := flag.Duration("wait", 10*time.Second, "how long to wait for replies")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opener, err := upstream.NewOpener(cfg)
	if err != nil {
		log.Fatalf("Failed to prepare upstream: %v", err)
	}

	down := &printer{closed: make(chan struct{})}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Printf("Testing %s upstream...", cfg.UpstreamProvider)
	session, err := opener.Dial(ctx, down)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()
	log.Printf("✅ Connected: %s session %s", session.Kind(), session.ID())

	if *tone {
		const rate = 16000
		settings := messages.AudioSettings{Format: "wav", SampleRate: rate, Channels: 1}
		if err := session.Send(ctx, messages.NewSessionSettingsMessage(settings)); err != nil {
			log.Fatalf("Failed to send session settings: %v", err)
		}

		wav, err := audio.EncodeWAV(audio.Tone(440, time.Second, rate, 0.3), rate, 1)
		if err != nil {
			log.Fatalf("Failed to encode tone: %v", err)
		}
		if err := session.Send(ctx, messages.NewAudioInputMessage(base64.StdEncoding.EncodeToString(wav))); err != nil {
			log.Fatalf("Failed to send audio: %v", err)
		}
	}

	if *text != "" {
		if err := session.Send(ctx, messages.NewTextMessage(*text)); err != nil {
			log.Fatalf("Failed to send text: %v", err)
		}
	}

	log.Println("Waiting for response...")
	select {
	case <-time.After(*wait):
	case <-down.closed:
	}
	log.Println("Done")
}
