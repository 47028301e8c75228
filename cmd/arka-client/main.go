package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/room4-2/arka/client"
	"github.com/room4-2/arka/device"
	"github.com/room4-2/arka/messages"
	"github.com/room4-2/arka/playback"
	"github.com/room4-2/arka/viz"
)

func main() {
	flags := flag.NewFlagSet("arka-client", flag.ExitOnError)
	relayURL := flags.String("url", "ws://localhost:3000/", "relay WebSocket URL")
	mic := flags.Bool("mic", true, "stream the default microphone")
	sampleRate := flags.Int("sample-rate", 16000, "microphone sample rate")
	chunkInterval := flags.Duration("chunk-interval", 100*time.Millisecond, "microphone chunk interval")
	auroraStep := flags.Float64("aurora-step", 0.01, "aurora opacity change per frame")
	render := flags.Bool("render", true, "draw the ring meter on stderr")

	if err := client.ParseFlagsWithEnvVars(flags, "ARKA_", os.Args[1:]); err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, options{
		relayURL:      *relayURL,
		mic:           *mic,
		sampleRate:    *sampleRate,
		chunkInterval: *chunkInterval,
		auroraStep:    *auroraStep,
		render:        *render,
	}); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	relayURL      string
	mic           bool
	sampleRate    int
	chunkInterval time.Duration
	auroraStep    float64
	render        bool
}

func run(ctx context.Context, opts options) error {
	if err := device.Initialize(); err != nil {
		return err
	}
	defer device.Terminate()

	analyser := viz.NewAnalyser(viz.DefaultAnalyserConfig())
	thinking := viz.NewThinking(viz.DefaultThinkingConfig(), time.Now().UnixNano())

	queue := playback.NewQueue(&device.Output{Tap: analyser})
	queue.OnStart = thinking.Start
	queue.OnStop = thinking.Stop

	remote, err := client.FetchConfig(ctx, opts.relayURL)
	if err != nil {
		log.Printf("⚠️ Using local aurora schedule: %v", err)
	}

	conn := client.New(opts.relayURL, queue)
	conn.OnMessage = printMessage
	conn.OnStateChange = func(s client.State) {
		log.Printf("🔌 Relay %s", s)
	}

	if err := conn.Dial(ctx); err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SendSettings(ctx, opts.sampleRate); err != nil {
		return err
	}

	go queue.Run(ctx)

	if opts.render {
		loop := viz.NewLoop(&client.TerminalRenderer{Out: os.Stderr}, analyser, thinking, viz.NewAurora(opts.auroraStep))
		loop.ForceAurora = remote.ForceAurora
		go loop.Run(ctx)
		defer loop.Stop()
	}

	if opts.mic {
		input := device.NewInput(opts.sampleRate, opts.chunkInterval, analyser)
		go func() {
			err := input.Capture(ctx, func(chunk string) error {
				return conn.SendAudioInput(ctx, chunk)
			})
			if err != nil {
				log.Printf("❌ Microphone capture stopped: %v", err)
			}
		}()
	}

	go readLines(ctx, conn)

	return conn.Run(ctx)
}

// readLines sends every line typed on stdin as a text message
func readLines(ctx context.Context, conn *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := conn.SendText(ctx, text); err != nil {
			log.Printf("❌ Failed to send text: %v", err)
			return
		}
	}
}

func printMessage(msg messages.Message) {
	switch msg.Type {
	case messages.TypeText, messages.TypeAssistantMessage:
		fmt.Printf("\n🧊 %s\n", msg.Text)
	case messages.TypeUserMessage:
		fmt.Printf("\n🗣  %s\n", msg.Text)
	case messages.TypeSystem:
		fmt.Printf("\nℹ️  %s\n", msg.Message)
	case messages.TypeError:
		fmt.Printf("\n❌ %s\n", msg.Message)
	case messages.TypeAssistantEnd:
	default:
		log.Printf("📥 %s", msg.Type)
	}
}
