// Event viewer: consumes document events from Kafka and streams them to a
// browser over WebSocket.
package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"social-schema-service/internal/events"
	"social-schema-service/internal/models"
	"social-schema-service/internal/observability/logging"
)

//go:embed static/*
var staticFiles embed.FS

func newMux(hub *Hub) http.Handler {
	mux := http.NewServeMux()
	staticFS, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", wsHandler(hub))
	return mux
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicAccepted := flag.String("topic-accepted", "social.document.accepted", "accepted documents topic")
	topicRejected := flag.String("topic-rejected", "social.document.rejected", "rejected documents topic")
	since := flag.Duration("since", time.Hour, "replay events newer than this")
	flag.Parse()

	cfg := logging.DefaultConfig()
	cfg.Format = "console"
	cfg.Service = "event-viewer"
	logging.Init(cfg)

	hub := newHub()
	go hub.run()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, topic := range []string{*topicAccepted, *topicRejected} {
		topic := topic
		consumer := events.NewConsumer(events.ConsumerConfig{
			Brokers: strings.Split(*brokers, ","),
			Topic:   topic,
			Since:   *since,
		})
		go func() {
			err := consumer.Run(ctx, func(ev *models.DocumentEvent) {
				log.Debug().
					Str("eventType", ev.EventType).
					Str("collection", ev.Collection).
					Int("violations", len(ev.Violations)).
					Msg("Received event")
				hub.publish(ev)
			})
			if err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("Consumer stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           newMux(hub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		hub.stop()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", "http://localhost:"+*port).
		Str("brokers", *brokers).
		Strs("topics", []string{*topicAccepted, *topicRejected}).
		Msg("Event viewer starting")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}
}
