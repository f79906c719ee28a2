package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"motion-replay/internal/platform/config"
	"motion-replay/internal/platform/logger"
	"motion-replay/internal/platform/metrics"
	"motion-replay/internal/playback"
	"motion-replay/internal/transport"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	_ = config.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("info", "json").Error("invalid configuration", slog.String("error", err.Error()))
		return 2
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.New()

	set, err := channelSet(cfg)
	if err != nil {
		log.Error("invalid channel set", slog.String("error", err.Error()))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sched *playback.Scheduler
	rec, err := playback.Load(cfg.SourcePath, set, log)
	if err != nil {
		if cfg.ExitOnLoadError {
			return 1
		}
		log.Warn("playback disabled, waiting for interrupt")
	} else {
		met.SetFramesLoaded(rec.Len())
		met.AddCellParseWarnings(rec.Warnings)

		pub, err := openPublisher(cfg, log, met)
		if err != nil {
			log.Error("transport unavailable", slog.String("error", err.Error()))
			return 1
		}
		defer pub.Close()

		codec, err := transport.NewCodec(cfg.PayloadFormat)
		if err != nil {
			log.Error("invalid payload format", slog.String("error", err.Error()))
			return 2
		}
		onError := transport.LogErrors(log, met.IncTransportErrors)
		sinks := playback.BuildSinks(rec.Headers, set, func(ch playback.ChannelID) playback.Sink {
			return transport.NewSink(pub, transport.Topic(cfg.TopicPrefix, string(ch), cfg.TopicSuffix), codec, onError)
		}, log)

		sched, err = playback.NewScheduler(rec, sinks, playback.SchedulerConfig{
			FrequencyHz: cfg.FrequencyHz,
			Loop:        cfg.Loop,
		}, log, met)
		if err != nil {
			log.Error("invalid scheduler settings", slog.String("error", err.Error()))
			return 2
		}
	}

	srv := startStatusServer(cfg.StatusAddr, sched, log, met)

	playbackDone := make(chan struct{})
	go func() {
		defer close(playbackDone)
		if sched == nil {
			return
		}
		if err := sched.Run(ctx); err != nil {
			if errors.Is(err, playback.ErrEmptyRecording) {
				log.Warn("playback disabled, waiting for interrupt")
				return
			}
			log.Error("playback failed", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	<-playbackDone

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("status server shutdown error", slog.String("error", err.Error()))
		}
	}

	log.Info("replay stopped")
	return 0
}

func channelSet(cfg config.Config) (playback.ChannelSet, error) {
	if cfg.ChannelsFile == "" {
		return playback.DefaultChannels(), nil
	}
	ids, err := config.LoadChannels(cfg.ChannelsFile)
	if err != nil {
		return playback.ChannelSet{}, err
	}
	return playback.NewChannelSet(ids...)
}

func openPublisher(cfg config.Config, log *slog.Logger, met *metrics.Metrics) (transport.Publisher, error) {
	if strings.EqualFold(cfg.Transport, config.TransportLog) {
		log.Info("dry-run transport, emissions are logged at debug level")
		return transport.NewLogPublisher(log), nil
	}
	return transport.NewMQTTPublisher(transport.MQTTOptions{
		Broker:         cfg.MQTT.Broker,
		ClientID:       cfg.MQTT.ClientID,
		QoS:            byte(cfg.MQTT.QoS),
		ConnectTimeout: cfg.MQTT.ConnectTimeout,
	}, log, transport.LogErrors(log, met.IncTransportErrors))
}

// startStatusServer serves /healthz, /status and /metrics. It returns nil
// when addr is empty.
func startStatusServer(addr string, sched *playback.Scheduler, log *slog.Logger, met *metrics.Metrics) *http.Server {
	if addr == "" {
		return nil
	}

	var src playback.StatusSource
	if sched != nil {
		src = sched
	}
	h := playback.NewHandler(src, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Method(http.MethodGet, "/metrics", met.Handler())
	h.Routes(r)

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("status server error", slog.String("error", err.Error()))
		}
	}()

	log.Info("status server starting", slog.String("addr", addr))
	return srv
}
