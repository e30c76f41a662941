package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/api"
	authproviders "github.com/cbodonnell/memorymatch/pkg/auth/providers"
	"github.com/cbodonnell/memorymatch/pkg/config"
	"github.com/cbodonnell/memorymatch/pkg/game"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/network"
	"github.com/cbodonnell/memorymatch/pkg/relay"
	"github.com/cbodonnell/memorymatch/pkg/repositories"
	"github.com/cbodonnell/memorymatch/pkg/rooms"
	"github.com/cbodonnell/memorymatch/pkg/transport"
	"github.com/cbodonnell/memorymatch/pkg/version"
	"github.com/cbodonnell/memorymatch/pkg/workers"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func main() {
	httpPort := flag.Int("http-port", 9090, "HTTP port for the room and leaderboard API")
	wsPort := flag.Int("ws-port", 9091, "WebSocket port for browser clients")
	logLevel := flag.String("log-level", "info", "Log level")
	transportKind := flag.String("transport", "mqtt", "Message transport (mqtt or memory)")
	envFile := flag.String("env-file", ".env", "Optional env file")
	wsRate := flag.Float64("ws-rate", 20, "Frames per second a WebSocket client may send, 0 disables limiting")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bus transport.Bus
	switch *transportKind {
	case "mqtt":
		mqttBus, err := transport.NewMQTTBus(transport.NewMQTTBusOptions{
			Broker:   cfg.MQTTBroker,
			ClientID: "memorymatch-server-" + uuid.NewString(),
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to MQTT broker: %v", err))
		}
		bus = mqttBus
	case "memory":
		bus = transport.NewMemoryBus(transport.NewMemoryBusOptions{})
	default:
		panic(fmt.Sprintf("Unknown transport: %s", *transportKind))
	}
	defer bus.Close()

	var authProvider authproviders.AuthProvider
	if cfg.AuthEnabled() {
		firebaseAuth, err := authproviders.NewFirebaseAuthProvider(ctx, authproviders.NewFirebaseAuthProviderOptions{
			ProjectID: cfg.FirebaseProjectID,
			APIKey:    cfg.FirebaseAPIKey,
		})
		if err != nil {
			panic(fmt.Sprintf("Failed to create auth provider: %v", err))
		}
		authProvider = firebaseAuth
		log.Info("Verifying participant tokens for project %s", cfg.FirebaseProjectID)
	}

	repository, err := repositories.NewRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	roundFinishedChannelSize := 100
	roundFinishedChan := make(chan game.RoundSummary, roundFinishedChannelSize)

	outbound := relay.NewOutbound(relay.NewOutboundOptions{Bus: bus})
	var inbound *relay.Inbound
	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		Registry:          rooms.NewRegistry(rooms.NewRegistryOptions{}),
		Arbiter:           game.NewArbiter(game.NewArbiterOptions{}),
		Publisher:         outbound,
		RoundFinishedChan: roundFinishedChan,
		RoomClosedHooks: []func(code string){
			outbound.ForgetRoom,
			func(code string) { inbound.ForgetRoom(code) },
		},
	})
	inbound = relay.NewInbound(relay.NewInboundOptions{
		Bus:     bus,
		Handler: gameManager,
	})
	go func() {
		if err := inbound.Start(ctx); err != nil {
			log.Error("Inbound relay stopped: %v", err)
			stop()
		}
	}()

	saveScoreWorker := workers.NewSaveScoreWorker(workers.NewSaveScoreWorkerOptions{
		Repository: repository,
		Summaries:  roundFinishedChan,
	})
	go saveScoreWorker.Start(ctx)

	reapWorker := workers.NewReapWorker(workers.NewReapWorkerOptions{
		Reaper: gameManager,
		TTL:    cfg.RoomIdleTTL,
	})
	go func() {
		if err := reapWorker.Start(ctx); err != nil {
			log.Error("Reap worker stopped: %v", err)
		}
	}()

	var apiTLS *api.TLSConfig
	var wsTLS *network.TLSConfig
	if cfg.TLSEnabled() {
		apiTLS = &api.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
		wsTLS = &network.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
	}

	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		AuthProvider: authProvider,
		ClientManager: network.NewClientManager(network.NewClientManagerOptions{
			RateLimit: rate.Limit(*wsRate),
			Burst:     int(*wsRate),
		}),
		Bus:   bus,
		Rooms: gameManager,
	})
	wsServer := network.NewWSServer(network.NewWSServerOptions{
		Port:    *wsPort,
		TLS:     wsTLS,
		Handler: networkManager.Handler(),
	})
	go wsServer.Start(ctx)

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *httpPort,
		TLS:          apiTLS,
		AllowOrigin:  cfg.AllowOrigin,
		AuthProvider: authProvider,
		Rooms:        gameManager,
		Repository:   repository,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}
