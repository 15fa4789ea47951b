package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/takama/daemon"
	"github.com/tauraamui/framebridge/api"
	"github.com/tauraamui/framebridge/pkg/bridge"
	"github.com/tauraamui/framebridge/pkg/capture"
	"github.com/tauraamui/framebridge/pkg/config"
	"github.com/tauraamui/framebridge/pkg/configdef"
	db "github.com/tauraamui/framebridge/pkg/database"
	"github.com/tauraamui/framebridge/pkg/database/repos"
	"github.com/tauraamui/framebridge/pkg/log"
)

const (
	name        = "framebridge"
	description = "Frame bridge service which publishes camera capture sessions as RGBA frame buffers"
)

type Service struct {
	daemon.Daemon
}

// Setup writes the default config and creates the user DB, asking for
// root admin credentials.
func (service *Service) Setup() (string, error) {
	log.Info("Setting up framebridge service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	err = db.Setup()
	if err != nil {
		if !errors.Is(err, db.ErrDBAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) RemoveSetup() (string, error) {
	log.Info("Removing setup for framebridge service...")
	if err := db.Destroy(); err != nil {
		log.Error("unable to delete database file: %s", err.Error())
	}

	if err := config.DefaultDestroyer().Destroy(); err != nil {
		log.Error("unable to delete config file: %s", err.Error())
	}

	return "Removing setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: framebridge setup | remove-setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "remove-setup":
			return service.RemoveSetup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info("Starting framebridge...")

	server := bridge.NewServer(config.DefaultResolver(), capture.Resolve(os.Getenv("FRAMEBRIDGE_CAPTURE_BACKEND")))
	if err := server.LoadConfiguration(); err != nil {
		return "", err
	}

	rpcServer := startRPC(interrupt, server)

	ctx, cancelStartup := context.WithCancel(context.Background())
	go startupServer(ctx, server)

	killSignal := <-interrupt
	fmt.Print("\r")
	log.Error("Received signal: %s", killSignal)

	cancelStartup()
	if rpcServer != nil {
		if err := api.ShutdownRPC(rpcServer); err != nil {
			log.Error(err.Error())
		}
	}

	log.Info("Shutting down server...")
	<-server.Shutdown()

	return "Shutdown successful... BYE! 👋", nil
}

func startRPC(interrupt chan os.Signal, server bridge.Server) *api.BridgeServer {
	cfg := server.Config()
	if len(cfg.Secret) == 0 {
		log.Warn("No signing secret configured... RPC disabled...")
		return nil
	}

	conn, err := db.Connect()
	if err != nil {
		log.Error("unable to connect to DB, try running the setup: %s", err.Error())
		return nil
	}

	rpcServer := api.New(interrupt, server, &repos.UserRepository{DB: conn}, api.Options{
		RPCListenAddr: cfg.RPCListenAddr,
		SigningSecret: cfg.Secret,
	})
	if err := api.StartRPC(rpcServer); err != nil {
		log.Error(err.Error())
		return nil
	}
	return rpcServer
}

func startupServer(ctx context.Context, server bridge.Server) {
	for _, err := range server.ConnectWithCancel(ctx) {
		log.Error(err.Error())
	}
	for _, err := range server.Play(ctx) {
		log.Error(err.Error())
	}
	server.SetupProcesses()
	server.RunProcesses()
}

func init() {
	log.Configure(os.Getenv("FRAMEBRIDGE_LOGGING_LEVEL"))
}

func main() {
	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	log.Info(status)
}
