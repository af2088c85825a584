// Package app wires the relay together: configuration, logging, the durable
// stores, the shared registry, and the TCP listener, plus graceful shutdown.
package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"chat-relay/internal/config"
	"chat-relay/internal/registry"
	"chat-relay/internal/server"
	"chat-relay/internal/store"
)

func Run() {
	cfg := config.Load()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	switch cfg.ProfileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	}

	reg := registry.New()
	users := store.NewUsers(cfg.UsersFile)
	rooms := store.NewRooms(cfg.RoomsFile, reg)

	// The room directory must be loaded before the first client can ask
	// for the room list.
	if err := rooms.Load(); err != nil {
		logrus.WithError(err).Fatal("failed to load room directory")
	}

	srv := server.New(":"+cfg.Port, reg, users, rooms)
	if err := srv.Listen(); err != nil {
		logrus.WithError(err).Fatal("failed to start listener")
	}
	logrus.Infof("chat relay listening on %s", srv.Addr())

	var g errgroup.Group
	g.Go(srv.Serve)
	g.Go(func() error {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logrus.Info("shutting down")
		return srv.Close()
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("server exited with error")
	}
	logrus.Info("server shutdown complete")
}
