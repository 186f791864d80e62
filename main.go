package main

import (
	"bitwise74/docs-api/api"
	"bitwise74/docs-api/config"
	"bitwise74/docs-api/db"
	"bitwise74/docs-api/internal"
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/service"
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	createUser = pflag.String("create-user", "", "Create a user with this name and exit")
	password   = pflag.String("password", "", "Password of the user created with --create-user")
)

func main() {
	gin.SetMode(gin.ReleaseMode)
	pflag.Parse()

	c, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := api.MakeLogger(c.App.LogLevel); err != nil {
		panic(err)
	}

	conn, err := db.New(&c.Database)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	bus := event.Init(c.Events.Workers, c.Events.QueueSize)

	d, err := internal.NewDeps(ctx, c, conn, bus)
	if err != nil {
		panic(err)
	}

	if *createUser != "" {
		if _, err := d.CreateUser(ctx, *createUser, *password, c.Storage.DefaultQuota); err != nil {
			zap.L().Fatal("Failed to create user", zap.Error(err))
		}
		return
	}

	cleanup := &service.OrphanCleanup{
		Store: d.Store,
		Bus:   bus,
		TTL:   c.Storage.OrphanTTL,
	}

	cr, err := cleanup.Schedule(c.Storage.CleanupSchedule)
	if err != nil {
		panic(err)
	}
	defer cr.Stop()

	a := api.NewRouter(c, d)

	zap.L().Info("Server starting", zap.Int("port", c.Host.Port))

	err = a.Router.Run(fmt.Sprintf(":%d", c.Host.Port))
	if err != nil {
		panic(err)
	}
}
