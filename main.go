package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portal-chat/attachment"
	"portal-chat/config"
	"portal-chat/controller"
	"portal-chat/database"
	"portal-chat/event"
	"portal-chat/feed"
	"portal-chat/logger"
	"portal-chat/middleware"
	"portal-chat/router"
	"portal-chat/socketio"
	"portal-chat/storage"
	"portal-chat/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	env := config.ConfigDefault("APP_ENV", "production")
	logger.Init(env)
	ctx := context.Background()

	port := config.ConfigDefault("SERVER_PORT", "3000")
	policy := attachment.PolicyFor(
		config.Config("CHAT_ATTACHMENT_POLICY"),
		config.ConfigInt64("CHAT_ATTACHMENT_MAX_BYTES", attachment.DefaultMaxBytes),
	)

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "portal-chat",
		BodyLimit:             int(policy.MaxBytes) + 1<<20,
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	upstream, upstreamCloser := connectFeed()
	hub := feed.NewHub(upstream)
	if err := hub.Start(ctx); err != nil {
		panic(fmt.Sprintf("failed to subscribe to chat feed: %v", err))
	}

	objects, memObjects := connectStorage(ctx, port)

	store := database.NewStore(database.Postgres, hub)
	uploader := attachment.NewUploader(objects, config.ConfigDefault("CHAT_BUCKET", storage.BucketChatFiles), policy)
	previews := attachment.NewPreviews("/v1/chat/previews")
	enforcer := database.Casbin(database.Postgres)
	key := utils.SigningKey()

	router.Rest(rest, &controller.Chat{
		Store:    store,
		Uploader: uploader,
		Previews: previews,
		Objects:  memObjects,
	}, middleware.JWT(key), middleware.RBAC(enforcer, store))

	socket := socketio.Init(rest, socketio.Options{
		Redis:           database.RedisClient(database.RedisSocketDB),
		Key:             key,
		MaxMessageBytes: policy.MaxBytes*4/3 + 64<<10,
		PingInterval:    config.ConfigDuration("SOCKET_PING_INTERVAL", 25*time.Second),
		PingTimeout:     config.ConfigDuration("SOCKET_PING_TIMEOUT", 20*time.Second),
		Debug:           config.ConfigBool("SOCKET_DEBUG", env == "development"),
	})
	router.Socket(socket, router.SocketDeps{
		Store:    store,
		Uploader: uploader,
		Feed:     hub,
		Previews: previews,
		Location: time.Local,
	})

	go func() {
		if err := rest.Listen(fmt.Sprintf(":%s", port)); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()
	logger.Info().Str("port", port).Msg("portal-chat started")

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logger.Info().Msg("shutting down")
	socket.Close(nil)
	if err := rest.ShutdownWithTimeout(config.ConfigDuration("SHUTDOWN_TIMEOUT", 10*time.Second)); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if err := hub.Close(); err != nil {
		logger.Warn().Err(err).Msg("close chat feed")
	}
	if upstreamCloser != nil {
		upstreamCloser.Close()
	}
	database.RedisClose()
	os.Exit(0)
}

// connectFeed picks the change feed backend from FEED_DRIVER.
func connectFeed() (feed.Feed, io.Closer) {
	channel := config.ConfigDefault("FEED_CHANNEL", feed.DefaultChannel)

	switch driver := config.ConfigDefault("FEED_DRIVER", "redis"); driver {
	case "redis":
		return feed.NewRedis(database.RedisClient(database.RedisFeedDB), channel), nil
	case "rabbitmq":
		mq, err := event.RabbitMQConnect(event.RabbitMQURL(), channel)
		if err != nil {
			panic(err)
		}
		return mq, mq
	case "memory":
		m := feed.NewMemory()
		return m, m
	default:
		panic(fmt.Sprintf("unknown FEED_DRIVER %q", driver))
	}
}

// connectStorage picks the object store from STORAGE_DRIVER. The in-memory
// store is also returned so its files can be served over HTTP.
func connectStorage(ctx context.Context, port string) (storage.ObjectStore, *storage.Memory) {
	switch driver := config.ConfigDefault("STORAGE_DRIVER", "s3"); driver {
	case "s3":
		s3, err := storage.NewS3(ctx, storage.S3Options{
			Endpoint:  config.Config("S3_ENDPOINT"),
			Region:    config.ConfigDefault("S3_REGION", "us-east-1"),
			AccessKey: config.Config("S3_ACCESS_KEY"),
			SecretKey: config.Config("S3_SECRET_KEY"),
			PublicURL: config.Config("S3_PUBLIC_URL"),
		})
		if err != nil {
			panic(fmt.Sprintf("failed to configure object storage: %v", err))
		}
		return s3, nil
	case "memory":
		m := storage.NewMemory(config.ConfigDefault("S3_PUBLIC_URL", fmt.Sprintf("http://localhost:%s/storage", port)))
		return m, m
	default:
		panic(fmt.Sprintf("unknown STORAGE_DRIVER %q", driver))
	}
}
