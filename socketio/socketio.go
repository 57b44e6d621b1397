package socketio

import (
	"context"
	"time"

	"portal-chat/logger"
	"portal-chat/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type Options struct {
	// Redis carries the adapter across instances; nil keeps rooms local.
	Redis *redis.Client
	// Key verifies the ?token= access token.
	Key []byte
	// MaxMessageBytes bounds one packet, attachments included.
	MaxMessageBytes int64
	// Zero intervals fall back to 25s ping and 20s timeout.
	PingInterval time.Duration
	PingTimeout  time.Duration
	Debug        bool
}

// Init mounts socket.io on app. Connections without a valid token are
// refused; accepted ones join the room of their user and carry the token
// metadata as socket data.
func Init(app *fiber.App, opts Options) *socket.Server {
	log.DEBUG = opts.Debug
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 20 * time.Second
	}

	options := socket.DefaultServerOptions()
	options.SetServeClient(true)
	options.SetAllowEIO3(true)
	options.SetPingInterval(opts.PingInterval)
	options.SetPingTimeout(opts.PingTimeout)
	options.SetMaxHttpBufferSize(opts.MaxMessageBytes)
	options.SetConnectTimeout(10 * time.Second)
	if opts.Redis != nil {
		options.SetAdapter(&adapter.RedisAdapterBuilder{
			Redis: r_type.NewRedisClient(context.Background(), opts.Redis),
			Opts:  &adapter.RedisAdapterOptions{},
		})
	}

	server := socket.NewServer(nil, nil)

	server.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token, ok := client.Conn().Request().Query().Get("token")
		if !ok {
			next(socket.NewExtendedError("Missing or malformed JWT", nil))
			return
		}

		claims, err := utils.CheckAndExtractTokenMetadata(token, opts.Key)
		if err != nil {
			logger.Debug().Err(err).Msg("socket token rejected")
			next(socket.NewExtendedError("Invalid or expired JWT", nil))
			return
		}

		client.Join(socket.Room(claims.UserID))
		client.SetData(claims)
		next(nil)
	})

	// one engine for both polling verbs
	handler := adaptor.HTTPHandler(server.ServeHandler(options))
	app.Get("/socket.io/", handler)
	app.Post("/socket.io/", handler)

	return server
}
