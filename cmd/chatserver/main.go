// Command chatserver is a minimal chat room server built on top of sio,
// exercising namespaces, rooms, broadcast exclusion and (optionally) a
// Redis-backed channel.Layer for multi-instance deployments.
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	flag "github.com/spf13/pflag"

	sio "github.com/kamros/sio"
	"github.com/kamros/sio/channel"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:3000", "address to listen on")
		redisAddr  = flag.String("redis-addr", "", "Redis address for cross-instance broadcast; local-only if empty")
		redisDB    = flag.Int("redis-db", 0, "Redis database index")
		gzip       = flag.Bool("gzip", true, "gzip-compress HTTP responses")
		pingPeriod = flag.Duration("ping-interval", 25*time.Second, "Engine.IO ping interval")
	)
	flag.Parse()

	config := &sio.ServerConfig{}
	config.EIO.PingInterval = *pingPeriod

	if *redisAddr != "" {
		layer, err := channel.NewRedisLayer(channel.RedisLayerOptions{
			Addr: *redisAddr,
			DB:   *redisDB,
		})
		if err != nil {
			log.Fatalf("chatserver: could not connect to redis: %v", err)
		}
		config.ChannelLayer = layer
		fmt.Printf("chatserver: broadcasting via redis at %s\n", *redisAddr)
	} else {
		config.ChannelLayer = channel.NewMemoryLayer()
	}

	server := sio.NewServer(config)

	api := newChatAPI()
	api.setup(server.Of("/"))

	if err := server.Run(); err != nil {
		log.Fatalln(err)
	}

	var handler http.Handler = server
	if *gzip {
		handler = gziphandler.GzipHandler(handler)
	}

	router := http.NewServeMux()
	router.Handle("/socket.io/", handler)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: router,

		ReadTimeout: 120 * time.Second,
		IdleTimeout: 120 * time.Second,

		// HTTPWriteTimeout returns the poll timeout plus a margin for
		// writing the response; anything shorter fails long polls.
		WriteTimeout: server.HTTPWriteTimeout(),
	}

	fmt.Printf("chatserver: listening on %s\n", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalln(err)
	}
}
