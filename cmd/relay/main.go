// Command relay runs the central message router. Boards connect over TCP,
// the operator joins them edge-to-edge from stdin, and an optional HTTP
// status API exposes the roster.
//
// Usage: relay [--port P]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/config"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/relay"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	port := flag.Int("port", cfg.DefaultRelayPort, "port to listen for board connections")
	flag.Parse()

	if *port < 0 || *port > 65535 || flag.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: relay [--port P]")
		os.Exit(2)
	}

	server, err := relay.New(*port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
	log.Printf("[RELAY] listening on port %d", server.Port())

	if cfg.StatusAddr != "" {
		if cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		go func() {
			if err := server.ServeStatus(cfg.StatusAddr); err != nil {
				log.Printf("[RELAY] status API stopped: %v", err)
			}
		}()
		log.Printf("[RELAY] status API on %s", cfg.StatusAddr)
	}

	go server.RunConsole(os.Stdin)

	if err := server.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}
