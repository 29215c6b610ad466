// Command pinball runs one board: it parses a board file, drives the
// simulation at the frame cadence, and optionally connects to a relay so the
// board can be joined edge-to-edge with others.
//
// Usage: pinball [--host H] [--port P] [FILE]
//
// Without --host the board plays standalone. Typing "quit" ends the game,
// sending a graceful quit upstream first when connected.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/client"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/config"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/parser"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/render"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/sim"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	host := flag.String("host", "", "relay hostname; empty for standalone play")
	port := flag.Int("port", cfg.DefaultRelayPort, "relay port")
	flag.Parse()

	if *port < 0 || *port > 65535 {
		fmt.Fprintf(os.Stderr, "pinball: port %d out of range\n", *port)
		os.Exit(2)
	}
	file := cfg.DefaultBoardFile
	switch flag.NArg() {
	case 0:
	case 1:
		file = flag.Arg(0)
	default:
		fmt.Fprintln(os.Stderr, "usage: pinball [--host H] [--port P] [FILE]")
		os.Exit(2)
	}

	bd, err := parser.ParseFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pinball: %v\n", err)
		os.Exit(1)
	}
	log.Printf("[PINBALL] loaded board %q from %s", bd.Name(), file)

	engine := sim.New(bd, sim.WithInterval(cfg.FrameInterval))

	var session *client.Session
	if *host != "" {
		session, err = client.Dial(*host, *port, engine)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pinball: %v\n", err)
			os.Exit(1)
		}
		engine.SetSender(session)
		log.Printf("[PINBALL] connected to relay %s:%d", *host, *port)
	}

	if cfg.SnapshotAddr != "" {
		hub := render.NewHub(engine)
		engine.SetFrameCallback(hub.Broadcast)
		go func() {
			if err := hub.Serve(cfg.SnapshotAddr); err != nil {
				log.Printf("[PINBALL] snapshot stream stopped: %v", err)
			}
		}()
		log.Printf("[PINBALL] snapshot stream on %s", cfg.SnapshotAddr)
	}

	go engine.Run()
	defer engine.Stop()

	// Block on the operator console until quit.
	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		if stdin.Text() == "quit" {
			break
		}
	}
	if session != nil {
		session.Quit()
	}
	log.Printf("[PINBALL] goodbye")
}
