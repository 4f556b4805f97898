/*
Roles of server:
- Edit recordings over HTTP and replay saved edits via websocket
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qnkhuat/castedit/internal/cfg"
	"github.com/qnkhuat/castedit/internal/logging"
	"github.com/qnkhuat/castedit/pkg/journal"
	"github.com/qnkhuat/castedit/pkg/server"
)

func main() {
	var dbPath = flag.String("db", "castedit.db", "Path to journal database")
	var host = flag.String("host", "localhost:3000", "Host address to serve server")
	var logPath = flag.String("log", "", "Log file, empty to log to stderr")
	var version = flag.Bool("version", false, fmt.Sprintf("castedit server version: %s", cfg.CASTEDIT_VERSION))

	flag.Parse()

	if *version {
		fmt.Printf("castedit server %s\n", cfg.CASTEDIT_VERSION)
		os.Exit(0)
	}

	logging.Config(*logPath, "SERVER: ")

	db, err := journal.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal: %s\n", err)
		log.Printf("Failed to open journal: %s", err)
		os.Exit(1)
	}

	s := server.New(*host, db)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Stop(ctx); err != nil {
			log.Printf("Failed to stop server: %s", err)
		}
	}()

	err = s.Start()
	db.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		log.Print(err)
		os.Exit(1)
	}
}
