package logging

import (
	"log"
	"os"
)

// Config routes the standard logger to dest with the given prefix.
// An empty dest keeps logging on stderr.
func Config(dest, prefix string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetPrefix(prefix)
	if dest == "" {
		log.SetOutput(os.Stderr)
		return
	}

	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	log.SetOutput(f)
}
