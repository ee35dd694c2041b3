// Command agentconsole is a minimal operator tool: it connects to the
// devserver's agent socket, prints the sessions waiting for a human, and
// lets the operator answer them.
//
// Usage:
//
//	agentconsole [-url ws://localhost:8080/api/v1/agent/ws]
//
// Then type:
//
//	reply <session-id> <text...>
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	chat "github.com/answer24/supportchat/internal/model/chat"
)

type snapshotEnvelope struct {
	Type     string         `json:"type"`
	Sessions []chat.Session `json:"sessions"`
}

type agentCommand struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

func main() {
	url := flag.String("url", "ws://localhost:8080/api/v1/agent/ws", "devserver agent socket URL")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	header := http.Header{}
	if token := strings.TrimSpace(os.Getenv("AUTH_TOKEN")); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, header)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *url, err)
	}
	defer conn.Close()

	log.Printf("connected to %s", *url)
	log.Println(`answer sessions with: reply <session-id> <text>`)

	go readSnapshots(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, " ", 3)
		if len(fields) != 3 || fields[0] != "reply" {
			fmt.Println("usage: reply <session-id> <text>")
			continue
		}

		cmd := agentCommand{Type: "reply", SessionID: fields[1], Text: fields[2]}
		if err := conn.WriteJSON(cmd); err != nil {
			log.Fatalf("failed to send reply: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin error: %v", err)
	}
}

// readSnapshots prints each human-mode snapshot as it arrives.
func readSnapshots(conn *websocket.Conn) {
	for {
		var envelope snapshotEnvelope
		if err := conn.ReadJSON(&envelope); err != nil {
			log.Fatalf("connection closed: %v", err)
		}
		if envelope.Type != "sessions" {
			continue
		}

		if len(envelope.Sessions) == 0 {
			fmt.Println("-- no sessions waiting for a human --")
			continue
		}

		fmt.Printf("-- %d session(s) waiting --\n", len(envelope.Sessions))
		for _, s := range envelope.Sessions {
			last := ""
			if n := len(s.Messages); n > 0 {
				last = s.Messages[n-1].Content
			}
			fmt.Printf("  %s  %-30q  last: %q\n", s.ID, s.Title, last)
		}
	}
}
