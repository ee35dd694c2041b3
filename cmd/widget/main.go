package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/answer24/supportchat/internal/api"
	"github.com/answer24/supportchat/internal/config"
	"github.com/answer24/supportchat/internal/service/escalation"
	"github.com/answer24/supportchat/internal/service/send"
	"github.com/answer24/supportchat/internal/service/session"
	"github.com/answer24/supportchat/internal/service/voice"
	"github.com/answer24/supportchat/internal/ui"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Route logs to a file so they do not tear the terminal UI.
	logFile, err := tea.LogToFile("supportchat.log", "widget")
	if err == nil {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	client := api.NewClient(cfg.Widget.BaseURL, cfg.Widget.Token, cfg.Widget.HTTPTimeout)
	store := session.NewStore(client)
	controller := escalation.NewController(store, client, cfg.Widget.DislikeThreshold)
	adapter := voice.NewAdapter(voice.LogSpeaker{}, cfg.Voice.Muted, cfg.Voice.DefaultLanguage)
	pipeline := send.NewPipeline(store, client, adapter, cfg.Voice.DefaultLanguage)

	model := ui.NewModel(ui.Deps{
		Client:       client,
		Store:        store,
		Controller:   controller,
		Pipeline:     pipeline,
		Adapter:      adapter,
		Recognizer:   voice.NopRecognizer{},
		VoiceIdle:    cfg.Voice.IdleTimeout,
		PollInterval: cfg.Widget.PollInterval,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "widget error: %v\n", err)
		os.Exit(1)
	}
}
