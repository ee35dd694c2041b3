package voice

import (
	"strings"
	"sync"
	"time"
)

// Recognizer is a continuous speech-to-text source. Implementations push
// transcript updates into the listener; this package never touches audio.
type Recognizer interface {
	// Start begins recognition, delivering updates to the callback.
	Start(onTranscript func(text string)) error
	// Stop ends recognition.
	Stop() error
}

// NopRecognizer never produces transcripts. It stands in when no
// speech-to-text engine is wired up, keeping voice mode inert but safe.
type NopRecognizer struct{}

func (NopRecognizer) Start(func(text string)) error { return nil }
func (NopRecognizer) Stop() error                   { return nil }

// Listener wraps a recognizer with the auto-send debounce: after the last
// transcript update, an idle window must elapse before the transcript is
// handed to onSend. Every update resets the window.
type Listener struct {
	mu         sync.Mutex
	recognizer Recognizer
	idle       time.Duration
	onSend     func(text string)
	// onUpdate mirrors the live transcript into the input field; nil
	// allowed. It runs synchronously on the recognizer's goroutine, in
	// delivery order, so it must not call back into the listener.
	onUpdate func(text string)

	listening  bool
	transcript string
	timer      *time.Timer
}

// NewListener builds a listener with the given idle window.
func NewListener(recognizer Recognizer, idle time.Duration, onSend, onUpdate func(text string)) *Listener {
	return &Listener{recognizer: recognizer, idle: idle, onSend: onSend, onUpdate: onUpdate}
}

// Start begins listening. Restarting resets the transcript.
func (l *Listener) Start() error {
	l.mu.Lock()
	if l.listening {
		l.mu.Unlock()
		return nil
	}
	l.listening = true
	l.transcript = ""
	l.mu.Unlock()

	return l.recognizer.Start(l.update)
}

// Stop ends listening without sending whatever was recognized.
func (l *Listener) Stop() error {
	l.mu.Lock()
	l.listening = false
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.mu.Unlock()

	return l.recognizer.Stop()
}

// Listening reports whether recognition is active.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// Transcript returns the text recognized so far.
func (l *Listener) Transcript() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transcript
}

func (l *Listener) update(text string) {
	l.mu.Lock()
	if !l.listening {
		l.mu.Unlock()
		return
	}
	l.transcript = text
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.idle, l.fire)
	onUpdate := l.onUpdate
	l.mu.Unlock()

	// Delivered on the recognizer's goroutine so rapid updates cannot
	// overtake each other on the way to the input field.
	if onUpdate != nil {
		onUpdate(text)
	}
}

// fire runs when the idle window elapses with no further updates.
func (l *Listener) fire() {
	l.mu.Lock()
	if !l.listening {
		l.mu.Unlock()
		return
	}
	l.listening = false
	l.timer = nil
	text := strings.TrimSpace(l.transcript)
	l.mu.Unlock()

	_ = l.recognizer.Stop()
	if text != "" {
		l.onSend(text)
	}
}
