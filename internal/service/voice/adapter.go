// Package voice converts assistant replies to speech and recognized speech
// to outgoing messages. Platform audio sits behind small interfaces; this
// package owns the language heuristic, emoji stripping, and the idle timer.
package voice

import (
	"encoding/base64"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
)

// Utterance is a prepared text-to-speech request.
type Utterance struct {
	Text     string
	Language string
	// Pitch is 1.0 by default and bumped slightly for exclamations.
	Pitch float64
}

// Speaker plays synthesized or pre-rendered audio.
type Speaker interface {
	// PlayAudio plays a raw audio payload supplied by the backend.
	PlayAudio(data []byte) error
	// Speak synthesizes and plays the utterance.
	Speak(u Utterance) error
}

// LogSpeaker is the default Speaker: it only logs what would be played.
type LogSpeaker struct{}

func (LogSpeaker) PlayAudio(data []byte) error {
	log.Printf("[voice] would play %d bytes of backend audio", len(data))
	return nil
}

func (LogSpeaker) Speak(u Utterance) error {
	log.Printf("[voice] would speak lang=%s pitch=%.1f: %s", u.Language, u.Pitch, u.Text)
	return nil
}

var emojiPattern = regexp.MustCompile(`[\x{1F300}-\x{1F5FF}\x{1F600}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{1F900}-\x{1F9FF}\x{1F1E6}-\x{1F1FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{FE00}-\x{FE0F}\x{200D}]`)

// StripEmoji removes emoji ranges so speech synthesis does not read them out.
func StripEmoji(text string) string {
	return strings.TrimSpace(emojiPattern.ReplaceAllString(text, ""))
}

// Adapter routes reply audio to the speaker. A muted adapter drops
// everything silently.
type Adapter struct {
	mu          sync.Mutex
	speaker     Speaker
	muted       bool
	defaultLang string
}

// NewAdapter builds an adapter over the given speaker.
func NewAdapter(speaker Speaker, muted bool, defaultLang string) *Adapter {
	if defaultLang == "" {
		defaultLang = "en-US"
	}
	return &Adapter{speaker: speaker, muted: muted, defaultLang: defaultLang}
}

// SetMuted toggles global playback suppression.
func (a *Adapter) SetMuted(muted bool) {
	a.mu.Lock()
	a.muted = muted
	a.mu.Unlock()
}

// Muted reports the current mute state.
func (a *Adapter) Muted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted
}

// Play voices a reply. Backend-supplied base64 audio wins; otherwise the
// text is cleaned, the language guessed, and the speaker synthesizes it.
func (a *Adapter) Play(text, audioB64 string) error {
	if a.Muted() {
		return nil
	}

	if audioB64 != "" {
		data, err := base64.StdEncoding.DecodeString(audioB64)
		if err != nil {
			return fmt.Errorf("decode reply audio: %w", err)
		}
		return a.speaker.PlayAudio(data)
	}

	cleaned := StripEmoji(text)
	if cleaned == "" {
		return nil
	}

	u := Utterance{
		Text:     cleaned,
		Language: DetectLanguage(cleaned, a.defaultLang),
		Pitch:    1.0,
	}
	if strings.Contains(cleaned, "!") {
		u.Pitch = 1.2
	}
	return a.speaker.Speak(u)
}
