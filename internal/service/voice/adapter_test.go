package voice_test

import (
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/answer24/supportchat/internal/service/voice"
)

type recordingSpeaker struct {
	mu     sync.Mutex
	audio  [][]byte
	spoken []voice.Utterance
}

func (r *recordingSpeaker) PlayAudio(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio = append(r.audio, data)
	return nil
}

func (r *recordingSpeaker) Speak(u voice.Utterance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, u)
	return nil
}

func TestPlayPrefersBackendAudio(t *testing.T) {
	speaker := &recordingSpeaker{}
	adapter := voice.NewAdapter(speaker, false, "en-US")

	payload := base64.StdEncoding.EncodeToString([]byte("RIFFaudio"))
	if err := adapter.Play("ignored text", payload); err != nil {
		t.Fatalf("Play err: %v", err)
	}

	if len(speaker.audio) != 1 || string(speaker.audio[0]) != "RIFFaudio" {
		t.Fatalf("backend audio not played: %+v", speaker.audio)
	}
	if len(speaker.spoken) != 0 {
		t.Fatal("text must not be synthesized when backend audio exists")
	}
}

func TestPlayRejectsBadBase64(t *testing.T) {
	adapter := voice.NewAdapter(&recordingSpeaker{}, false, "en-US")
	if err := adapter.Play("text", "%%%not-base64%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPlaySynthesizesCleanedText(t *testing.T) {
	speaker := &recordingSpeaker{}
	adapter := voice.NewAdapter(speaker, false, "en-US")

	if err := adapter.Play("Great choice! \U0001F6A4\U0001F389", ""); err != nil {
		t.Fatalf("Play err: %v", err)
	}

	if len(speaker.spoken) != 1 {
		t.Fatalf("expected one utterance, got %d", len(speaker.spoken))
	}
	u := speaker.spoken[0]
	if u.Text != "Great choice!" {
		t.Fatalf("emoji not stripped: %q", u.Text)
	}
	if u.Pitch != 1.2 {
		t.Fatalf("exclamation should bump pitch, got %.2f", u.Pitch)
	}
	if u.Language != "en-US" {
		t.Fatalf("unexpected language: %s", u.Language)
	}
}

func TestPlayDetectsDutch(t *testing.T) {
	speaker := &recordingSpeaker{}
	adapter := voice.NewAdapter(speaker, false, "en-US")

	if err := adapter.Play("Hallo, ik wil graag een boot huren", ""); err != nil {
		t.Fatalf("Play err: %v", err)
	}

	if speaker.spoken[0].Language != "nl-NL" {
		t.Fatalf("Dutch not detected: %s", speaker.spoken[0].Language)
	}
}

func TestPlayMutedDropsEverything(t *testing.T) {
	speaker := &recordingSpeaker{}
	adapter := voice.NewAdapter(speaker, true, "en-US")

	if err := adapter.Play("hello", base64.StdEncoding.EncodeToString([]byte("x"))); err != nil {
		t.Fatalf("Play err: %v", err)
	}
	if len(speaker.audio) != 0 || len(speaker.spoken) != 0 {
		t.Fatal("muted adapter must not play anything")
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Where is my order?", "en-US"},
		{"Hoe gaat het? Ik heb een vraag", "nl-NL"},
		{"Kunt u mij helpen, alstublieft?", "nl-NL"},
		{"The het single word", "en-US"},
		{"", "en-US"},
	}
	for _, tc := range cases {
		if got := voice.DetectLanguage(tc.text, "en-US"); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

type fakeRecognizer struct {
	mu       sync.Mutex
	deliver  func(string)
	stopped  int
	started  int
	startErr error
}

func (f *fakeRecognizer) Start(onTranscript func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	f.deliver = onTranscript
	return f.startErr
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakeRecognizer) emit(text string) {
	f.mu.Lock()
	deliver := f.deliver
	f.mu.Unlock()
	if deliver != nil {
		deliver(text)
	}
}

func TestListenerDebouncesUntilLastUpdate(t *testing.T) {
	recognizer := &fakeRecognizer{}
	sent := make(chan string, 1)

	listener := voice.NewListener(recognizer, 80*time.Millisecond, func(text string) {
		sent <- text
	}, nil)

	if err := listener.Start(); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	// Updates spaced inside the idle window must keep postponing the send.
	recognizer.emit("where")
	time.Sleep(30 * time.Millisecond)
	recognizer.emit("where is")
	time.Sleep(30 * time.Millisecond)
	recognizer.emit("where is my order")

	select {
	case text := <-sent:
		t.Fatalf("send fired before the idle window elapsed: %q", text)
	case <-time.After(40 * time.Millisecond):
	}

	select {
	case text := <-sent:
		if text != "where is my order" {
			t.Fatalf("expected final transcript, got %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("auto-send never fired")
	}

	if listener.Listening() {
		t.Fatal("listener must stop after auto-send")
	}
}

func TestListenerEmptyTranscriptDoesNotSend(t *testing.T) {
	recognizer := &fakeRecognizer{}
	sent := make(chan string, 1)

	listener := voice.NewListener(recognizer, 20*time.Millisecond, func(text string) {
		sent <- text
	}, nil)

	if err := listener.Start(); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	recognizer.emit("   ")

	select {
	case text := <-sent:
		t.Fatalf("blank transcript must not send, got %q", text)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenerRestartResetsTranscript(t *testing.T) {
	recognizer := &fakeRecognizer{}
	listener := voice.NewListener(recognizer, time.Hour, func(string) {}, nil)

	if err := listener.Start(); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	recognizer.emit("stale words")
	if err := listener.Stop(); err != nil {
		t.Fatalf("Stop err: %v", err)
	}

	if err := listener.Start(); err != nil {
		t.Fatalf("restart err: %v", err)
	}
	if got := listener.Transcript(); got != "" {
		t.Fatalf("transcript not reset on restart: %q", got)
	}
}

func TestListenerTranscriptUpdatesInOrder(t *testing.T) {
	recognizer := &fakeRecognizer{}
	var updates []string

	listener := voice.NewListener(recognizer, time.Hour, func(string) {}, func(text string) {
		updates = append(updates, text)
	})

	if err := listener.Start(); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	// Rapid bursts must reach the UI exactly as delivered; a later
	// transcript overwritten by an earlier one would corrupt the input.
	want := []string{"w", "wh", "whe", "wher", "where", "where is my order"}
	for _, text := range want {
		recognizer.emit(text)
	}

	if len(updates) != len(want) {
		t.Fatalf("expected %d updates, got %d", len(want), len(updates))
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Fatalf("update %d out of order: got %q want %q", i, updates[i], want[i])
		}
	}
	if got := listener.Transcript(); got != "where is my order" {
		t.Fatalf("transcript mismatch: %q", got)
	}
}

func TestListenerStopCancelsPendingSend(t *testing.T) {
	recognizer := &fakeRecognizer{}
	sent := make(chan string, 1)

	listener := voice.NewListener(recognizer, 30*time.Millisecond, func(text string) {
		sent <- text
	}, nil)

	if err := listener.Start(); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	recognizer.emit("about to be cancelled")
	if err := listener.Stop(); err != nil {
		t.Fatalf("Stop err: %v", err)
	}

	select {
	case text := <-sent:
		t.Fatalf("send fired after Stop: %q", text)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStripEmoji(t *testing.T) {
	got := voice.StripEmoji("Ahoy \U0001F44B welcome aboard ⛵")
	if got != "Ahoy  welcome aboard" {
		t.Fatalf("unexpected result: %q", got)
	}
}
