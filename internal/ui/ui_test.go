package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/musicbox/internal/formatter"
	"github.com/desertthunder/musicbox/internal/forms"
	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/notify"
	"github.com/desertthunder/musicbox/internal/player"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/tasks"
)

type fakeAuth struct {
	mu       sync.Mutex
	session  models.Session
	loaded   models.Session
	result   models.AuthResult
	err      error
	logouts  int
	lastUser string
}

func (f *fakeAuth) Load(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = f.loaded
}

func (f *fakeAuth) Session() models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeAuth) Token() string { return f.Session().Token }

func (f *fakeAuth) Login(_ context.Context, email, _ string) (models.AuthResult, error) {
	return f.authenticate(email)
}

func (f *fakeAuth) Register(_ context.Context, email, _ string) (models.AuthResult, error) {
	return f.authenticate(email)
}

func (f *fakeAuth) authenticate(email string) (models.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = email
	if f.err != nil {
		return models.AuthResult{}, f.err
	}
	if f.result.Token != "" {
		f.session = models.Session{Token: f.result.Token, User: &models.User{Email: email}}
	}
	return f.result, nil
}

func (f *fakeAuth) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.session = models.Session{}
}

func (f *fakeAuth) Subscribe(func(models.Session)) func() { return func() {} }

type fakeLibrary struct {
	tracks []models.Track
	err    error
	tokens []string
}

func (f *fakeLibrary) ListSongs(_ context.Context, token string) ([]models.Track, error) {
	f.tokens = append(f.tokens, token)
	return f.tracks, f.err
}

type fakeUploader struct {
	paths []string
	err   error
}

func (f *fakeUploader) UploadFile(_ context.Context, path, _, title, artist string) tasks.FileUploadResult {
	f.paths = append(f.paths, path)
	res := tasks.FileUploadResult{Path: path, Title: title, Artist: artist, Error: f.err}
	if f.err == nil {
		res.Track = &models.Track{ID: "9", Title: title}
	}
	return res
}

type fakeHandle struct {
	mu      sync.Mutex
	source  string
	paused  bool
	onEnded func()
}

func (h *fakeHandle) SetSource(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = url
	h.paused = true
	return nil
}

func (h *fakeHandle) Play(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = false
	return nil
}

func (h *fakeHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
}

func (h *fakeHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *fakeHandle) OnEnded(fn func()) { h.onEnded = fn }
func (h *fakeHandle) Close() error      { return nil }

type harness struct {
	model    *Model
	auth     *fakeAuth
	library  *fakeLibrary
	uploader *fakeUploader
	handle   *fakeHandle
	bus      *notify.Bus
}

func newHarness(t *testing.T, loaded models.Session) *harness {
	t.Helper()

	h := &harness{
		auth:     &fakeAuth{session: models.Session{Initializing: true}, loaded: loaded},
		library:  &fakeLibrary{},
		uploader: &fakeUploader{},
		handle:   &fakeHandle{paused: true},
		bus:      notify.NewBus(0, nil),
	}
	streamURL := func(id string) string { return "http://api.test/songs/" + id + "/stream" }
	p := player.New(h.handle, streamURL, h.bus, nil)

	h.model = NewModel(context.Background(), Deps{
		Auth:     h.auth,
		Library:  h.library,
		Player:   p,
		Bus:      h.bus,
		Uploader: h.uploader,
	})
	h.model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	t.Cleanup(func() {
		h.model.Close()
		h.bus.Close()
	})
	return h
}

// send delivers msg and runs any returned command, feeding Msg results back
// in until the chain settles. Non-Msg results end the chain.
func (h *harness) send(msg tea.Msg) {
	_, cmd := h.model.Update(msg)
	h.run(cmd)
}

func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if next, ok := cmd().(Msg); ok {
		h.send(next)
	}
}

// start loads the session the way Init does.
func (h *harness) start() {
	h.run(h.model.loadSession())
}

func (h *harness) titles() []string {
	var out []string
	for _, n := range h.bus.List() {
		out = append(out, n.Title)
	}
	return out
}

func hasTitle(titles []string, want string) bool {
	for _, title := range titles {
		if title == want {
			return true
		}
	}
	return false
}

func TestRouting(t *testing.T) {
	t.Run("Waits While Session Loads", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		if h.model.ViewState() != WaitView {
			t.Fatalf("expected WaitView, got %v", h.model.ViewState())
		}
		if !strings.Contains(h.model.View(), WaitingText) {
			t.Errorf("expected waiting text in view")
		}
	})

	t.Run("Anonymous Session Redirects To Login", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		h.start()

		if h.model.ViewState() != LoginView {
			t.Fatalf("expected LoginView, got %v", h.model.ViewState())
		}
		if len(h.library.tokens) != 0 {
			t.Errorf("expected no library request, got %d", len(h.library.tokens))
		}
	})

	t.Run("Authenticated Session Renders Library", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok", User: &models.User{Email: "a@b.co"}})
		h.library.tracks = []models.Track{{ID: "1", Title: "Song A"}}
		h.start()

		if h.model.ViewState() != LibraryView {
			t.Fatalf("expected LibraryView, got %v", h.model.ViewState())
		}
		if len(h.library.tokens) != 1 || h.library.tokens[0] != "tok" {
			t.Fatalf("expected one request with token, got %v", h.library.tokens)
		}

		items := h.model.songs.Items()
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		item := items[0].(songItem)
		if item.Title() != "Song A" {
			t.Errorf("expected title Song A, got %q", item.Title())
		}
		if item.Description() != formatter.UnknownArtist {
			t.Errorf("expected %q without duration badge, got %q", formatter.UnknownArtist, item.Description())
		}

		view := h.model.View()
		if !strings.Contains(view, IdleTitle) {
			t.Errorf("expected idle player bar in view")
		}
		if !strings.Contains(view, "a@b.co") {
			t.Errorf("expected signed in email in view")
		}
	})

	t.Run("Logout Returns To Login", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})

		if h.auth.logouts != 1 {
			t.Errorf("expected one logout, got %d", h.auth.logouts)
		}
		if h.model.ViewState() != LoginView {
			t.Errorf("expected LoginView, got %v", h.model.ViewState())
		}
	})
}

func TestLibrary(t *testing.T) {
	t.Run("Empty Library", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.start()

		if !strings.Contains(h.model.View(), formatter.EmptyLibraryMessage) {
			t.Errorf("expected empty library message")
		}
	})

	t.Run("Fetch Error Notifies", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.library.err = &shared.APIError{Message: "Request failed (500 Internal Server Error)", StatusCode: 500}
		h.start()

		if !hasTitle(h.titles(), "Could not load library") {
			t.Errorf("expected error toast, got %v", h.titles())
		}
		if !strings.Contains(h.model.View(), "Request failed (500 Internal Server Error)") {
			t.Errorf("expected error in view")
		}
		if h.auth.logouts != 0 {
			t.Errorf("expected no logout for a 500")
		}
	})

	t.Run("Unauthorized Fetch Signs Out", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "stale"})
		h.library.err = &shared.APIError{Message: "Request failed (401 Unauthorized)", StatusCode: 401}
		h.start()

		if h.auth.logouts != 1 {
			t.Errorf("expected logout after 401, got %d", h.auth.logouts)
		}
	})

	t.Run("Play Selected Song", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.library.tracks = []models.Track{{ID: "1", Title: "Song A"}}
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if h.handle.source != "http://api.test/songs/1/stream" {
			t.Fatalf("expected stream source, got %q", h.handle.source)
		}
		state := h.model.deps.Player.State()
		if !state.IsPlaying || state.CurrentTrack == nil || state.CurrentTrack.Title != "Song A" {
			t.Errorf("expected Song A playing, got %+v", state)
		}
		if !strings.Contains(h.model.View(), "Song A") {
			t.Errorf("expected player bar to show the track")
		}

		h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		if h.model.deps.Player.State().IsPlaying {
			t.Errorf("expected toggle to pause")
		}
	})

	t.Run("Song Without ID Is Rejected", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.library.tracks = []models.Track{{Title: "Broken"}}
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if h.handle.source != "" {
			t.Errorf("expected no source, got %q", h.handle.source)
		}
		if !hasTitle(h.titles(), player.CannotPlayTitle) {
			t.Errorf("expected cannot play toast, got %v", h.titles())
		}
	})

	t.Run("Toggle Without Track", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.start()
		if cmd := h.model.togglePlay(); cmd != nil {
			t.Errorf("expected nil command without a current track")
		}
	})
}

func TestAuthForms(t *testing.T) {
	t.Run("Invalid Input Blocks Submit", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		h.start()
		h.model.login.setValue(forms.FieldEmail, "nope")
		h.model.login.setValue(forms.FieldPassword, "123")

		_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if cmd != nil {
			t.Fatalf("expected no request for invalid input")
		}
		if h.auth.lastUser != "" {
			t.Errorf("expected login not to be called")
		}
		view := h.model.View()
		if !strings.Contains(view, "Enter a valid email address.") {
			t.Errorf("expected email error in view")
		}
		if !strings.Contains(view, "Password must be at least 6 characters.") {
			t.Errorf("expected password error in view")
		}
	})

	t.Run("Login Success", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		h.start()
		h.auth.result = models.AuthResult{Token: "tok"}
		h.model.login.setValue(forms.FieldEmail, " a@b.co ")
		h.model.login.setValue(forms.FieldPassword, "secret1")
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if h.auth.lastUser != "a@b.co" {
			t.Errorf("expected trimmed email, got %q", h.auth.lastUser)
		}
		if h.model.ViewState() != LibraryView {
			t.Errorf("expected LibraryView, got %v", h.model.ViewState())
		}
		if !hasTitle(h.titles(), "Welcome back") {
			t.Errorf("expected welcome toast, got %v", h.titles())
		}
	})

	t.Run("Login Failure Shows Error", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		h.start()
		h.auth.err = &shared.APIError{Message: "Request failed (401 Unauthorized): bad credentials", StatusCode: 401}
		h.model.login.setValue(forms.FieldEmail, "a@b.co")
		h.model.login.setValue(forms.FieldPassword, "secret1")
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if h.model.ViewState() != LoginView {
			t.Errorf("expected LoginView, got %v", h.model.ViewState())
		}
		if !strings.Contains(h.model.View(), "bad credentials") {
			t.Errorf("expected server error in view")
		}
		if !hasTitle(h.titles(), "Login failed") {
			t.Errorf("expected failure toast, got %v", h.titles())
		}
	})

	t.Run("Superseded Result Is Ignored", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		h.start()
		h.send(authDoneMsg(loginForm, "a@b.co", models.AuthResult{}, shared.ErrSuperseded))

		if len(h.bus.List()) != 0 {
			t.Errorf("expected no notifications, got %v", h.titles())
		}
		if h.model.login.serverErr != "" {
			t.Errorf("expected no error, got %q", h.model.login.serverErr)
		}
	})

	t.Run("Register Without Token Prefills Login", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyCtrlN})
		if h.model.ViewState() != RegisterView {
			t.Fatalf("expected RegisterView, got %v", h.model.ViewState())
		}

		h.model.register.setValue(forms.FieldEmail, "new@b.co")
		h.model.register.setValue(forms.FieldPassword, "secret1")
		h.model.register.setValue(forms.FieldConfirm, "secret1")
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if h.model.ViewState() != LoginView {
			t.Fatalf("expected LoginView, got %v", h.model.ViewState())
		}
		if got := h.model.login.value(forms.FieldEmail); got != "new@b.co" {
			t.Errorf("expected prefilled email, got %q", got)
		}
		if !hasTitle(h.titles(), "Account created") {
			t.Errorf("expected account toast, got %v", h.titles())
		}
	})

	t.Run("Register Mismatched Confirm", func(t *testing.T) {
		h := newHarness(t, models.Session{})
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyCtrlN})
		h.model.register.setValue(forms.FieldEmail, "new@b.co")
		h.model.register.setValue(forms.FieldPassword, "secret1")
		h.model.register.setValue(forms.FieldConfirm, "secret2")
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if h.auth.lastUser != "" {
			t.Errorf("expected register not to be called")
		}
		if !strings.Contains(h.model.View(), "Passwords do not match.") {
			t.Errorf("expected confirm error in view")
		}
	})
}

func TestUploadForm(t *testing.T) {
	t.Run("Rejects Non MP3", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
		if h.model.ViewState() != UploadView {
			t.Fatalf("expected UploadView, got %v", h.model.ViewState())
		}

		h.model.upload.setValue(forms.FieldFile, "notes.txt")
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if len(h.uploader.paths) != 0 {
			t.Errorf("expected no upload, got %v", h.uploader.paths)
		}
		if !strings.Contains(h.model.View(), "Only .mp3 files are supported.") {
			t.Errorf("expected file error in view")
		}
	})

	t.Run("Upload Success Refreshes Library", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})

		path := t.TempDir() + "/song.mp3"
		h.model.upload.setValue(forms.FieldFile, path)
		h.model.upload.setValue("title", "My Song")
		h.library.tracks = []models.Track{{ID: "9", Title: "My Song"}}
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if len(h.uploader.paths) != 1 || h.uploader.paths[0] != path {
			t.Fatalf("expected upload of %s, got %v", path, h.uploader.paths)
		}
		if h.model.ViewState() != LibraryView {
			t.Errorf("expected LibraryView, got %v", h.model.ViewState())
		}
		if len(h.model.songs.Items()) != 1 {
			t.Errorf("expected refreshed library")
		}
		if !hasTitle(h.titles(), "Uploaded") {
			t.Errorf("expected upload toast, got %v", h.titles())
		}
	})

	t.Run("Upload Failure Stays On Form", func(t *testing.T) {
		h := newHarness(t, models.Session{Token: "tok"})
		h.start()
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
		h.uploader.err = errors.New("Request failed (413 Request Entity Too Large)")
		h.model.upload.setValue(forms.FieldFile, "/tmp/big.mp3")
		h.send(tea.KeyMsg{Type: tea.KeyEnter})

		if h.model.ViewState() != UploadView {
			t.Errorf("expected UploadView, got %v", h.model.ViewState())
		}
		if !hasTitle(h.titles(), "Upload failed") {
			t.Errorf("expected failure toast, got %v", h.titles())
		}

		h.send(tea.KeyMsg{Type: tea.KeyEsc})
		if h.model.ViewState() != LibraryView {
			t.Errorf("expected esc to return to library, got %v", h.model.ViewState())
		}
	})
}
