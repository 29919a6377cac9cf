package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/musicbox/internal/formatter"
	"github.com/desertthunder/musicbox/internal/forms"
	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/notify"
	"github.com/desertthunder/musicbox/internal/player"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	WaitView ViewState = iota
	LoginView
	RegisterView
	LibraryView
	UploadView
)

// maxToasts caps how many notifications are drawn at once.
const maxToasts = 3

// Auth is the session surface the TUI drives. Implemented by [session.Manager].
type Auth interface {
	Load(ctx context.Context)
	Session() models.Session
	Token() string
	Login(ctx context.Context, email, password string) (models.AuthResult, error)
	Register(ctx context.Context, email, password string) (models.AuthResult, error)
	Logout()
	Subscribe(fn func(models.Session)) func()
}

// Library lists songs. Implemented by [api.Client].
type Library interface {
	ListSongs(ctx context.Context, token string) ([]models.Track, error)
}

// Uploader uploads a single file. Implemented by [tasks.UploadEngine].
type Uploader interface {
	UploadFile(ctx context.Context, path, token, title, artist string) tasks.FileUploadResult
}

// Deps holds the state objects the TUI renders and mutates.
type Deps struct {
	Auth     Auth
	Library  Library
	Player   *player.Player
	Bus      *notify.Bus
	Uploader Uploader
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	deps     Deps
	view     ViewState
	width    int
	height   int
	login    inputForm
	register inputForm
	upload   inputForm
	songs    list.Model
	loading  bool
	libErr   string
	events   chan tea.Msg
	unsubs   []func()
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model and subscribes to state changes.
func NewModel(ctx context.Context, deps Deps) *Model {
	songs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songs.Title = "Your library"
	songs.SetShowHelp(false)
	songs.SetStatusBarItemName("song", "songs")

	m := &Model{
		ctx:      ctx,
		deps:     deps,
		view:     WaitView,
		login:    newInputForm(loginForm),
		register: newInputForm(registerForm),
		upload:   newInputForm(uploadForm),
		songs:    songs,
		events:   make(chan tea.Msg, 1),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.unsubs = append(m.unsubs,
		deps.Auth.Subscribe(func(models.Session) { m.signal() }),
		deps.Player.Subscribe(func(models.PlayerState) { m.signal() }),
		deps.Bus.Subscribe(func([]models.Notification) { m.signal() }),
	)
	return m
}

// signal queues a redraw. Changes arriving while one is queued coalesce.
func (m *Model) signal() {
	select {
	case m.events <- stateChangedMsg():
	default:
	}
}

// Close removes the model's subscriptions.
func (m *Model) Close() {
	for _, fn := range m.unsubs {
		fn()
	}
	m.unsubs = nil
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Init loads the persisted session and starts listening for state changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadSession(), m.waitForEvent(), m.login.inputs[0].Focus())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songs.SetSize(msg.Width-4, max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQ) {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleFormKeys(&m.login, msg)
		case RegisterView:
			return m.handleFormKeys(&m.register, msg)
		case UploadView:
			return m.handleFormKeys(&m.upload, msg)
		case LibraryView:
			return m.handleLibraryKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionLoaded:
		return m, m.route()

	case MsgStateChanged:
		return m, tea.Batch(m.route(), m.waitForEvent())

	case MsgSongsFetched:
		data := msg.data.(songsFetched)
		m.loading = false
		if data.err != nil {
			m.libErr = data.err.Error()
			m.deps.Bus.Error("Could not load library", m.libErr)
			if shared.StatusCode(data.err) == 401 {
				m.deps.Auth.Logout()
				return m, m.route()
			}
			return m, nil
		}
		m.libErr = ""
		return m, m.songs.SetItems(songItems(data.tracks))

	case MsgAuthDone:
		return m, m.handleAuthDone(msg.data.(authDone))

	case MsgUploadDone:
		res := msg.data.(tasks.FileUploadResult)
		m.upload.submitting = false
		if !res.Success() {
			m.upload.serverErr = res.Error.Error()
			m.deps.Bus.Error("Upload failed", m.upload.serverErr)
			return m, nil
		}
		m.deps.Bus.Success("Uploaded", "Your song was uploaded successfully.")
		m.upload = newInputForm(uploadForm)
		m.view = LibraryView
		return m, m.fetchSongs()
	}
	return m, nil
}

// route applies the route guard to the current view.
func (m *Model) route() tea.Cmd {
	switch Decide(m.deps.Auth.Session()) {
	case Wait:
		m.view = WaitView
	case RedirectLogin:
		if m.view != LoginView && m.view != RegisterView {
			m.view = LoginView
			m.songs.SetItems(nil)
			m.libErr = ""
		}
	case Render:
		if m.view == WaitView || m.view == LoginView || m.view == RegisterView {
			m.view = LibraryView
			m.login = newInputForm(loginForm)
			m.register = newInputForm(registerForm)
			return m.fetchSongs()
		}
	}
	return nil
}

func (m *Model) handleAuthDone(res authDone) tea.Cmd {
	form := &m.login
	if res.mode == registerForm {
		form = &m.register
	}
	form.submitting = false

	if errors.Is(res.err, shared.ErrSuperseded) {
		return nil
	}

	if res.err != nil {
		form.serverErr = res.err.Error()
		title := "Login failed"
		if res.mode == registerForm {
			title = "Registration failed"
		}
		m.deps.Bus.Error(title, form.serverErr)
		return nil
	}

	switch {
	case res.mode == loginForm:
		m.deps.Bus.Success("Welcome back", "Signed in successfully.")
	case res.result.Token != "":
		m.deps.Bus.Success("Account created", "You can now use your library.")
	default:
		// The backend wants a separate sign-in after registering.
		m.deps.Bus.Success("Account created", "Sign in to continue.")
		m.register = newInputForm(registerForm)
		m.login = newInputForm(loginForm)
		m.login.setValue(forms.FieldEmail, res.email)
		m.view = LoginView
	}
	return m.route()
}

func (m *Model) handleFormKeys(f *inputForm, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if f.mode == uploadForm {
			m.view = LibraryView
		}
		return m, nil
	case key.Matches(msg, m.keys.switchTo) && f.mode != uploadForm:
		if f.mode == loginForm {
			m.view = RegisterView
		} else {
			m.view = LoginView
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		f.move(1)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		f.move(-1)
		return m, nil
	case key.Matches(msg, m.keys.submit):
		return m, m.submit(f)
	}
	return m, f.update(msg)
}

// submit validates f and starts the matching request.
func (m *Model) submit(f *inputForm) tea.Cmd {
	if f.submitting {
		return nil
	}
	if f.mode == uploadForm {
		f.prefill()
	}
	if !f.validate() {
		return nil
	}
	f.submitting = true

	email := strings.TrimSpace(f.value(forms.FieldEmail))
	password := f.value(forms.FieldPassword)

	switch f.mode {
	case loginForm:
		return func() tea.Msg {
			res, err := m.deps.Auth.Login(m.ctx, email, password)
			return authDoneMsg(loginForm, email, res, err)
		}
	case registerForm:
		return func() tea.Msg {
			res, err := m.deps.Auth.Register(m.ctx, email, password)
			return authDoneMsg(registerForm, email, res, err)
		}
	default:
		path := shared.ExpandHome(strings.TrimSpace(f.value(forms.FieldFile)))
		title := strings.TrimSpace(f.value("title"))
		artist := strings.TrimSpace(f.value("artist"))
		token := m.deps.Auth.Token()
		return func() tea.Msg {
			return uploadDoneMsg(m.deps.Uploader.UploadFile(m.ctx, path, token, title, artist))
		}
	}
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songs.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.songs, cmd = m.songs.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.play):
		if item, ok := m.songs.SelectedItem().(songItem); ok {
			return m, m.playSong(item.track)
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.togglePlay()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchSongs()
	case key.Matches(msg, m.keys.upload):
		m.view = UploadView
		return m, m.upload.inputs[m.upload.focus].Focus()
	case key.Matches(msg, m.keys.logout):
		m.deps.Auth.Logout()
		m.deps.Bus.Info("Signed out", "See you next time.")
		return m, m.route()
	}

	var cmd tea.Cmd
	m.songs, cmd = m.songs.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		cmd = m.login.update(msg)
	case RegisterView:
		cmd = m.register.update(msg)
	case UploadView:
		cmd = m.upload.update(msg)
	case LibraryView:
		m.songs, cmd = m.songs.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSession() tea.Cmd {
	return func() tea.Msg {
		m.deps.Auth.Load(m.ctx)
		return sessionLoadedMsg()
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) fetchSongs() tea.Cmd {
	m.loading = true
	token := m.deps.Auth.Token()
	return func() tea.Msg {
		tracks, err := m.deps.Library.ListSongs(m.ctx, token)
		return songsFetchedMsg(tracks, err)
	}
}

func (m *Model) playSong(track models.Track) tea.Cmd {
	return func() tea.Msg {
		m.deps.Player.PlaySong(m.ctx, track)
		return nil
	}
}

func (m *Model) togglePlay() tea.Cmd {
	if m.deps.Player.State().CurrentTrack == nil {
		return nil
	}
	return func() tea.Msg {
		m.deps.Player.TogglePlay(m.ctx)
		return nil
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case WaitView:
		body = styles.help.Render(WaitingText)
	case LoginView:
		body = m.renderForm(&m.login, "Need an account? ctrl+n")
	case RegisterView:
		body = m.renderForm(&m.register, "Have an account? ctrl+n")
	case UploadView:
		body = m.renderForm(&m.upload, "")
	case LibraryView:
		body = m.renderLibrary()
	}

	sections := []string{}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, body)
	if m.view == LibraryView || m.view == UploadView {
		sections = append(sections, m.renderPlayerBar())
	}
	return strings.Join(sections, "\n\n")
}

func (m *Model) renderForm(f *inputForm, hint string) string {
	keys := []key.Binding{m.keys.next, m.keys.submit}
	if f.mode == uploadForm {
		keys = append(keys, m.keys.back)
	} else {
		keys = append(keys, m.keys.switchTo)
	}
	keys = append(keys, m.keys.forceQ)

	out := f.view()
	if hint != "" {
		out += "\n" + styles.help.Render(hint)
	}
	return out + "\n" + m.help.ShortHelpView(keys)
}

func (m *Model) renderLibrary() string {
	var body string
	switch {
	case m.loading && len(m.songs.Items()) == 0:
		body = styles.help.Render("Loading your library…")
	case m.libErr != "":
		body = styles.err.Render(m.libErr) + "\n" + styles.help.Render("Press r to retry")
	case len(m.songs.Items()) == 0:
		body = styles.help.Render(formatter.EmptyLibraryMessage)
	default:
		body = m.songs.View()
	}

	user := ""
	if u := m.deps.Auth.Session().User; u != nil && u.Email != "" {
		user = styles.help.Render("Signed in as " + u.Email)
	}

	keys := []key.Binding{m.keys.play, m.keys.toggle, m.keys.refresh, m.keys.upload, m.keys.logout, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", user, body, m.help.ShortHelpView(keys))
}

// Player bar text when nothing is loaded.
const (
	IdleTitle    = "Nothing playing"
	IdleSubtitle = "Select a song from your library"
)

func (m *Model) renderPlayerBar() string {
	state := m.deps.Player.State()
	if state.CurrentTrack == nil {
		return styles.bar.Render(styles.help.Render(IdleTitle + " · " + IdleSubtitle))
	}

	t := state.CurrentTrack
	icon := "⏸"
	if state.IsPlaying {
		icon = "▶"
	}
	line := fmt.Sprintf("%s %s · %s", icon, styles.ok.Render(t.Title), formatter.ArtistLabel(t.Artist))
	if d := formatter.FormatDuration(t.Duration); d != "" {
		line += " [" + d + "]"
	}
	return styles.bar.Render(line)
}

func (m *Model) renderToasts() string {
	items := m.deps.Bus.List()
	if len(items) > maxToasts {
		items = items[:maxToasts]
	}

	rendered := make([]string, 0, len(items))
	for _, n := range items {
		title := styles.kind(n.Kind).Render(n.Title)
		rendered = append(rendered, styles.toast.Render(title+"\n"+n.Message))
	}
	return strings.Join(rendered, "\n")
}
