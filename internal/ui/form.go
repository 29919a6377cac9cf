package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/musicbox/internal/forms"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/tags"
)

// formMode selects which form an [inputForm] represents.
type formMode int

const (
	loginForm formMode = iota
	registerForm
	uploadForm
)

func (f formMode) String() string {
	switch f {
	case loginForm:
		return "Sign in"
	case registerForm:
		return "Create account"
	case uploadForm:
		return "Upload an mp3"
	default:
		return ""
	}
}

// inputForm is a focusable stack of text inputs with inline errors.
type inputForm struct {
	mode       formMode
	fields     []string
	inputs     []textinput.Model
	focus      int
	errs       forms.Errors
	serverErr  string
	submitting bool
}

func newInputForm(mode formMode) inputForm {
	f := inputForm{mode: mode}
	add := func(field, placeholder string, secret bool) {
		in := textinput.New()
		in.Placeholder = placeholder
		in.Prompt = "  "
		if secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.fields = append(f.fields, field)
		f.inputs = append(f.inputs, in)
	}

	switch mode {
	case loginForm:
		add(forms.FieldEmail, "you@example.com", false)
		add(forms.FieldPassword, "password", true)
	case registerForm:
		add(forms.FieldEmail, "you@example.com", false)
		add(forms.FieldPassword, "password (6+ characters)", true)
		add(forms.FieldConfirm, "confirm password", true)
	case uploadForm:
		add(forms.FieldFile, "/path/to/song.mp3", false)
		add("title", "title (optional)", false)
		add("artist", "artist (optional)", false)
	}

	f.inputs[0].Focus()
	return f
}

// value returns the current value of field.
func (f *inputForm) value(field string) string {
	for i, name := range f.fields {
		if name == field {
			return f.inputs[i].Value()
		}
	}
	return ""
}

func (f *inputForm) setValue(field, v string) {
	for i, name := range f.fields {
		if name == field {
			f.inputs[i].SetValue(v)
		}
	}
}

// move shifts focus by delta, wrapping around.
func (f *inputForm) move(delta int) {
	if f.mode == uploadForm && f.fields[f.focus] == forms.FieldFile {
		f.prefill()
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// prefill fills empty title and artist from the selected file's tags.
func (f *inputForm) prefill() {
	path := shared.ExpandHome(strings.TrimSpace(f.value(forms.FieldFile)))
	if path == "" || forms.ValidateUpload(path, "") != nil {
		return
	}
	md, err := tags.ReadFile(path)
	if err != nil {
		return
	}
	title, artist := md.Prefill(f.value("title"), f.value("artist"))
	f.setValue("title", title)
	f.setValue("artist", artist)
}

// validate runs the client-side checks for the form and stores the errors.
func (f *inputForm) validate() bool {
	f.serverErr = ""
	switch f.mode {
	case loginForm:
		f.errs = forms.Login(f.value(forms.FieldEmail), f.value(forms.FieldPassword))
	case registerForm:
		f.errs = forms.Register(f.value(forms.FieldEmail), f.value(forms.FieldPassword), f.value(forms.FieldConfirm))
	case uploadForm:
		f.errs = nil
		if v := forms.ValidateUpload(strings.TrimSpace(f.value(forms.FieldFile)), ""); v != nil {
			f.errs = forms.Errors{v}
		}
	}
	return len(f.errs) == 0
}

func (f *inputForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *inputForm) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(f.mode.String()))
	b.WriteString("\n")

	for i, in := range f.inputs {
		label := f.fields[i]
		if i == f.focus {
			label = styles.info.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n")
		if msg := f.errs.For(f.fields[i]); msg != "" {
			b.WriteString(styles.err.Render("  "+msg) + "\n")
		}
	}

	if f.serverErr != "" {
		b.WriteString("\n" + styles.err.Render(f.serverErr) + "\n")
	}
	if f.submitting {
		b.WriteString("\n" + styles.help.Render("Working…") + "\n")
	}
	return b.String()
}
