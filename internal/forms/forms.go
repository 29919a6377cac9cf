// Package forms validates user input before any network call.
//
// Each validator returns a [*shared.ValidationError] naming the offending
// field, or nil. Messages are written for display next to the input.
package forms

import (
	"errors"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/desertthunder/musicbox/internal/shared"
)

const MinPasswordLength = 6

// Field names reported in [shared.ValidationError].
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldConfirm  = "confirm"
	FieldFile     = "file"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func invalid(field, msg string) *shared.ValidationError {
	return &shared.ValidationError{Field: field, Message: msg}
}

// ValidateEmail requires a trimmed, non-empty address of the form a@b.c.
func ValidateEmail(email string) *shared.ValidationError {
	e := strings.TrimSpace(email)
	switch {
	case e == "":
		return invalid(FieldEmail, "Email is required.")
	case !emailPattern.MatchString(e):
		return invalid(FieldEmail, "Enter a valid email address.")
	}
	return nil
}

// ValidatePassword requires at least [MinPasswordLength] characters.
func ValidatePassword(password string) *shared.ValidationError {
	if len([]rune(password)) < MinPasswordLength {
		return invalid(FieldPassword, "Password must be at least 6 characters.")
	}
	return nil
}

// ValidateConfirm requires the confirmation to match the password exactly.
func ValidateConfirm(password, confirm string) *shared.ValidationError {
	if password != confirm {
		return invalid(FieldConfirm, "Passwords do not match.")
	}
	return nil
}

// Errors is the set of failed validations for a form.
type Errors []*shared.ValidationError

func (e Errors) add(v *shared.ValidationError) Errors {
	if v != nil {
		return append(e, v)
	}
	return e
}

// For returns the message for field, or "".
func (e Errors) For(field string) string {
	for _, v := range e {
		if v.Field == field {
			return v.Message
		}
	}
	return ""
}

// Err joins the errors, or returns nil when the form is valid.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	errs := make([]error, len(e))
	for i, v := range e {
		errs[i] = v
	}
	return errors.Join(errs...)
}

// Login validates the sign-in form.
func Login(email, password string) Errors {
	var errs Errors
	errs = errs.add(ValidateEmail(email))
	errs = errs.add(ValidatePassword(password))
	return errs
}

// Register validates the sign-up form.
func Register(email, password, confirm string) Errors {
	errs := Login(email, password)
	return errs.add(ValidateConfirm(password, confirm))
}

// MP3ContentType is the accepted upload content type.
const MP3ContentType = "audio/mpeg"

// IsMP3 reports whether a file looks like an MP3 by content type or extension.
func IsMP3(filename, contentType string) bool {
	if contentType == MP3ContentType {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".mp3")
}

// ValidateUpload checks the selected upload file. The content type is guessed
// from the extension when empty.
func ValidateUpload(filename, contentType string) *shared.ValidationError {
	if strings.TrimSpace(filename) == "" {
		return invalid(FieldFile, "Select an mp3 file to upload.")
	}
	if contentType == "" {
		contentType, _, _ = mime.ParseMediaType(mime.TypeByExtension(filepath.Ext(filename)))
	}
	if !IsMP3(filename, contentType) {
		return invalid(FieldFile, "Only .mp3 files are supported.")
	}
	return nil
}
