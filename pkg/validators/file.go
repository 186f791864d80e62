package validators

import (
	"errors"
	"mime/multipart"
	"regexp"
	"unicode/utf8"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileNameTooLong = errors.New("file name is too long")
	ErrNoFile          = errors.New("no file provided")
	ErrTitleInvalid    = errors.New("title must be 1 to 100 characters long")
	ErrLanguageInvalid = errors.New("language must be a three letter code")
	ErrColorInvalid    = errors.New("color must look like #rrggbb")
	ErrTagNameInvalid  = errors.New("tag name must be 1 to 36 characters without spaces or colons")
)

const (
	maxFileNameSize = 200
	maxTitleSize    = 100
	maxTagNameSize  = 36
)

var (
	languageRegexp = regexp.MustCompile(`^[a-z]{3}$`)
	colorRegexp    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	tagNameRegexp  = regexp.MustCompile(`^[^ ,:]+$`)
)

// FileValidator checks the multipart header of an upload. The content itself is
// sniffed once the file is staged
func FileValidator(fh *multipart.FileHeader, maxSize int64) error {
	if fh == nil {
		return ErrNoFile
	}

	if err := FileNameValidator(fh.Filename); err != nil {
		return err
	}

	if fh.Size > maxSize {
		return ErrFileTooLarge
	}

	return nil
}

func FileNameValidator(name string) error {
	if utf8.RuneCountInString(name) > maxFileNameSize {
		return ErrFileNameTooLong
	}

	return nil
}

func TitleValidator(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 || n > maxTitleSize {
		return ErrTitleInvalid
	}

	return nil
}

func LanguageValidator(lang string) error {
	if !languageRegexp.MatchString(lang) {
		return ErrLanguageInvalid
	}

	return nil
}

func ColorValidator(color string) error {
	if !colorRegexp.MatchString(color) {
		return ErrColorInvalid
	}

	return nil
}

func TagNameValidator(name string) error {
	if utf8.RuneCountInString(name) > maxTagNameSize || !tagNameRegexp.MatchString(name) {
		return ErrTagNameInvalid
	}

	return nil
}
