package groupware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rbaliyan/groupware/contact"
)

// isValidUserID checks if a user ID is valid.
// Valid user IDs are non-empty and contain only safe characters.
// This prevents cache key injection in stores keyed by user.
func isValidUserID(userID string) bool {
	if userID == "" {
		return false
	}
	// Disallow: *, :, /, \, spaces, and control characters
	for _, c := range userID {
		if c == '*' || c == ':' || c == '/' || c == '\\' ||
			c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
			c < 32 || c == 127 {
			return false
		}
	}
	return true
}

// validateFolderID checks a folder ID.
func validateFolderID(folderID string) error {
	if strings.TrimSpace(folderID) == "" {
		return ErrInvalidFolderID
	}
	return nil
}

// validateContact checks every user-supplied field of c against the field
// catalog limits and requires something to display the contact by.
func validateContact(c *contact.Contact, maxImageSize int) error {
	if c == nil {
		return &ValidationError{Field: "contact", Message: "contact is nil"}
	}
	if err := validateFields(c, contact.Fields(), maxImageSize); err != nil {
		return err
	}
	if contact.DisplayNameOf(c) == "" && !c.IsDistributionList() {
		return &ValidationError{Field: contact.FieldDisplayName.JSONName(), Message: "contact has no name, company or e-mail address"}
	}
	return nil
}

// validateFields checks the listed fields of c that hold a value.
// Identity fields are maintained by storage and skipped.
func validateFields(c *contact.Contact, fields []contact.Field, maxImageSize int) error {
	v := contact.Validator{MaxImageSize: maxImageSize}
	for _, f := range fields {
		if f.IsIdentity() || !contact.Contains(c, f) {
			continue
		}
		value, err := contact.Get(c, f)
		if err != nil {
			return &ValidationError{Field: f.JSONName(), Message: "unreadable field", Err: err}
		}
		if err := v.Validate(f, value); err != nil {
			var fe *contact.FieldError
			msg := err.Error()
			if errors.As(err, &fe) {
				msg = fe.Err.Error()
			}
			return &ValidationError{Field: f.JSONName(), Message: msg, Err: err}
		}
	}
	return nil
}

// validateImage checks image data and returns its content type. An empty
// contentType is sniffed from data.
func validateImage(data []byte, contentType string, maxSize int) (string, error) {
	if len(data) == 0 {
		return "", ErrInvalidImage
	}
	if len(data) > maxSize {
		return "", ErrImageTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	contentType = strings.ToLower(contentType)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrInvalidImage
	}
	return contentType, nil
}
