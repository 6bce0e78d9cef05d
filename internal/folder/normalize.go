package folder

import "strings"

// Canonical folder types. Provider folder names vary by provider and by
// mailbox locale; everything the table does not recognize is "custom".
const (
	TypeInbox   = "inbox"
	TypeSent    = "sent"
	TypeDrafts  = "drafts"
	TypeTrash   = "trash"
	TypeSpam    = "spam"
	TypeArchive = "archive"
	TypeCustom  = "custom"
)

// canonicalNames maps lowercased provider folder names to canonical
// types. Covers the Gmail/Outlook/IMAP spellings plus common localized
// names seen in production mailboxes.
var canonicalNames = map[string]string{
	"inbox":              TypeInbox,
	"posteingang":        TypeInbox,
	"boîte de réception": TypeInbox,
	"bandeja de entrada": TypeInbox,

	"sent":               TypeSent,
	"sent items":         TypeSent,
	"sent mail":          TypeSent,
	"[gmail]/sent mail":  TypeSent,
	"gesendete elemente": TypeSent,
	"gesendet":           TypeSent,
	"éléments envoyés":   TypeSent,
	"elementos enviados": TypeSent,

	"drafts":         TypeDrafts,
	"draft":          TypeDrafts,
	"[gmail]/drafts": TypeDrafts,
	"entwürfe":       TypeDrafts,
	"brouillons":     TypeDrafts,
	"borradores":     TypeDrafts,

	"trash":              TypeTrash,
	"deleted items":      TypeTrash,
	"deleted":            TypeTrash,
	"[gmail]/trash":      TypeTrash,
	"bin":                TypeTrash,
	"papierkorb":         TypeTrash,
	"gelöschte elemente": TypeTrash,
	"corbeille":          TypeTrash,

	"spam":         TypeSpam,
	"junk":         TypeSpam,
	"junk email":   TypeSpam,
	"junk e-mail":  TypeSpam,
	"[gmail]/spam": TypeSpam,

	"archive":          TypeArchive,
	"all mail":         TypeArchive,
	"[gmail]/all mail": TypeArchive,
	"archiv":           TypeArchive,
}

// Normalize maps a raw provider folder name to its canonical type.
// Pure: the same input always yields the same output.
func Normalize(name string) string {
	if t, ok := canonicalNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return TypeCustom
}

// NormalizeAll returns the canonical type for the first recognized name
// in the list, preferring a non-custom match. Sync providers attach
// messages to several folders at once (e.g. a Gmail label plus INBOX).
func NormalizeAll(names []string) string {
	for _, n := range names {
		if t := Normalize(n); t != TypeCustom {
			return t
		}
	}
	if len(names) > 0 {
		return TypeCustom
	}
	return TypeInbox
}
