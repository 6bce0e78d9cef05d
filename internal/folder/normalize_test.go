package folder

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"INBOX", TypeInbox},
		{"inbox", TypeInbox},
		{"Posteingang", TypeInbox},
		{"Sent", TypeSent},
		{"Sent Items", TypeSent},
		{"Gesendete Elemente", TypeSent},
		{"[Gmail]/Sent Mail", TypeSent},
		{"Drafts", TypeDrafts},
		{"Entwürfe", TypeDrafts},
		{"Brouillons", TypeDrafts},
		{"Trash", TypeTrash},
		{"Deleted Items", TypeTrash},
		{"Papierkorb", TypeTrash},
		{"Junk", TypeSpam},
		{"Junk E-mail", TypeSpam},
		{"Archive", TypeArchive},
		{"All Mail", TypeArchive},
		{"  INBOX  ", TypeInbox},
		{"Receipts", TypeCustom},
		{"", TypeCustom},
	}

	for _, tt := range tests {
		if got := Normalize(tt.name); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeIsPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Normalize("Gesendete Elemente"); got != TypeSent {
			t.Fatalf("iteration %d: got %q", i, got)
		}
	}
}

func TestNormalizeAll(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{[]string{"INBOX"}, TypeInbox},
		{[]string{"Receipts", "INBOX"}, TypeInbox},
		{[]string{"Receipts"}, TypeCustom},
		{nil, TypeInbox},
		{[]string{"[Gmail]/Sent Mail", "Work"}, TypeSent},
	}

	for _, tt := range tests {
		if got := NormalizeAll(tt.names); got != tt.want {
			t.Errorf("NormalizeAll(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}
