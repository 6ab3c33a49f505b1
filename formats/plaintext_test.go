package formats

import (
	"reflect"
	"testing"
)

func TestPlainTextSerialize(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{
			name: "metadata title and body",
			doc: Document{
				Title: "Fix login redirect",
				Body:  "Users bounce back to the welcome page.",
				Meta:  map[string]string{"status": "in_progress"},
			},
			want: "status: in_progress\n---\n\nFix login redirect\n\nUsers bounce back to the welcome page.",
		},
		{
			name: "title and body only",
			doc:  Document{Title: "My Note", Body: "The body."},
			want: "My Note\n\nThe body.",
		},
		{
			name: "body only",
			doc:  Document{Body: "Just a line."},
			want: "Just a line.",
		},
		{
			name: "title only",
			doc:  Document{Title: "Standalone"},
			want: "Standalone\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlainText.Serialize(tt.doc)
			if got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlainTextDeserialize(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		want      Document
		wantError bool
	}{
		{
			name:     "title and body",
			document: "My Note\n\nThe body here.",
			want:     Document{Title: "My Note", Body: "The body here."},
		},
		{
			name:     "full document",
			document: "status: todo\npriority: low\n---\n\nMy Note\n\nBody.",
			want: Document{
				Title: "My Note",
				Body:  "Body.",
				Meta:  map[string]string{"status": "todo", "priority": "low"},
			},
		},
		{
			name:     "single line is body",
			document: "just one line",
			want:     Document{Body: "just one line"},
		},
		{
			name:     "no blank after first line means no title",
			document: "first line\nsecond line\nthird line",
			want:     Document{Body: "first line\nsecond line\nthird line"},
		},
		{
			name:      "empty document",
			document:  "",
			wantError: true,
		},
		{
			name:      "only whitespace",
			document:  "  \n \t ",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlainText.Deserialize(tt.document)
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Title != tt.want.Title {
				t.Errorf("title = %q, want %q", got.Title, tt.want.Title)
			}
			if got.Body != tt.want.Body {
				t.Errorf("body = %q, want %q", got.Body, tt.want.Body)
			}
			if !reflect.DeepEqual(got.Meta, tt.want.Meta) {
				t.Errorf("meta = %v, want %v", got.Meta, tt.want.Meta)
			}
		})
	}
}

func TestPlainTextRoundTrip(t *testing.T) {
	docs := []Document{
		{Title: "Test Title", Body: "Test body."},
		{Title: "With Meta", Body: "Body.", Meta: map[string]string{"status": "review", "estimate": "3"}},
		{Body: "Body without any title."},
	}
	for _, doc := range docs {
		got, err := PlainText.Deserialize(PlainText.Serialize(doc))
		if err != nil {
			t.Fatalf("round-trip failed for %+v: %v", doc, err)
		}
		if got.Title != doc.Title || got.Body != doc.Body || !reflect.DeepEqual(got.Meta, doc.Meta) {
			t.Errorf("round-trip mismatch: got %+v, want %+v", got, doc)
		}
	}
}
