package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/necyberteam/qabot/pkg/domain"
)

func TestFormRecord_Merge(t *testing.T) {
	form := domain.FormRecord{"summary": "old", "email": "kai@example.org"}
	form.Merge(map[string]any{"summary": "new", "name": "Kai"})

	assert.Equal(t, "new", form.String("summary"))
	assert.Equal(t, "Kai", form.String("name"))
	assert.Equal(t, "kai@example.org", form.String("email"))
}

func TestFormRecord_ResetKeepsReference(t *testing.T) {
	form := domain.FormRecord{"summary": "something"}
	alias := form

	form.Reset()

	assert.Empty(t, form)
	// Callers holding the record keep seeing the same (now empty) map.
	alias.Merge(map[string]any{"summary": "fresh"})
	assert.Equal(t, "fresh", form.String("summary"))
}

func TestFormRecord_String_NonString(t *testing.T) {
	form := domain.FormRecord{"count": 3}
	assert.Equal(t, "", form.String("count"))
	assert.Equal(t, "", form.String("missing"))
}

func TestFormRecord_Files(t *testing.T) {
	file := domain.FileFromBytes("log.txt", "text/plain", []byte("hello"))
	form := domain.FormRecord{"attachments": []domain.File{file}}

	files := form.Files("attachments")
	assert.Len(t, files, 1)
	assert.Equal(t, "log.txt", files[0].Name)
	assert.Equal(t, int64(5), files[0].Size)

	assert.Nil(t, form.Files("missing"))
}

func TestFormRecord_Clone(t *testing.T) {
	form := domain.FormRecord{"summary": "a"}
	clone := form.Clone()
	clone["summary"] = "b"

	assert.Equal(t, "a", form.String("summary"))
	assert.Equal(t, "b", clone.String("summary"))
}

func TestStep(t *testing.T) {
	advance := domain.Advance("confirm")
	assert.False(t, advance.IsRetry())
	assert.Equal(t, "confirm", advance.Target())

	retry := domain.Retry()
	assert.True(t, retry.IsRetry())
	assert.Equal(t, "", retry.Target())
}

func TestIdentity_Complete(t *testing.T) {
	assert.False(t, domain.Identity{}.Complete())
	assert.False(t, domain.Identity{Email: "kai@example.org", Name: "Kai"}.Complete())
	assert.True(t, domain.Identity{Email: "kai@example.org", Name: "Kai", Username: "kai1"}.Complete())
}
