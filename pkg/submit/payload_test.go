package submit_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/submit"
)

func TestPrepare_Routing(t *testing.T) {
	form := domain.FormRecord{"summary": "help"}

	cases := []struct {
		category    submit.Category
		serviceDesk int
		requestType int
	}{
		{submit.CategorySupport, 2, 17},
		{submit.CategoryLoginAccess, 2, 26},
		{submit.CategoryLoginProvider, 2, 27},
		{submit.CategoryDev, 3, 10},
	}

	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			payload, err := submit.Prepare(context.Background(), form, tc.category, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.serviceDesk, payload.ServiceDeskID)
			assert.Equal(t, tc.requestType, payload.RequestTypeID)
			assert.Equal(t, "help", payload.RequestFieldValues["summary"])
		})
	}
}

func TestPrepare_UnknownCategory(t *testing.T) {
	_, err := submit.Prepare(context.Background(), domain.FormRecord{}, submit.Category("nope"), nil)
	assert.Error(t, err)
}

func TestPrepare_FileListsExcludedFromFields(t *testing.T) {
	form := domain.FormRecord{
		"summary":     "help",
		"attachments": []domain.File{domain.FileFromBytes("a.txt", "text/plain", []byte("x"))},
	}

	payload, err := submit.Prepare(context.Background(), form, submit.CategorySupport, nil)
	require.NoError(t, err)
	assert.NotContains(t, payload.RequestFieldValues, "attachments")
	assert.Empty(t, payload.Attachments)
}

func TestPrepare_EncodesAttachments(t *testing.T) {
	files := []domain.File{
		domain.FileFromBytes("report.pdf", "application/pdf", []byte("pdf-bytes")),
		domain.FileFromBytes("shot.png", "image/png", []byte("png-bytes")),
	}

	payload, err := submit.Prepare(context.Background(), domain.FormRecord{}, submit.CategorySupport, files)
	require.NoError(t, err)
	require.Len(t, payload.Attachments, 2)

	// Order is preserved regardless of concurrent encoding.
	assert.Equal(t, "report.pdf", payload.Attachments[0].FileName)
	assert.Equal(t, "shot.png", payload.Attachments[1].FileName)

	decoded, err := base64.StdEncoding.DecodeString(payload.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(decoded))
	assert.Equal(t, int64(9), payload.Attachments[0].Size)
}

func TestPrepare_AllOrNothing(t *testing.T) {
	broken := domain.File{
		Name: "broken.txt",
		Size: 4,
		Open: func() (io.ReadCloser, error) {
			return nil, fmt.Errorf("disk gone")
		},
	}
	files := []domain.File{
		domain.FileFromBytes("fine.txt", "text/plain", []byte("fine")),
		broken,
	}

	payload, err := submit.Prepare(context.Background(), domain.FormRecord{}, submit.CategorySupport, files)
	assert.Nil(t, payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.txt")
}

func TestPrepare_NoContentReader(t *testing.T) {
	files := []domain.File{{Name: "ghost.txt", Size: 1}}
	_, err := submit.Prepare(context.Background(), domain.FormRecord{}, submit.CategorySupport, files)
	assert.Error(t, err)
}
