package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amityhq/amity-api/internal/models"
)

type storageStub struct {
	uploaded bytes.Buffer
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.uploaded.Reset()
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

type uploadRepoStub struct {
	record models.UploadRecord
}

func (u *uploadRepoStub) Create(ctx context.Context, record *models.UploadRecord) error {
	u.record = *record
	return nil
}

func (u *uploadRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]models.UploadRecord, error) {
	return []models.UploadRecord{u.record}, nil
}

func TestMediaKind(t *testing.T) {
	cases := map[string]string{
		"image/png":        "image",
		"image/webp":       "image",
		"video/mp4":        "video",
		"audio/mpeg":       "audio",
		"application/pdf":  "document",
		"text/plain":       "",
		"application/json": "",
	}
	for mime, want := range cases {
		require.Equal(t, want, mediaKind(mime), mime)
	}
}

func TestSanitizeFileName(t *testing.T) {
	require.Equal(t, "my-photo.png", sanitizeFileName("My Photo.PNG"))
	require.Equal(t, "voice_note.mp3", sanitizeFileName("voice_note.mp3"))
	name := sanitizeFileName("???")
	require.Contains(t, name, "upload-")
}

func TestUploadServiceRejectsSize(t *testing.T) {
	svc := NewUploadService(&storageStub{}, &uploadRepoStub{}, 1, testLogger())

	file := buildFileHeader(t, "big.png", bytes.Repeat([]byte("a"), 2*1024*1024))

	_, err := svc.Upload(context.Background(), file, nil)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestUploadServiceRejectsType(t *testing.T) {
	svc := NewUploadService(&storageStub{}, &uploadRepoStub{}, 5, testLogger())

	file := buildFileHeader(t, "notes.txt", []byte("plain text"))
	_, err := svc.Upload(context.Background(), file, nil)
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestUploadServiceStoresImage(t *testing.T) {
	storage := &storageStub{}
	repo := &uploadRepoStub{}
	svc := NewUploadService(storage, repo, 5, testLogger())

	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	file := buildFileHeader(t, "Profile Pic.png", pngHeader)

	userID := uint(7)
	resp, err := svc.Upload(context.Background(), file, &userID)
	require.NoError(t, err)
	require.Equal(t, "profile-pic.png", resp.FileName)
	require.Contains(t, resp.URL, "profile-pic.png")
	require.NotEmpty(t, resp.Checksum)
	require.NotNil(t, repo.record.UserID)
	require.Equal(t, userID, *repo.record.UserID)
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
