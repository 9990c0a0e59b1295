package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteReviews(t *testing.T) {
	addr := "서울 중구 충무로14길 2-1"
	seen := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := []repository.ExportRow{
		{StoreName: "을지면옥", Address: &addr, Source: model.SourceKakao, Review: "육수가 좋아요", FirstSeen: seen, LastSeen: seen.Add(time.Hour)},
		{StoreName: "을지면옥", Address: &addr, Source: model.SourceNaver, Review: "줄이 길어요", FirstSeen: seen, LastSeen: seen},
	}

	path := filepath.Join(t.TempDir(), "reviews.xlsx")
	require.NoError(t, WriteReviews(rows, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, []string{"을지면옥", addr, "-", "kakao", "육수가 좋아요", "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z"}, got[1])
	assert.Equal(t, "naver", got[2][3])
}

func TestWriteReviews_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteReviews(nil, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
