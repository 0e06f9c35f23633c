package telegram_api

import (
	"fmt"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoPaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("1001/profile/%02d.jpg", i)
	}
	return paths
}

func TestMediaGroups(t *testing.T) {
	tests := []struct {
		name   string
		count  int
		groups []int // 1 - одиночное фото
	}{
		{"empty", 0, nil},
		{"single photo", 1, []int{1}},
		{"one album", 4, []int{4}},
		{"exactly ten", 10, []int{10}},
		{"two albums", 13, []int{10, 3}},
		{"single tail", 21, []int{10, 10, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := photoPaths(tt.count)
			got := mediaGroups(1001, paths)
			require.Len(t, got, len(tt.groups))

			next := 0
			for i, c := range got {
				if tt.groups[i] == 1 {
					photo, ok := c.(tgbotapi.PhotoConfig)
					require.True(t, ok, "ожидалось одиночное фото, получено %T", c)
					assert.Equal(t, int64(1001), photo.ChatID)
					assert.Equal(t, tgbotapi.FilePath(paths[next]), photo.File)
					assert.Empty(t, photo.Caption)
					next++
					continue
				}
				group, ok := c.(tgbotapi.MediaGroupConfig)
				require.True(t, ok, "ожидался альбом, получено %T", c)
				assert.Equal(t, int64(1001), group.ChatID)
				require.Len(t, group.Media, tt.groups[i])
				for _, m := range group.Media {
					photo, ok := m.(*tgbotapi.InputMediaPhoto)
					require.True(t, ok)
					assert.Equal(t, "photo", photo.Type)
					assert.Equal(t, tgbotapi.FilePath(paths[next]), photo.Media)
					assert.Empty(t, photo.Caption)
					next++
				}
			}
			assert.Equal(t, tt.count, next)
		})
	}
}
