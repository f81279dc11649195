package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Story は保存されたストーリーのレコードを保持します。
// 一次ストアはファイルシステムで、同じ ID を使って検索インデックスにも
// ミラーされるため、削除時には両方を対称に消せます。
type Story struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Type      string `json:"type"`
}

// NewStory は本文とタイトルから新しいストーリーレコードを生成します。
// タイトルが空の場合は冒頭の数語から自動生成するのだ。
func NewStory(content, title string) Story {
	if title == "" {
		words := strings.Fields(content)
		if len(words) > 5 {
			words = words[:5]
		}
		title = strings.Join(words, " ") + "..."
	}

	return Story{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().Format(time.RFC3339),
		Type:      "story",
	}
}
