package index

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
)

// FullDataMarker は検索ドキュメント本文に埋め込む全レコードの区切りです。
// 検索結果から元のキャラクターレコードを復元するための目印になります。
const FullDataMarker = "Full Data:"

// Document は検索インデックスに格納される非正規化ドキュメントです。
// 一次ストアのレコードから派生した、古くなり得る投影であり、
// 存在の真偽ではなくランキングのためだけに使われます。
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"-"`
}

// BuildCharacterDocument はキャラクターレコードから検索用ドキュメントを構築します。
// 本文には検索しやすい平文サマリと、復元用の完全なJSONの両方を含めます。
func BuildCharacterDocument(char domain.Character, source string) Document {
	full, _ := json.MarshalIndent(char, "", "  ")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name: %s\n", char.Name))
	sb.WriteString(fmt.Sprintf("Role: %s\n", char.RoleOrDefault()))
	sb.WriteString(fmt.Sprintf("Visual Description: %s\n", char.VisualDescription()))
	sb.WriteString(fmt.Sprintf("Personality: %s\n", char.Personality))
	sb.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(char.Tags, ", ")))
	sb.WriteString("\n")
	sb.WriteString(FullDataMarker)
	sb.WriteString("\n")
	sb.Write(full)

	return Document{
		// キャラクターIDをドキュメントIDに流用することで、
		// ストーリーと同様に対称削除を可能にしています。
		ID:      char.ID,
		Content: sb.String(),
		Metadata: map[string]string{
			"source":       source,
			"type":         "character",
			"name":         char.Name,
			"character_id": char.ID,
		},
	}
}

// BuildStoryDocument はストーリーレコードから検索用ドキュメントを構築します。
// ドキュメントIDにはストーリー自身のIDを使い、削除時に同じキーを狙えるようにします。
func BuildStoryDocument(story domain.Story) Document {
	return Document{
		ID:      story.ID,
		Content: story.Content,
		Metadata: map[string]string{
			"source": "user_generated",
			"type":   "story",
			"name":   story.Title,
			"id":     story.ID,
		},
	}
}

// ParseFullData はドキュメント本文から埋め込まれた完全なレコードを復元します。
// マーカーが無い、あるいはJSONが壊れている場合は ok=false を返すのだ。
func ParseFullData(content string) (domain.Character, bool) {
	_, tail, found := strings.Cut(content, FullDataMarker)
	if !found {
		return domain.Character{}, false
	}

	var char domain.Character
	if err := json.Unmarshal([]byte(strings.TrimSpace(tail)), &char); err != nil {
		return domain.Character{}, false
	}
	return char, true
}
