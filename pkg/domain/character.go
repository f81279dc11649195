package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Character は学園ユニバースに登場するキャラクターの定義を保持します。
// 一次ストア（ファイルシステム）に保存されるレコードそのものであり、
// 検索インデックス側のドキュメントはこのレコードの派生物です。
type Character struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Age         string   `json:"age,omitempty"`
	Description string   `json:"visual_description,omitempty"`
	Personality string   `json:"personality_description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ImagePaths  []string `json:"image_paths,omitempty"`
	Generated   bool     `json:"generated,omitempty"`

	// VisualFeatures は旧形式のレコードが持つ特徴マップです。
	// 新形式では Description に一本化されていますが、読み込みは後方互換で受け付けます。
	VisualFeatures map[string]string `json:"visual_features,omitempty"`
}

// DefaultTags はタグ未指定時に補われる既定タグなのだ。
func DefaultTags() []string {
	return []string{"student", "school"}
}

// NewCharacterID は名前のスラッグとランダムなサフィックスから一意なIDを生成します。
// 生成後のIDは不変であり、同名キャラクターでも呼び出しごとに異なる値になります。
func NewCharacterID(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "_")
	suffix := uuid.NewString()[:8]
	return slug + "_" + suffix
}

// VisualDescription は視覚説明文を返します。
// 新形式の visual_description を優先し、無ければ旧形式の visual_features の
// 文字列値をキー順に結合して平坦化します。キー順で固定するのは、
// 同じレコードから常に同じプロンプトが組み上がることを保証するためです。
func (c Character) VisualDescription() string {
	if c.Description != "" {
		return c.Description
	}
	if len(c.VisualFeatures) == 0 {
		return ""
	}

	keys := make([]string, 0, len(c.VisualFeatures))
	for k := range c.VisualFeatures {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := c.VisualFeatures[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// RoleOrDefault は役柄を返し、未設定なら "student" を返すのだ。
func (c Character) RoleOrDefault() string {
	if c.Role == "" {
		return "student"
	}
	return c.Role
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}
