package director

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultNarrator は話者のいないコマ（地の文）に割り当てる話者名です。
const DefaultNarrator = "narration"

// StyleManager は話者の識別と吹き出しの見た目を管理します。
type StyleManager struct{}

func NewStyleManager() *StyleManager {
	return &StyleManager{}
}

// ResolveSpeakerID は任意の話者名から CSS 安全なハッシュ ID を生成します。
// 同じ話者には常に同じ ID が割り当てられ、話者が空ならナレーション扱いになります。
func (s *StyleManager) ResolveSpeakerID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultNarrator
	}
	h := sha256.Sum256([]byte(name))
	return "speaker-" + hex.EncodeToString(h[:])[:10]
}
