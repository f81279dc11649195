// Package director はコミック紙面の演出（吹き出しの配置や話者の識別）を決定します。
package director

// LayoutManager は吹き出しの座標や配置ルールを管理します。
type LayoutManager struct {
	DefaultMargin string
}

func NewLayoutManager() *LayoutManager {
	return &LayoutManager{
		DefaultMargin: "10%",
	}
}

// DialogueAttrs はコマのインデックスの偶奇に基づき、読者の視線が
// 左右交互に流れるような吹き出しの配置属性行を返します。
func (l *LayoutManager) DialogueAttrs(index int) string {
	if index%2 == 0 {
		return "- tail: top\n- bottom: " + l.DefaultMargin + "\n- left: " + l.DefaultMargin + "\n"
	}
	return "- tail: bottom\n- top: " + l.DefaultMargin + "\n- right: " + l.DefaultMargin + "\n"
}
