package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestNewCharacterID(t *testing.T) {
	t.Run("名前がスラッグ化されてIDの先頭に入ること", func(t *testing.T) {
		id := NewCharacterID("Kabir Sharma")
		if !strings.HasPrefix(id, "kabir_sharma_") {
			t.Errorf("スラッグが期待と違うのだ: %s", id)
		}
	})

	t.Run("同じ名前でも呼び出しごとに一意なIDになること", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			id := NewCharacterID("Kabir")
			if _, dup := seen[id]; dup {
				t.Fatalf("IDが重複したのだ: %s", id)
			}
			seen[id] = struct{}{}
		}
	})
}

func TestCharacter_JSON(t *testing.T) {
	t.Run("Character構造体が正しくJSON変換できるのだ", func(t *testing.T) {
		char := Character{
			ID:          "kabir_a1b2c3d4",
			Name:        "Kabir",
			Role:        "class clown",
			Age:         "12",
			Description: "short black hair, red backpack",
			Personality: "cheerful, always late",
			Tags:        []string{"student", "school"},
			ImagePaths:  []string{"reference_1.png"},
		}

		data, err := json.Marshal(char)
		if err != nil {
			t.Fatalf("Marshal失敗なのだ: %v", err)
		}

		var decoded Character
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal失敗なのだ: %v", err)
		}

		if !reflect.DeepEqual(char, decoded) {
			t.Errorf("変換前後でデータが一致しないのだ。期待: %+v, 実際: %+v", char, decoded)
		}
	})

	t.Run("旧形式の visual_features も読み込めること", func(t *testing.T) {
		legacy := `{
			"id": "meera_old",
			"name": "Meera",
			"visual_features": {"hair": "long braided hair", "outfit": "blue school uniform"}
		}`

		var decoded Character
		if err := json.Unmarshal([]byte(legacy), &decoded); err != nil {
			t.Fatalf("旧形式のパースに失敗したのだ: %v", err)
		}
		if decoded.VisualFeatures["hair"] != "long braided hair" {
			t.Errorf("visual_features が読めていないのだ: %+v", decoded.VisualFeatures)
		}
	})
}

func TestCharacter_VisualDescription(t *testing.T) {
	t.Run("新形式は visual_description をそのまま返すこと", func(t *testing.T) {
		c := Character{Description: "tall, glasses"}
		if got := c.VisualDescription(); got != "tall, glasses" {
			t.Errorf("期待値 'tall, glasses', 実際の値 '%s'", got)
		}
	})

	t.Run("旧形式はキー順で平坦化されること", func(t *testing.T) {
		c := Character{VisualFeatures: map[string]string{
			"outfit": "blue uniform",
			"hair":   "short hair",
		}}
		// キーのソート順（hair, outfit）で決定論的に結合される
		if got := c.VisualDescription(); got != "short hair, blue uniform" {
			t.Errorf("平坦化の結果が違うのだ: '%s'", got)
		}
	})

	t.Run("空の値はスキップされること", func(t *testing.T) {
		c := Character{VisualFeatures: map[string]string{"a": "", "b": "ribbon"}}
		if got := c.VisualDescription(); got != "ribbon" {
			t.Errorf("空値が混入しているのだ: '%s'", got)
		}
	})
}

func TestNewStory(t *testing.T) {
	t.Run("タイトル未指定なら冒頭5語から生成されること", func(t *testing.T) {
		s := NewStory("Kabir tries to sneak a puppy into class today", "")
		if s.Title != "Kabir tries to sneak a..." {
			t.Errorf("自動タイトルが期待と違うのだ: '%s'", s.Title)
		}
		if s.ID == "" || s.CreatedAt == "" || s.Type != "story" {
			t.Errorf("レコードの必須フィールドが欠けているのだ: %+v", s)
		}
	})

	t.Run("指定タイトルはそのまま使われること", func(t *testing.T) {
		s := NewStory("body", "The Puppy Incident")
		if s.Title != "The Puppy Incident" {
			t.Errorf("タイトルが上書きされたのだ: '%s'", s.Title)
		}
	})
}
