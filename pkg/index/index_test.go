package index

import (
	"context"
	"strings"
	"testing"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
)

// stubEmbedder はテキストに含まれるキーワードで固定ベクトルを返すテスト用の埋め込み器なのだ。
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "Kabir"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "Meera"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func newTestIndex(t *testing.T, emb Embedder) *Index {
	t.Helper()
	ix, err := Open(t.TempDir(), emb)
	if err != nil {
		t.Fatalf("インデックスのオープンに失敗したのだ: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestIndex_SearchRanking(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, stubEmbedder{})

	kabir := domain.Character{ID: "kabir_1", Name: "Kabir", Role: "class clown"}
	meera := domain.Character{ID: "meera_1", Name: "Meera", Role: "librarian"}

	if err := ix.IndexCharacter(ctx, kabir, "kabir.json"); err != nil {
		t.Fatalf("インデックス追加に失敗したのだ: %v", err)
	}
	if err := ix.IndexCharacter(ctx, meera, "meera.json"); err != nil {
		t.Fatalf("インデックス追加に失敗したのだ: %v", err)
	}

	results := ix.Search(ctx, "Kabir", 5)
	if len(results) != 2 {
		t.Fatalf("期待件数 2, 実際 %d", len(results))
	}
	if results[0].Metadata["name"] != "Kabir" {
		t.Errorf("類似度の高い方が先頭に来ていないのだ: %+v", results[0].Metadata)
	}
	if results[0].Score < results[1].Score {
		t.Error("スコアが降順になっていないのだ")
	}
}

func TestIndex_SearchLimit(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, stubEmbedder{})

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := ix.IndexText(ctx, id, "generic text "+id, nil); err != nil {
			t.Fatalf("追加失敗なのだ: %v", err)
		}
	}

	if got := ix.Search(ctx, "anything", 2); len(got) != 2 {
		t.Errorf("k=2 なのに %d 件返ってきたのだ", len(got))
	}
}

func TestIndex_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, stubEmbedder{})

	story := domain.NewStory("Kabir found a puppy near the school gate", "Puppy")
	if err := ix.IndexStory(ctx, story); err != nil {
		t.Fatalf("ストーリー追加に失敗したのだ: %v", err)
	}

	ix.DeleteDocument(ctx, story.ID)

	for _, doc := range ix.Search(ctx, "Kabir", 10) {
		if doc.ID == story.ID {
			t.Error("削除したドキュメントが検索結果に残っているのだ")
		}
	}

	// 存在しないIDの削除は警告を残すだけで正常終了する
	ix.DeleteDocument(ctx, "no-such-id")
}

func TestIndex_DegradedSearch(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, nil)

	// 縮退モードでは書き込みはエラー、検索は空に切り詰められる
	if err := ix.IndexText(ctx, "x", "content", nil); err == nil {
		t.Error("埋め込み器なしの書き込みはエラーになるべきなのだ")
	}
	if got := ix.Search(ctx, "query", 3); len(got) != 0 {
		t.Errorf("縮退モードの検索は空のはずなのだ: %d 件", len(got))
	}
}

func TestBuildCharacterDocument(t *testing.T) {
	char := domain.Character{
		ID:          "kabir_x",
		Name:        "Kabir",
		Role:        "class clown",
		Description: "short black hair",
		Tags:        []string{"student", "school"},
	}

	doc := BuildCharacterDocument(char, "path/to/kabir.json")

	if doc.ID != "kabir_x" {
		t.Errorf("ドキュメントIDはキャラクターIDと一致すべきなのだ: %s", doc.ID)
	}
	if !strings.Contains(doc.Content, FullDataMarker) {
		t.Error("本文に Full Data マーカーが無いのだ")
	}
	if doc.Metadata["character_id"] != "kabir_x" || doc.Metadata["type"] != "character" {
		t.Errorf("メタデータが欠けているのだ: %+v", doc.Metadata)
	}

	restored, ok := ParseFullData(doc.Content)
	if !ok {
		t.Fatal("Full Data の復元に失敗したのだ")
	}
	if restored.Name != "Kabir" || restored.Description != "short black hair" {
		t.Errorf("復元されたレコードが一致しないのだ: %+v", restored)
	}
}

func TestParseFullData_Malformed(t *testing.T) {
	if _, ok := ParseFullData("no marker here"); ok {
		t.Error("マーカーなしで ok になってはいけないのだ")
	}
	if _, ok := ParseFullData(FullDataMarker + "\n{ invalid json"); ok {
		t.Error("壊れたJSONで ok になってはいけないのだ")
	}
}
