package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/config"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/index"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/store"
)

// fakeTextGen は決め打ちの応答を返すテキスト生成器です。
type fakeTextGen struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeTextGen) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

// fakeImageGen は指定された回数目の呼び出しで失敗する画像生成器です。
type fakeImageGen struct {
	failOn map[int]bool
	calls  int
}

func (f *fakeImageGen) Generate(ctx context.Context, prompt string) ([]byte, bool) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, false
	}
	return []byte(fmt.Sprintf("png-%d", f.calls)), true
}

func (f *fakeImageGen) GeneratePanel(ctx context.Context, prompt string, panelNum int) ([]byte, bool) {
	return f.Generate(ctx, prompt)
}

// fakeSearcher は決め打ちのドキュメントを返す検索器です。
type fakeSearcher struct {
	docs []index.Document
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) []index.Document {
	if len(f.docs) > k {
		return f.docs[:k]
	}
	return f.docs
}

// recordingIndexer は呼び出しを記録するインデクサーです。
type recordingIndexer struct {
	stories    []domain.Story
	characters []domain.Character
	deleted    []string
}

func (r *recordingIndexer) IndexStory(ctx context.Context, story domain.Story) error {
	r.stories = append(r.stories, story)
	return nil
}

func (r *recordingIndexer) IndexCharacter(ctx context.Context, char domain.Character, source string) error {
	r.characters = append(r.characters, char)
	return nil
}

func (r *recordingIndexer) IndexText(ctx context.Context, id, content string, metadata map[string]string) error {
	return nil
}

func (r *recordingIndexer) DeleteDocument(ctx context.Context, id string) {
	r.deleted = append(r.deleted, id)
}

func newPromptBuilder() *prompts.Builder {
	return prompts.NewBuilder(config.DefaultSafetySuffix)
}

func TestStoryRunner_RunAndSave(t *testing.T) {
	gen := &fakeTextGen{response: "Kabir woke up late. He ran all the way to school. Everyone laughed."}
	idx := &recordingIndexer{}
	stories := store.NewStoryStore(t.TempDir())
	sr := NewStoryRunner(gen, nil, idx, stories, newPromptBuilder())

	story, err := sr.Run(context.Background(), "Kabir woke up late", "", true)
	if err != nil {
		t.Fatalf("Run に失敗しました: %v", err)
	}
	if story.ID == "" || story.Title == "" {
		t.Errorf("ストーリーのIDまたはタイトルが空です: %+v", story)
	}
	if _, ok := stories.Get(story.ID); !ok {
		t.Error("ストーリーが永続化されていません")
	}
	if len(idx.stories) != 1 || idx.stories[0].ID != story.ID {
		t.Error("ストーリーがインデックスに登録されていません")
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "STORY IDEA: Kabir woke up late") {
		t.Error("プロンプトにアイデアが埋め込まれていません")
	}
}

func TestStoryRunner_NoSave(t *testing.T) {
	gen := &fakeTextGen{response: "A story."}
	stories := store.NewStoryStore(t.TempDir())
	sr := NewStoryRunner(gen, nil, nil, stories, newPromptBuilder())

	story, err := sr.Run(context.Background(), "idea", "", false)
	if err != nil {
		t.Fatalf("Run に失敗しました: %v", err)
	}
	if _, ok := stories.Get(story.ID); ok {
		t.Error("保存指定なしでストーリーが永続化されています")
	}
}

func TestStoryRunner_Delete(t *testing.T) {
	stories := store.NewStoryStore(t.TempDir())
	idx := &recordingIndexer{}
	sr := NewStoryRunner(&fakeTextGen{response: "x"}, nil, idx, stories, newPromptBuilder())

	story := domain.NewStory("content", "Title")
	if err := sr.Save(context.Background(), story); err != nil {
		t.Fatal(err)
	}
	if err := sr.Delete(context.Background(), story.ID, idx); err != nil {
		t.Fatalf("Delete に失敗しました: %v", err)
	}
	if _, ok := stories.Get(story.ID); ok {
		t.Error("ディスクのレコードが削除されていません")
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != story.ID {
		t.Error("インデックスのドキュメントが削除されていません")
	}
}

const scriptJSON = `[
  {"panel": 1, "scene": "Waking up", "characters": "Kabir", "dialogue": "Oh no!", "camera_angle": "close-up", "emotion": "panic", "image_prompt": "boy waking up late"},
  {"panel": 2, "scene": "Running", "characters": "Kabir", "dialogue": "", "camera_angle": "wide", "emotion": "rush", "image_prompt": "boy running to school"}
]`

func TestScriptRunner_Run(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"素のJSON", scriptJSON},
		{"コードフェンス付き", "```json\n" + scriptJSON + "\n```"},
		{"前置きテキスト付き", "Here are your panels:\n" + scriptJSON + "\nEnjoy!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeTextGen{response: tc.response}
			sr := NewScriptRunner(gen, nil, newPromptBuilder(), 6)

			panels, err := sr.Run(context.Background(), "A story about Kabir.")
			if err != nil {
				t.Fatalf("Run に失敗しました: %v", err)
			}
			if len(panels) != 2 {
				t.Fatalf("コマ数が不正です: %d", len(panels))
			}
			for _, p := range panels {
				if !strings.Contains(p.ImagePrompt, config.DefaultSafetySuffix) {
					t.Errorf("コマ %d の画像プロンプトに安全サフィックスがありません: %s", p.Panel, p.ImagePrompt)
				}
			}
			if panels[0].Dialogue != "Oh no!" {
				t.Errorf("セリフが保持されていません: %+v", panels[0])
			}
		})
	}
}

func TestScriptRunner_MalformedResponse(t *testing.T) {
	gen := &fakeTextGen{response: "Sorry, I cannot do that."}
	sr := NewScriptRunner(gen, nil, newPromptBuilder(), 6)

	if _, err := sr.Run(context.Background(), "story"); err == nil {
		t.Error("壊れた応答でエラーになっていません")
	}
}

func TestScriptRunner_PanelCountInPrompt(t *testing.T) {
	gen := &fakeTextGen{response: scriptJSON}
	sr := NewScriptRunner(gen, nil, newPromptBuilder(), 6)

	if _, err := sr.Run(context.Background(), "story"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gen.prompts[0], "exactly 6 comic panel prompts") {
		t.Error("プロンプトにコマ数が埋め込まれていません")
	}
}

func TestCharacterRunner_AddFromDescription(t *testing.T) {
	cs := store.NewCharacterStore(t.TempDir())
	idx := &recordingIndexer{}

	t.Run("成功時はgeneratedフラグが立つ", func(t *testing.T) {
		cr := NewCharacterRunner(cs, idx, &fakeImageGen{}, newPromptBuilder())
		char, err := cr.AddFromDescription(context.Background(), CharacterParams{
			Name:        "Kabir Shah",
			Role:        "student",
			Description: "short black hair",
		})
		if err != nil {
			t.Fatalf("AddFromDescription に失敗しました: %v", err)
		}
		if !char.Generated {
			t.Error("generated フラグが立っていません")
		}
		if len(char.ImagePaths) != 1 || !strings.Contains(char.ImagePaths[0], "reference_generated") {
			t.Errorf("生成画像のパスが不正です: %v", char.ImagePaths)
		}
		if len(idx.characters) != 1 {
			t.Error("キャラクターがインデックスに登録されていません")
		}
	})

	t.Run("画像生成の失敗は致命的", func(t *testing.T) {
		cr := NewCharacterRunner(cs, idx, &fakeImageGen{failOn: map[int]bool{1: true}}, newPromptBuilder())
		if _, err := cr.AddFromDescription(context.Background(), CharacterParams{Name: "Meera"}); err == nil {
			t.Error("画像生成失敗でエラーになっていません")
		}
	})
}

func TestCharacterRunner_AddFromImagesAndDelete(t *testing.T) {
	cs := store.NewCharacterStore(t.TempDir())
	idx := &recordingIndexer{}
	cr := NewCharacterRunner(cs, idx, &fakeImageGen{}, newPromptBuilder())

	char, err := cr.AddFromImages(context.Background(), CharacterParams{Name: "Meera Patel"}, [][]byte{[]byte("png")})
	if err != nil {
		t.Fatalf("AddFromImages に失敗しました: %v", err)
	}
	if char.Generated {
		t.Error("アップロード画像なのに generated フラグが立っています")
	}

	if err := cr.Delete(context.Background(), char.ID); err != nil {
		t.Fatalf("Delete に失敗しました: %v", err)
	}
	if _, ok := cs.Get(char.ID); ok {
		t.Error("削除後もレコードが取得できてしまいます")
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != char.ID {
		t.Error("インデックスからの削除が対称になっていません")
	}
}

func TestQARunner_ImageRequestDetection(t *testing.T) {
	qr := NewQARunner(&fakeTextGen{response: "ok"}, nil, nil, newPromptBuilder())

	for query, want := range map[string]bool{
		"Who is Kabir?":                 false,
		"Show me a picture of Kabir":    true,
		"What does Meera look like?":    true,
		"Tell me about the school fair": false,
		"GIVE IMAGE of the teacher":     true,
	} {
		if got := qr.isImageRequest(query); got != want {
			t.Errorf("画像要求の判定が不正です: %q → %v", query, got)
		}
	}
}

func TestQARunner_Run(t *testing.T) {
	kabir := domain.Character{ID: "kabir_1", Name: "Kabir Shah", Role: "student", Description: "short hair"}
	docs := []index.Document{index.BuildCharacterDocument(kabir, "test")}

	gen := &fakeTextGen{response: "Kabir is a mischievous student."}
	qr := NewQARunner(gen, &fakeSearcher{docs: docs}, nil, newPromptBuilder())

	answer, err := qr.Run(context.Background(), "Who is Kabir?")
	if err != nil {
		t.Fatalf("Run に失敗しました: %v", err)
	}
	if answer.Answer == "" {
		t.Error("回答が空です")
	}
	if !strings.Contains(gen.prompts[0], "Kabir Shah") {
		t.Error("検索文脈がプロンプトに含まれていません")
	}
}

func TestQARunner_OnDemandImageGeneration(t *testing.T) {
	kabir := domain.Character{ID: "kabir_1", Name: "Kabir Shah", Role: "student", Description: "short hair"}
	docs := []index.Document{index.BuildCharacterDocument(kabir, "test")}

	img := &fakeImageGen{}
	qr := NewQARunner(&fakeTextGen{response: "Here is Kabir!"}, &fakeSearcher{docs: docs}, img, newPromptBuilder())
	qr.tempDir = t.TempDir()

	answer, err := qr.Run(context.Background(), "Show me a picture of Kabir")
	if err != nil {
		t.Fatalf("Run に失敗しました: %v", err)
	}
	if len(answer.Images) != 1 {
		t.Fatalf("オンデマンド生成画像が返っていません: %v", answer.Images)
	}
	if img.calls != 1 {
		t.Errorf("画像生成の呼び出し回数が不正です: %d", img.calls)
	}
}

func TestIngestRunner_Run(t *testing.T) {
	base := t.TempDir()
	charsDir := base + "/chars"
	famDir := base + "/families"
	locDir := base + "/locations"
	for _, d := range []string{charsDir, famDir, locDir} {
		mustMkdir(t, d)
	}
	mustWrite(t, charsDir+"/kabir.json", `{"id":"kabir_1","name":"Kabir Shah","role":"student"}`)
	mustWrite(t, charsDir+"/broken.json", `{not json`)
	mustWrite(t, famDir+"/shah_family.txt", "The Shah family lives near the school.")
	mustWrite(t, locDir+"/school.txt", "Gandhinagar School has a big playground.")

	idx := &recordingIndexer{}
	ir := NewIngestRunner(idx, charsDir, famDir, locDir)

	stats, err := ir.Run(context.Background())
	if err != nil {
		t.Fatalf("Run に失敗しました: %v", err)
	}
	if stats.Characters != 1 || stats.Texts != 2 || stats.Skipped != 1 {
		t.Errorf("集計が不正です: %+v", stats)
	}
	if len(idx.characters) != 1 || idx.characters[0].Name != "Kabir Shah" {
		t.Errorf("キャラクターが投入されていません: %+v", idx.characters)
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExtractJSONArray(t *testing.T) {
	want := `[{"panel":1}]`
	for name, raw := range map[string]string{
		"素のJSON":   want,
		"フェンス":     "```json\n" + want + "\n```",
		"前後にテキスト":  "prefix " + want + " suffix",
		"言語指定なし":   "```\n" + want + "\n```",
	} {
		t.Run(name, func(t *testing.T) {
			if got := extractJSONArray(raw); got != want {
				t.Errorf("抽出結果が不正です: %q", got)
			}
		})
	}
}
