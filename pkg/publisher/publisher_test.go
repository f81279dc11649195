package publisher

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
)

// memWriter はテスト用のインメモリ OutputWriter です。
type memWriter struct {
	files map[string][]byte
}

func newMemWriter() *memWriter {
	return &memWriter{files: make(map[string][]byte)}
}

func (m *memWriter) Write(ctx context.Context, path string, data io.Reader, mimeType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.files[path] = b
	return nil
}

func testPanels() []domain.PanelPrompt {
	return []domain.PanelPrompt{
		{Panel: 1, Scene: "Kabir wakes up late", Characters: "Kabir Shah", Dialogue: "Oh no, I'm late!", ImagePrompt: "boy waking up"},
		{Panel: 2, Scene: "Running to school", Characters: "Kabir Shah", ImagePrompt: "boy running"},
		{Panel: 3, Scene: "Teacher at the door", Characters: "Teacher", Dialogue: "You are late again, Kabir.", ImagePrompt: "teacher frowning"},
	}
}

func TestPublish_SavesPanelsAndMarkdown(t *testing.T) {
	w := newMemWriter()
	p := NewComicPublisher(w, nil)

	images := [][]byte{[]byte("png1"), []byte("png2"), []byte("png3")}
	result, err := p.Publish(context.Background(), "Late Again", testPanels(), images, Options{OutputDir: "out/comic"})
	if err != nil {
		t.Fatalf("Publish に失敗しました: %v", err)
	}

	if result.PanelCount != 3 {
		t.Errorf("保存コマ数が不正です: %d", result.PanelCount)
	}
	if len(result.ImagePaths) != 3 {
		t.Errorf("画像パス数が不正です: %d", len(result.ImagePaths))
	}

	md, ok := w.files[result.MarkdownPath]
	if !ok {
		t.Fatal("Markdownが書き込まれていません")
	}
	content := string(md)
	if !strings.Contains(content, "# Late Again") {
		t.Error("タイトルが出力されていません")
	}
	if !strings.Contains(content, "images/panel_1.png") {
		t.Errorf("コマ画像の相対パスが出力されていません:\n%s", content)
	}
	if !strings.Contains(content, "- text: Oh no, I'm late!") {
		t.Error("セリフが出力されていません")
	}
	// セリフのないコマは type: none になる
	if !strings.Contains(content, "- type: none") {
		t.Error("セリフなしコマの扱いが不正です")
	}
}

func TestPublish_SkipsFailedPanels(t *testing.T) {
	w := newMemWriter()
	p := NewComicPublisher(w, nil)

	// 2コマ目の生成が失敗した状態
	images := [][]byte{[]byte("png1"), nil, []byte("png3")}
	result, err := p.Publish(context.Background(), "Late Again", testPanels(), images, Options{OutputDir: "out"})
	if err != nil {
		t.Fatalf("Publish に失敗しました: %v", err)
	}

	if result.PanelCount != 2 {
		t.Errorf("失敗コマが除外されていません: %d", result.PanelCount)
	}
	for _, pth := range result.ImagePaths {
		if strings.Contains(pth, "panel_2") {
			t.Error("失敗したコマの画像パスが含まれています")
		}
	}

	content := string(w.files[result.MarkdownPath])
	if !strings.Contains(content, placeholder) {
		t.Error("失敗コマにプレースホルダーが使われていません")
	}
}

func TestBuildMarkdown_SpeakerClassIsStable(t *testing.T) {
	p := NewComicPublisher(newMemWriter(), nil)
	panels := []domain.PanelPrompt{
		{Panel: 1, Characters: "Kabir Shah", Dialogue: "Hello"},
		{Panel: 2, Characters: "Kabir Shah", Dialogue: "Again"},
	}
	content := p.buildMarkdown("T", panels, nil)

	var classes []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "- speaker: ") {
			classes = append(classes, line)
		}
	}
	if len(classes) != 2 || classes[0] != classes[1] {
		t.Errorf("同一話者のクラス名が安定していません: %v", classes)
	}
}
