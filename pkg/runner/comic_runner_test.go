package runner

import (
	"context"
	"io"
	"testing"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/publisher"
)

type memWriter struct {
	files map[string][]byte
}

func (m *memWriter) Write(ctx context.Context, path string, data io.Reader, mimeType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.files[path] = b
	return nil
}

func comicPanels() []domain.PanelPrompt {
	return []domain.PanelPrompt{
		{Panel: 1, ImagePrompt: "panel one", Dialogue: "Hello"},
		{Panel: 2, ImagePrompt: "panel two"},
		{Panel: 3, ImagePrompt: "panel three", Dialogue: "Bye"},
	}
}

func TestComicRunner_Run(t *testing.T) {
	w := &memWriter{files: make(map[string][]byte)}
	pub := publisher.NewComicPublisher(w, nil)
	cr := NewComicRunner(&fakeImageGen{}, pub)

	result, err := cr.Run(context.Background(), "Test Comic", comicPanels(), t.TempDir())
	if err != nil {
		t.Fatalf("Run に失敗しました: %v", err)
	}
	if result.PanelCount != 3 {
		t.Errorf("描画コマ数が不正です: %d", result.PanelCount)
	}
	if result.MarkdownPath == "" {
		t.Error("Markdownパスが空です")
	}
}

func TestComicRunner_PartialFailure(t *testing.T) {
	w := &memWriter{files: make(map[string][]byte)}
	pub := publisher.NewComicPublisher(w, nil)
	cr := NewComicRunner(&fakeImageGen{failOn: map[int]bool{2: true}}, pub)

	result, err := cr.Run(context.Background(), "Test Comic", comicPanels(), t.TempDir())
	if err != nil {
		t.Fatalf("一部失敗が致命的エラーになっています: %v", err)
	}
	if result.PanelCount != 2 {
		t.Errorf("失敗コマが除外されていません: %d", result.PanelCount)
	}
}

func TestComicRunner_AllPanelsFail(t *testing.T) {
	w := &memWriter{files: make(map[string][]byte)}
	pub := publisher.NewComicPublisher(w, nil)
	cr := NewComicRunner(&fakeImageGen{failOn: map[int]bool{1: true, 2: true, 3: true}}, pub)

	if _, err := cr.Run(context.Background(), "Test Comic", comicPanels(), t.TempDir()); err == nil {
		t.Error("全コマ失敗でエラーになっていません")
	}
}

func TestComicRunner_EmptyScript(t *testing.T) {
	cr := NewComicRunner(&fakeImageGen{}, publisher.NewComicPublisher(&memWriter{files: map[string][]byte{}}, nil))
	if _, err := cr.Run(context.Background(), "T", nil, t.TempDir()); err == nil {
		t.Error("空の台本でエラーになっていません")
	}
}
