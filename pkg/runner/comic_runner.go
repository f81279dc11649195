package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/publisher"
)

// ComicRunner はコマ台本からコミック成果物一式を描画・公開する実行実体なのだ。
type ComicRunner struct {
	renderer  ImageGenerator
	publisher *publisher.ComicPublisher
}

// NewComicRunner は依存関係を注入して初期化します。
func NewComicRunner(renderer ImageGenerator, pub *publisher.ComicPublisher) *ComicRunner {
	return &ComicRunner{
		renderer:  renderer,
		publisher: pub,
	}
}

// Run は各コマを順番に描画し、成果物（画像・Markdown・HTML）を公開します。
//
// 描画は1コマずつ逐次実行します。失敗したコマはスキップして残りを続行し、
// 1コマも描画できなかった場合のみエラーを返します。
func (cr *ComicRunner) Run(ctx context.Context, title string, panels []domain.PanelPrompt, outputDir string) (publisher.PublishResult, error) {
	if len(panels) == 0 {
		return publisher.PublishResult{}, fmt.Errorf("コマ台本が空です")
	}

	images := make([][]byte, len(panels))
	rendered := 0
	for i, panel := range panels {
		data, ok := cr.renderer.GeneratePanel(ctx, panel.ImagePrompt, panel.Panel)
		if !ok {
			continue
		}
		images[i] = data
		rendered++
	}

	if rendered == 0 {
		return publisher.PublishResult{}, fmt.Errorf("すべてのコマの描画に失敗しました")
	}
	slog.Info("コマの描画が完了しました", "rendered", rendered, "total", len(panels))

	result, err := cr.publisher.Publish(ctx, title, panels, images, publisher.Options{OutputDir: outputDir})
	if err != nil {
		return publisher.PublishResult{}, fmt.Errorf("成果物の公開に失敗しました: %w", err)
	}
	return result, nil
}
