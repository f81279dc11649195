// Package publisher はコミックの成果物（画像・Markdown・HTML）の永続化と変換を担います。
package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-text-format/pkg/md2htmlrunner"
	"github.com/shouni/go-utils/urlpath"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/director"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理で生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string
	HTMLPath     string
	ImagePaths   []string // 保存された全コマ画像のパスリスト
	PanelCount   int      // 保存に成功したコマ数
}

const (
	defaultPlotName     = "comic_strip.md"
	defaultImageDirName = "images"
	placeholder         = "placeholder.png"
)

// ComicPublisher は成果物の永続化とフォーマット変換を担います。
// 書き込み先はローカル・GCSの両方に対応します。
type ComicPublisher struct {
	writer     remoteio.OutputWriter
	htmlRunner md2htmlrunner.Runner
	layout     *director.LayoutManager
	style      *director.StyleManager
}

// NewComicPublisher はパブリッシャーを構築します。htmlRunner は nil でもよく、
// その場合はHTML変換をスキップします。
func NewComicPublisher(writer remoteio.OutputWriter, htmlRunner md2htmlrunner.Runner) *ComicPublisher {
	return &ComicPublisher{
		writer:     writer,
		htmlRunner: htmlRunner,
		layout:     director.NewLayoutManager(),
		style:      director.NewStyleManager(),
	}
}

// Publish はコマ画像の保存、Markdownの構築、HTML変換を一括して実行するのだ。
//
// images はコマ台本と同じ並びで、生成に失敗したコマは nil が入ります。
// 失敗したコマは成果物から除外され、残りのコマだけで出力を組み立てます。
func (p *ComicPublisher) Publish(ctx context.Context, title string, panels []domain.PanelPrompt, images [][]byte, opts Options) (PublishResult, error) {
	result := PublishResult{}

	markdownPath, err := urlpath.ResolveOutputPath(opts.OutputDir, defaultPlotName)
	if err != nil {
		return result, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	result.MarkdownPath = markdownPath

	imgDir, err := urlpath.ResolveOutputPath(opts.OutputDir, defaultImageDirName)
	if err != nil {
		return result, fmt.Errorf("画像ディレクトリの解決に失敗しました: %w", err)
	}

	savedPaths, err := p.savePanelImages(ctx, panels, images, imgDir)
	if err != nil {
		return result, err
	}
	result.ImagePaths = make([]string, 0, len(savedPaths))
	result.PanelCount = 0
	for _, pth := range savedPaths {
		if pth != "" {
			result.ImagePaths = append(result.ImagePaths, pth)
			result.PanelCount++
		}
	}

	// Markdown内の画像参照は出力ディレクトリからの相対パスにする
	relativePaths := make([]string, len(savedPaths))
	for i, pth := range savedPaths {
		if pth == "" {
			continue
		}
		relativePaths[i] = path.Join(defaultImageDirName, filepath.Base(pth))
	}

	content := p.buildMarkdown(title, panels, relativePaths)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}

	if p.htmlRunner != nil {
		slog.Info("HTMLビューアへ変換します", "title", title)
		htmlBuffer, err := p.htmlRunner.Run(ctx, title, []byte(content))
		if err != nil {
			return result, fmt.Errorf("HTMLの変換に失敗しました: %w", err)
		}
		htmlPath := strings.TrimSuffix(markdownPath, filepath.Ext(markdownPath)) + ".html"
		if err := p.writer.Write(ctx, htmlPath, htmlBuffer, "text/html; charset=utf-8"); err != nil {
			return result, fmt.Errorf("HTMLファイルの書き込みに失敗しました: %w", err)
		}
		result.HTMLPath = htmlPath
	}

	return result, nil
}

// savePanelImages はコマ画像を保存し、コマ台本と同じ並びのパスリストを返します。
// 失敗したコマの位置には空文字が入ります。
func (p *ComicPublisher) savePanelImages(ctx context.Context, panels []domain.PanelPrompt, images [][]byte, baseDir string) ([]string, error) {
	paths := make([]string, len(panels))
	for i := range panels {
		if i >= len(images) || len(images[i]) == 0 {
			continue
		}
		panelNum := panels[i].Panel
		if panelNum == 0 {
			panelNum = i + 1
		}
		name := fmt.Sprintf("panel_%d.png", panelNum)
		fullPath, err := urlpath.ResolveOutputPath(baseDir, name)
		if err != nil {
			return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		if err := p.writer.Write(ctx, fullPath, bytes.NewReader(images[i]), "image/png"); err != nil {
			return nil, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
		}
		paths[i] = fullPath
	}
	return paths, nil
}

// buildMarkdown はコマ台本と画像パスから go-text-format が解釈可能な Markdown を構築します。
func (p *ComicPublisher) buildMarkdown(title string, panels []domain.PanelPrompt, imagePaths []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	for i, panel := range panels {
		img := placeholder
		if i < len(imagePaths) && imagePaths[i] != "" {
			img = imagePaths[i]
		}

		sb.WriteString(fmt.Sprintf("## Panel: %s\n", img))
		sb.WriteString("- layout: standard\n")

		dialogue := strings.TrimSpace(panel.Dialogue)
		if dialogue != "" {
			sb.WriteString(fmt.Sprintf("- speaker: %s\n", p.style.ResolveSpeakerID(panel.Characters)))
			sb.WriteString(fmt.Sprintf("- text: %s\n", dialogue))
			sb.WriteString(p.layout.DialogueAttrs(i))
		} else {
			sb.WriteString("- type: none\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
