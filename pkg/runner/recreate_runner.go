package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/resolver"
)

// StyleAnalyzer は画像のスタイル要約だけを切り出したビジョン解析の契約です。
type StyleAnalyzer interface {
	StyleSummary(ctx context.Context, image []byte, mimeType string) (string, error)
}

// RecreateResult は画像再現の結果です。
type RecreateResult struct {
	Description string
	ImagePath   string // 生成に失敗した場合は空
}

// RecreateRunner は既存画像のスタイルを自分のキャラクターで再現する実行実体なのだ。
type RecreateRunner struct {
	analyzer StyleAnalyzer
	resolver *resolver.Resolver
	renderer ImageGenerator
	prompts  *prompts.Builder
	tempDir  string
}

// NewRecreateRunner は依存関係を注入して初期化します。
func NewRecreateRunner(analyzer StyleAnalyzer, res *resolver.Resolver, renderer ImageGenerator, pb *prompts.Builder) *RecreateRunner {
	return &RecreateRunner{
		analyzer: analyzer,
		resolver: res,
		renderer: renderer,
		prompts:  pb,
		tempDir:  os.TempDir(),
	}
}

// Run は入力画像のスタイルを解析し、登録済みキャラクターで同様の画像を再現します。
//
// スタイル解析とキャラクター解決の失敗は致命的ですが、最終段の画像生成は
// ベストエフォートであり、失敗した場合は説明文のみを返します。
func (rr *RecreateRunner) Run(ctx context.Context, image []byte, mimeType string, names []string, customPrompt string) (RecreateResult, error) {
	styleDescription, err := rr.analyzer.StyleSummary(ctx, image, mimeType)
	if err != nil {
		return RecreateResult{}, fmt.Errorf("スタイル解析に失敗しました: %w", err)
	}

	characters := rr.resolver.Resolve(ctx, names)
	if len(characters) == 0 {
		return RecreateResult{
			Description: "No characters found in database. Please add characters first!",
		}, nil
	}
	if len(characters) > resolver.MaxCharactersPerImage {
		characters = characters[:resolver.MaxCharactersPerImage]
	}

	charNames := make([]string, 0, len(characters))
	for _, c := range characters {
		charNames = append(charNames, c.Name)
	}
	clauses := prompts.CharacterClauses(characters)

	prompt := rr.prompts.Recreation(styleDescription, charNames, clauses, customPrompt)

	slog.Info("画像を再現します", "characters", charNames)
	data, ok := rr.renderer.Generate(ctx, prompt)
	if !ok {
		return RecreateResult{
			Description: "Failed to generate image. Please try again.",
		}, nil
	}

	path := filepath.Join(rr.tempDir, fmt.Sprintf("recreated_%s.png", uuid.NewString()[:8]))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return RecreateResult{}, fmt.Errorf("再現画像の保存に失敗しました: %w", err)
	}

	return RecreateResult{
		Description: fmt.Sprintf("Recreated the image with your characters: %s! Based on the original style: %s",
			strings.Join(charNames, ", "), styleDescription),
		ImagePath: path,
	}, nil
}
