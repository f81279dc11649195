package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
	imggen "github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-utils/urlpath"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/store"
)

const (
	designPromptBaseTemplate = "Masterpiece character design sheet of %s"
	designLayoutDefault      = "multiple views (front, side, back), standing full body"
	designLayoutPromptFormat = "Layout: %s, side-by-side, separate character charts"
	designSheetDir           = "design_sheets"
)

// fileNameSanitizer はファイル名として使用できない文字を置換します。
var fileNameSanitizer = strings.NewReplacer(
	"/", "_",
	`\`, "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// DesignRunner は登録済みキャラクターのデザインシートを生成する実行実体なのだ。
// 参照画像付きの一貫したキャラクター設計図を高品質モデルで生成します。
type DesignRunner struct {
	generator imggen.ImageGenerator
	store     *store.CharacterStore
	writer    remoteio.OutputWriter
	prompts   *prompts.Builder
}

// NewDesignRunner は依存関係を注入して初期化します。
func NewDesignRunner(gen imggen.ImageGenerator, cs *store.CharacterStore, writer remoteio.OutputWriter, pb *prompts.Builder) *DesignRunner {
	return &DesignRunner{
		generator: gen,
		store:     cs,
		writer:    writer,
		prompts:   pb,
	}
}

// Run は指定されたキャラクターIDのデザインシートを生成し、outputDir に保存します。
// 保存先のパスと、生成に使われたシード値を返します。
func (dr *DesignRunner) Run(ctx context.Context, charIDs []string, seed int64, outputDir string) (string, int64, error) {
	refs, descriptions, err := dr.collectCharacterAssets(charIDs)
	if err != nil {
		return "", 0, fmt.Errorf("キャラクター資産の収集に失敗しました: %w", err)
	}

	slog.Info("デザインシートを生成します",
		slog.Any("chars", charIDs),
		slog.Int("ref_count", len(refs)),
	)

	designPrompt := dr.buildDesignPrompt(descriptions)
	if designPrompt == "" {
		return "", 0, fmt.Errorf("キャラクター情報が空のため、プロンプトを生成できませんでした")
	}

	pageReq := imgdom.ImagePageRequest{
		Prompt:        designPrompt,
		ReferenceURLs: refs,
		AspectRatio:   "16:9",
		Seed:          ptrInt64(seed),
	}

	resp, err := dr.generator.GenerateMangaPage(ctx, pageReq)
	if err != nil {
		return "", 0, fmt.Errorf("デザインシートの生成に失敗しました: %w", err)
	}

	outputPath, err := dr.saveResponseImage(ctx, *resp, charIDs, outputDir)
	if err != nil {
		return "", 0, fmt.Errorf("デザインシートの保存に失敗しました: %w", err)
	}

	return outputPath, resp.UsedSeed, nil
}

func (dr *DesignRunner) saveResponseImage(ctx context.Context, resp imgdom.ImageResponse, charIDs []string, outputDir string) (string, error) {
	charTags := fileNameSanitizer.Replace(strings.Join(charIDs, "_"))
	filename := fmt.Sprintf("design_%s%s", charTags, getPreferredExtension(resp.MimeType))

	dirPath, err := urlpath.ResolveOutputPath(outputDir, designSheetDir)
	if err != nil {
		return "", fmt.Errorf("保存ディレクトリの解決に失敗しました: %w", err)
	}
	finalPath, err := urlpath.ResolveOutputPath(dirPath, filename)
	if err != nil {
		return "", fmt.Errorf("保存パスの解決に失敗しました: %w", err)
	}

	if err := dr.writer.Write(ctx, finalPath, bytes.NewReader(resp.Data), resp.MimeType); err != nil {
		return "", fmt.Errorf("画像の書き込みに失敗しました (path: %s): %w", finalPath, err)
	}
	return finalPath, nil
}

// buildDesignPrompt はデザインシート用の詳細なプロンプト文字列を構築します。
func (dr *DesignRunner) buildDesignPrompt(descriptions []string) string {
	numChars := len(descriptions)
	if numChars == 0 {
		return ""
	}

	var subjects string
	if numChars > 1 {
		subjectParts := make([]string, numChars)
		for i, d := range descriptions {
			subjectParts[i] = fmt.Sprintf("[Subject %d: %s]", i+1, d)
		}
		subjects = fmt.Sprintf("%d DIFFERENT characters: %s", numChars, strings.Join(subjectParts, " "))
	} else {
		subjects = descriptions[0]
	}

	parts := []string{
		fmt.Sprintf(designPromptBaseTemplate, subjects),
		fmt.Sprintf(designLayoutPromptFormat, designLayoutDefault),
		"white background", "sharp focus", "4k resolution",
	}
	return dr.prompts.WithSafetySuffix(strings.Join(parts, ", "))
}

// collectCharacterAssets はストアからキャラクター情報を集め、参照画像パスと説明文を返します。
func (dr *DesignRunner) collectCharacterAssets(ids []string) ([]string, []string, error) {
	var referenceURLs []string
	var descriptions []string
	var missingIDs []string
	processed := make(map[string]struct{})

	for _, id := range ids {
		if _, exists := processed[id]; exists {
			continue
		}
		processed[id] = struct{}{}

		char, ok := dr.store.Get(id)
		if !ok {
			missingIDs = append(missingIDs, id)
			continue
		}

		if len(char.ImagePaths) == 0 {
			slog.Warn("キャラクターに参照画像がないためスキップします", "id", id)
			continue
		}
		referenceURLs = append(referenceURLs, char.ImagePaths[0])
		descriptions = append(descriptions, describeForDesign(char))
	}

	if len(missingIDs) > 0 {
		return nil, nil, fmt.Errorf("一部のキャラクターIDが見つかりませんでした: %s", strings.Join(missingIDs, ", "))
	}
	if len(referenceURLs) == 0 {
		return nil, nil, fmt.Errorf("有効な参照画像を持つキャラクターが1つも見つかりませんでした (対象ID: %s)", strings.Join(ids, ", "))
	}
	return referenceURLs, descriptions, nil
}

func describeForDesign(char domain.Character) string {
	if desc := char.VisualDescription(); desc != "" {
		return fmt.Sprintf("%s (%s)", char.Name, desc)
	}
	return char.Name
}

func ptrInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func getPreferredExtension(mimeType string) string {
	preferred := map[string]string{"image/png": ".png", "image/jpeg": ".jpg"}
	if ext, ok := preferred[mimeType]; ok {
		return ext
	}
	return ".png"
}
