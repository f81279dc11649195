// Package pipeline は各サブコマンドの実行フローを組み立てるのだ。
//
// すべての段は逐次実行する。外部APIのレート制限と、前段の出力が次段の入力に
// なる構造のため、並列化はしない方針なのだ。
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/builder"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/config"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/runner"
)

// ExecuteStory はストーリーアイデアから完全なストーリーを生成するのだ。
func ExecuteStory(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	idea, err := resolveStoryInput(ctx, appCtx)
	if err != nil {
		return err
	}

	storyRunner := builder.BuildStoryRunner(appCtx)
	story, err := storyRunner.Run(ctx, idea, cfg.Options.Title, cfg.Options.SaveStory)
	if err != nil {
		return err
	}

	fmt.Println(story.Content)
	slog.Info("ストーリーが完成したのだ！", "id", story.ID, "title", story.Title, "saved", cfg.Options.SaveStory)
	return nil
}

// ExecuteComic はアイデアからコミック成果物一式までの全段を実行するのだ。
func ExecuteComic(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	idea, err := resolveStoryInput(ctx, appCtx)
	if err != nil {
		return err
	}

	// Phase 1: ストーリー展開
	slog.Info("Phase 1: ストーリーを展開するのだ...")
	storyRunner := builder.BuildStoryRunner(appCtx)
	story, err := storyRunner.Run(ctx, idea, cfg.Options.Title, cfg.Options.SaveStory)
	if err != nil {
		return err
	}

	// Phase 2: コマ台本化
	slog.Info("Phase 2: コマ台本を生成するのだ...")
	scriptRunner := builder.BuildScriptRunner(appCtx)
	panels, err := scriptRunner.Run(ctx, story.Content)
	if err != nil {
		return err
	}

	// Phase 3: 描画と公開
	slog.Info("Phase 3: コマを描画して公開するのだ...", "panels", len(panels))
	comicRunner, err := builder.BuildComicRunner(appCtx)
	if err != nil {
		return err
	}
	result, err := comicRunner.Run(ctx, story.Title, panels, outputDirOrDefault(cfg))
	if err != nil {
		return err
	}

	slog.Info("コミックが完成したのだ！",
		"markdown", result.MarkdownPath,
		"html", result.HTMLPath,
		"panels", result.PanelCount,
	)
	return nil
}

// ExecuteQA はキャラクターユニバースへの問い合わせに答えるのだ。
func ExecuteQA(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	qaRunner := builder.BuildQARunner(appCtx)
	answer, err := qaRunner.Run(ctx, cfg.Options.Query)
	if err != nil {
		return err
	}

	fmt.Println(answer.Answer)
	for _, img := range answer.Images {
		slog.Info("関連画像なのだ", "path", img)
	}
	return nil
}

// ExecuteCharacterAdd はキャラクターを登録するのだ。
// 参照画像のパスが指定されていればそれを読み込み、なければ説明文から生成する。
func ExecuteCharacterAdd(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	characterRunner := builder.BuildCharacterRunner(appCtx)
	params := runner.CharacterParams{
		Name:        cfg.Options.Name,
		Role:        cfg.Options.Role,
		Age:         cfg.Options.Age,
		Description: cfg.Options.Description,
		Personality: cfg.Options.Personality,
		Tags:        cfg.Options.Tags,
	}

	var char domain.Character
	if len(cfg.Options.ImagePaths) > 0 {
		images, err := readAll(ctx, appCtx, cfg.Options.ImagePaths)
		if err != nil {
			return err
		}
		char, err = characterRunner.AddFromImages(ctx, params, images)
		if err != nil {
			return err
		}
	} else {
		char, err = characterRunner.AddFromDescription(ctx, params)
		if err != nil {
			return err
		}
	}

	slog.Info("キャラクターを登録したのだ！", "id", char.ID, "name", char.Name, "generated", char.Generated)
	return nil
}

// ExecuteCharacterDelete はキャラクターをストアと検索インデックスの両方から消すのだ。
func ExecuteCharacterDelete(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	characterRunner := builder.BuildCharacterRunner(appCtx)
	if err := characterRunner.Delete(ctx, cfg.Options.Name); err != nil {
		return err
	}

	slog.Info("キャラクターを削除したのだ", "id", cfg.Options.Name)
	return nil
}

// ExecuteRecreate は既存画像のスタイルを登録済みキャラクターで再現するのだ。
func ExecuteRecreate(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	image, mimeType, err := readImage(ctx, appCtx, cfg.Options.ImageFile)
	if err != nil {
		return err
	}

	recreateRunner, err := builder.BuildRecreateRunner(ctx, appCtx)
	if err != nil {
		return err
	}

	result, err := recreateRunner.Run(ctx, image, mimeType, cfg.Options.Characters, cfg.Options.Prompt)
	if err != nil {
		return err
	}

	fmt.Println(result.Description)
	if result.ImagePath != "" {
		slog.Info("再現画像を保存したのだ", "path", result.ImagePath)
	}
	return nil
}

// ExecuteImageStory は画像を題材にストーリーを生成するのだ。
func ExecuteImageStory(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	image, mimeType, err := readImage(ctx, appCtx, cfg.Options.ImageFile)
	if err != nil {
		return err
	}

	analyzer, err := builder.BuildVisionAnalyzer(ctx, appCtx)
	if err != nil {
		return err
	}

	var text string
	if cfg.Options.Prompt != "" {
		text, err = analyzer.Analyze(ctx, image, mimeType, cfg.Options.Prompt)
	} else {
		text, err = analyzer.StoryFromImage(ctx, image, mimeType)
	}
	if err != nil {
		return err
	}

	fmt.Println(text)

	if cfg.Options.SaveStory {
		storyRunner := builder.BuildStoryRunner(appCtx)
		story := domain.NewStory(text, cfg.Options.Title)
		if err := storyRunner.Save(ctx, story); err != nil {
			return err
		}
		slog.Info("ストーリーを保存したのだ", "id", story.ID)
	}
	return nil
}

// ExecuteIngest はデータディレクトリを検索インデックスへ一括投入するのだ。
func ExecuteIngest(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	ingestRunner, err := builder.BuildIngestRunner(appCtx)
	if err != nil {
		return err
	}

	stats, err := ingestRunner.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("データ投入が完了したのだ！",
		"characters", stats.Characters, "texts", stats.Texts, "skipped", stats.Skipped)
	return nil
}

// ExecuteDesign は登録済みキャラクターのデザインシートを生成するのだ。
func ExecuteDesign(ctx context.Context, cfg *config.Config, seed int64) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if len(cfg.Options.Characters) == 0 {
		return fmt.Errorf("デザインシートを生成するキャラクターIDを指定してほしいのだ")
	}

	designRunner, err := builder.BuildDesignRunner(appCtx)
	if err != nil {
		return err
	}

	path, usedSeed, err := designRunner.Run(ctx, cfg.Options.Characters, seed, outputDirOrDefault(cfg))
	if err != nil {
		return err
	}

	slog.Info("デザインシートが完成したのだ！", "path", path, "seed", usedSeed)
	return nil
}

// outputDirOrDefault は出力先の指定がない場合にプロジェクトの comics 配下を使います。
func outputDirOrDefault(cfg *config.Config) string {
	if cfg.Options.OutputDir != "" {
		return cfg.Options.OutputDir
	}
	return cfg.ComicsDir
}

// resolveStoryInput はアイデアの入力元（フラグ or ファイル）を解決します。
func resolveStoryInput(ctx context.Context, appCtx *builder.AppContext) (string, error) {
	opts := appCtx.Options
	if opts.StoryIdea != "" {
		return opts.StoryIdea, nil
	}
	if opts.StoryFile == "" {
		return "", fmt.Errorf("ストーリーアイデア（--idea）または入力ファイル（--story-file）を指定してほしいのだ")
	}

	rc, err := appCtx.Reader.Open(ctx, opts.StoryFile)
	if err != nil {
		return "", fmt.Errorf("入力ファイル '%s' の読み込みに失敗しました: %w", opts.StoryFile, err)
	}
	defer rc.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, rc); err != nil {
		return "", err
	}
	idea := strings.TrimSpace(buf.String())
	if idea == "" {
		return "", fmt.Errorf("入力ファイル '%s' が空です", opts.StoryFile)
	}
	return idea, nil
}

// readImage は画像ファイルを読み込み、拡張子からMIMEタイプを推定します。
func readImage(ctx context.Context, appCtx *builder.AppContext, path string) ([]byte, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("画像ファイル（--image-file）を指定してほしいのだ")
	}
	rc, err := appCtx.Reader.Open(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("画像ファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}

func readAll(ctx context.Context, appCtx *builder.AppContext, paths []string) ([][]byte, error) {
	images := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, _, err := readImage(ctx, appCtx, path)
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}
	return images, nil
}
