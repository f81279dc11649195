package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-text-format/pkg/builder"
	"github.com/shouni/go-text-format/pkg/md2htmlrunner"
	"google.golang.org/genai"

	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/config"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/index"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/publisher"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/render"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/resolver"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/runner"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/store"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/vision"
)

const (
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
	imageCacheTTL          = 1 * time.Hour
)

// NewAppContext は、提供された設定と共有コンポーネントを使用して
// アプリケーションコンテキストを初期化して返すのだ。
//
// 検索インデックスの初期化失敗は致命的ではなく、警告を残して nil のまま
// 続行します（全操作はインデックスなしでも動作する）。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	httpClient := httpkit.New(cfg.ImageTimeout)

	aiClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("リモートIOファクトリの初期化に失敗しました: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	appCtx := &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Reader:     reader,
		Writer:     writer,
		Characters: store.NewCharacterStore(cfg.CharactersDir),
		Stories:    store.NewStoryStore(cfg.StoriesDir),
		Index:      openIndex(ctx, cfg),
		Renderer:   render.NewClient(cfg.ImageAPIURL, cfg.SafetySuffix, cfg.ImageTimeout, cfg.RateInterval),
		Prompts:    prompts.NewBuilder(cfg.SafetySuffix),
		aiClient:   aiClient,
		httpClient: httpClient,
	}
	return appCtx, nil
}

// openIndex は検索インデックスをベストエフォートで開きます。
// APIキーがない・ストレージが開けない場合は nil を返し、処理は劣化モードで続行します。
func openIndex(ctx context.Context, cfg *config.Config) *index.Index {
	embedder, err := index.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		slog.Warn("埋め込みクライアントを初期化できないため、検索インデックスなしで続行します", "error", err)
		return nil
	}
	idx, err := index.Open(cfg.VectorDBDir, embedder)
	if err != nil {
		slog.Warn("検索インデックスを開けないため、インデックスなしで続行します", "error", err)
		return nil
	}
	return idx
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	const defaultGeminiTemperature = float32(0.7)
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// textGenerator はモデル名を固定したテキスト生成器を返します。
func (a *AppContext) textGenerator() *runner.GeminiTextGenerator {
	return runner.NewGeminiTextGenerator(a.aiClient, a.Config.GeminiModel)
}

// searcher は nil 安全な Searcher を返します。インデックスがない場合は nil です。
func (a *AppContext) searcher() runner.Searcher {
	if a.Index == nil {
		return nil
	}
	return a.Index
}

// BuildStoryRunner はストーリー生成の Runner を構築します。
func BuildStoryRunner(appCtx *AppContext) *runner.StoryRunner {
	var indexer runner.StoryIndexer
	if appCtx.Index != nil {
		indexer = appCtx.Index
	}
	return runner.NewStoryRunner(appCtx.textGenerator(), appCtx.searcher(), indexer, appCtx.Stories, appCtx.Prompts)
}

// BuildScriptRunner はコマ台本生成の Runner を構築します。
func BuildScriptRunner(appCtx *AppContext) *runner.ScriptRunner {
	return runner.NewScriptRunner(appCtx.textGenerator(), appCtx.searcher(), appCtx.Prompts, appCtx.Config.PanelCount)
}

// BuildComicRunner はコミック描画・公開の Runner を構築します。
func BuildComicRunner(appCtx *AppContext) (*runner.ComicRunner, error) {
	htmlRunner, err := buildHTMLRunner()
	if err != nil {
		return nil, err
	}
	pub := publisher.NewComicPublisher(appCtx.Writer, htmlRunner)
	return runner.NewComicRunner(appCtx.Renderer, pub), nil
}

// BuildQARunner はQ&Aの Runner を構築します。
func BuildQARunner(appCtx *AppContext) *runner.QARunner {
	return runner.NewQARunner(appCtx.textGenerator(), appCtx.searcher(), appCtx.Renderer, appCtx.Prompts)
}

// BuildCharacterRunner はキャラクター登録・削除の Runner を構築します。
func BuildCharacterRunner(appCtx *AppContext) *runner.CharacterRunner {
	var indexer runner.CharacterIndexer
	if appCtx.Index != nil {
		indexer = appCtx.Index
	}
	return runner.NewCharacterRunner(appCtx.Characters, indexer, appCtx.Renderer, appCtx.Prompts)
}

// BuildRecreateRunner は画像再現の Runner を構築します。ビジョン解析が必須です。
func BuildRecreateRunner(ctx context.Context, appCtx *AppContext) (*runner.RecreateRunner, error) {
	analyzer, err := vision.NewAnalyzer(ctx, appCtx.Config.GeminiAPIKey, appCtx.Config.GeminiModel)
	if err != nil {
		return nil, err
	}
	res := resolver.NewResolver(appCtx.searcherForResolver(), appCtx.Characters)
	return runner.NewRecreateRunner(analyzer, res, appCtx.Renderer, appCtx.Prompts), nil
}

// BuildVisionAnalyzer は画像解析器を構築します。
func BuildVisionAnalyzer(ctx context.Context, appCtx *AppContext) (*vision.Analyzer, error) {
	return vision.NewAnalyzer(ctx, appCtx.Config.GeminiAPIKey, appCtx.Config.GeminiModel)
}

// BuildIngestRunner はデータ一括投入の Runner を構築します。
func BuildIngestRunner(appCtx *AppContext) (*runner.IngestRunner, error) {
	if appCtx.Index == nil {
		return nil, fmt.Errorf("検索インデックスが利用できないため ingest は実行できません")
	}
	cfg := appCtx.Config
	return runner.NewIngestRunner(appCtx.Index, cfg.CharactersDir, cfg.FamiliesDir, cfg.LocationsDir), nil
}

// BuildDesignRunner はデザインシート生成の Runner を構築します。
func BuildDesignRunner(appCtx *AppContext) (*runner.DesignRunner, error) {
	imgGen, err := initializeImageKit(appCtx)
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}
	return runner.NewDesignRunner(imgGen, appCtx.Characters, appCtx.Writer, appCtx.Prompts), nil
}

// initializeImageKit は高品質モデル用の画像生成エンジンを初期化します。
func initializeImageKit(appCtx *AppContext) (imagekit.ImageGenerator, error) {
	imgCache := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	core, err := imagekit.NewGeminiImageCore(
		appCtx.aiClient,
		appCtx.Reader,
		appCtx.httpClient,
		imgCache,
		imageCacheTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCoreの初期化に失敗しました: %w", err)
	}
	return imagekit.NewGeminiGenerator(appCtx.Config.GeminiImageModel, core)
}

// searcherForResolver は resolver 用の nil 安全な検索器を返します。
func (a *AppContext) searcherForResolver() resolver.Searcher {
	if a.Index == nil {
		return nil
	}
	return a.Index
}

// buildHTMLRunner は Markdown から HTML ビューアへの変換器を構築します。
func buildHTMLRunner() (md2htmlrunner.Runner, error) {
	appBuilder, err := builder.NewBuilder(builder.BuilderConfig{
		EnableHardWraps: true,
		Mode:            "webtoon",
	})
	if err != nil {
		return nil, fmt.Errorf("アプリケーションビルダーの初期化に失敗しました: %w", err)
	}
	htmlRunner, err := appBuilder.BuildRunner()
	if err != nil {
		return nil, fmt.Errorf("MarkdownToHtmlRunnerの初期化に失敗しました: %w", err)
	}
	return htmlRunner, nil
}
