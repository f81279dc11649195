package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultImageModel     = "gemini-3-pro-image-preview"
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultImageAPIURL    = "https://image.pollinations.ai/prompt/"
	DefaultImageTimeout   = 90 * time.Second
	DefaultRateInterval   = 3 * time.Second
	DefaultPanelCount     = 6
	DefaultBaseDir        = "gandhinagar_school_project"

	// DefaultSafetySuffix は画像生成プロンプトの末尾に必ず付与する安全条項なのだ。
	// 画像APIに送るすべてのプロンプトにこの文言が含まれていなければならないのだよ。
	DefaultSafetySuffix = "Comic book art style, clean lines, vibrant colors, slightly anime-influenced webtoon aesthetic, " +
		"safe for work, no nudity, no sexual content, no gore, no real people, " +
		"no copyrighted characters or logos, original characters only, all-ages friendly"
)

// Config はアプリケーション全体の環境設定（APIキーやパス設定）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	EmbeddingModel   string
	ImageAPIURL      string
	SafetySuffix     string
	ImageTimeout     time.Duration
	RateInterval     time.Duration
	PanelCount       int

	// ストレージルート（キャラクター・ストーリーが一次ストア、vector_db は二次インデックス）
	BaseDir       string
	CharactersDir string
	FamiliesDir   string
	LocationsDir  string
	StoriesDir    string
	ComicsDir     string
	VectorDBDir   string

	Options RunOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	base := envutil.GetEnv("COMIC_BASE_DIR", DefaultBaseDir)

	cfg := &Config{
		GeminiAPIKey:     envutil.GetEnv("GOOGLE_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		EmbeddingModel:   envutil.GetEnv("EMBEDDING_MODEL", DefaultEmbeddingModel),
		ImageAPIURL:      envutil.GetEnv("POLLINATIONS_API_URL", DefaultImageAPIURL),
		SafetySuffix:     envutil.GetEnv("IMAGE_SAFETY_SUFFIX", DefaultSafetySuffix),
		ImageTimeout:     DefaultImageTimeout,
		RateInterval:     DefaultRateInterval,
		PanelCount:       DefaultPanelCount,
		BaseDir:          base,
		CharactersDir:    filepath.Join(base, "data", "1_characters", "students"),
		FamiliesDir:      filepath.Join(base, "data", "2_families"),
		LocationsDir:     filepath.Join(base, "data", "3_locations"),
		StoriesDir:       filepath.Join(base, "stories"),
		ComicsDir:        filepath.Join(base, "comics"),
		VectorDBDir:      filepath.Join(base, "vector_db"),
	}
	return cfg
}

// Validate は必須設定の有無を確認するのだ。
// APIキーが無くても起動自体は続行し、実際にプロバイダを呼ぶ時点で初めて失敗させるのだよ。
func (c *Config) Validate() {
	if c.GeminiAPIKey == "" {
		slog.Warn("GOOGLE_API_KEY が設定されていません。テキスト生成・画像解析・埋め込みは失敗するのだ")
	}
}

// RunOptions は CLI フラグから渡される実行時のパラメータなのだ。
type RunOptions struct {
	// ソース入力関連
	StoryIdea string // --idea
	StoryFile string // --story-file
	Query     string // --query
	ImageFile string // --image-file
	Title     string // --title
	OutputDir string // --output-dir

	// キャラクター関連
	Name        string   // --name
	Role        string   // --role
	Age         string   // --age
	Description string   // --description
	Personality string   // --personality
	Tags        []string // --tags
	Characters  []string // --characters: 解決対象のキャラクター名リスト
	ImagePaths  []string // --images: 参照画像のパス

	// AI挙動設定
	AIModel    string // --model: テキスト生成用のGeminiモデル
	ImageModel string // --image-model: デザインシート生成用のGeminiモデル
	EmbedModel string // --embedding-model
	SaveStory  bool   // --save
	Prompt     string // --prompt: 再現生成時の追加指示
}
