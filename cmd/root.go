package cmd

import (
	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は各サブコマンドで共有するコマンドライン引数なのだ。
var opts config.RunOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.StoryIdea, "idea", "i", "", "短いストーリーアイデアなのだ（例: 'Kabir woke up late'）。")
	rootCmd.PersistentFlags().StringVarP(&opts.StoryFile, "story-file", "f", "", "アイデアを書いたファイルのパス（ローカル or gs://...）なのだ。")

	// --- 出力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "成果物を保存するディレクトリ（ローカル or gs://...、省略時はプロジェクトの comics 配下）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Title, "title", "t", "", "ストーリー／コミックのタイトルなのだ（省略時は本文から自動生成）。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "デザインシート生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.EmbedModel, "embed-model", config.DefaultEmbeddingModel, "使用する埋め込みモデル名なのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.SaveStory, "save", false, "生成したストーリーを保存して検索インデックスにも登録するのだ。")
}

// preRunAppE は、コマンド実行前の共通チェックなのだ。
// APIキーがなくてもインデックスなしの劣化モードで動く操作があるため、
// ここでは警告に留めて処理を止めないのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	cfg.Validate()
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"gandhinagar-comic",
		addAppFlags,
		preRunAppE,
		storyCmd,
		comicCmd,
		characterCmd,
		qaCmd,
		imageCmd,
		recreateCmd,
		ingestCmd,
		designCmd,
	)
}

// loadConfig はグローバル設定にコマンドライン引数を反映して返すのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.EmbeddingModel = opts.EmbedModel
	cfg.Options = opts
	return cfg
}
