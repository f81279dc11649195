package cmd

import (
	"fmt"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// comicCmd は、ストーリー生成からパネル描画、Markdown出力までを一気通貫で実行するのだ。
var comicCmd = &cobra.Command{
	Use:   "comic",
	Short: "アイデアから6コマ漫画を最後まで作り切るのだ！",
	Long: `ストーリー生成、パネル脚本の作成、各パネルの画像生成、そして
Markdown/HTMLコミックの出力までを順番に実行するのだ。
画像生成は失敗してもパイプラインを止めず、成功したパネルだけで出力するのだよ。`,
	Example: `  gandhinagar-comic comic -i "The annual school sports day goes wrong" -t "Sports Day" -o ./out`,
	RunE:    comicCommand,
}

func comicCommand(cmd *cobra.Command, args []string) error {
	if opts.StoryIdea == "" && opts.StoryFile == "" {
		return fmt.Errorf("ストーリーアイデア（--idea）または入力ファイル（--story-file）を指定してほしいのだ")
	}
	return pipeline.ExecuteComic(cmd.Context(), loadConfig())
}
