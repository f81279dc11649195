package cmd

import (
	"fmt"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// storyCmd は、短いアイデアから完全なストーリーを生成するのだ。
var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "短いアイデアから全年齢向けのストーリーを生成するのだ！",
	Long: `登録済みキャラクターの文脈を検索インデックスから引き、短いアイデアを
6コマ漫画に適した150〜250語の完全なストーリーへ展開するのだ。
--save を付けると保存して検索インデックスにも登録されるのだよ。`,
	Example: `  gandhinagar-comic story -i "Kabir tries to sneak a puppy into class" --save`,
	RunE:    storyCommand,
}

func storyCommand(cmd *cobra.Command, args []string) error {
	if opts.StoryIdea == "" && opts.StoryFile == "" {
		return fmt.Errorf("ストーリーアイデア（--idea）または入力ファイル（--story-file）を指定してほしいのだ")
	}
	return pipeline.ExecuteStory(cmd.Context(), loadConfig())
}
