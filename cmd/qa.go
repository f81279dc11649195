package cmd

import (
	"fmt"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// qaCmd は、キャラクター世界に関する質問に答えるのだ。
var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "キャラクター世界について質問するのだ！",
	Long: `検索インデックスから関連するキャラクターや設定を引き当てて回答するのだ。
「show me」「draw」のような依頼が含まれていれば、該当キャラクターの
画像もその場で生成するのだよ。`,
	Example: `  gandhinagar-comic qa -q "Who is the bravest student?"
  gandhinagar-comic qa -q "Show me Meera and Kabir playing cricket"`,
	RunE: qaCommand,
}

func init() {
	qaCmd.Flags().StringVarP(&opts.Query, "query", "q", "", "質問文")
}

func qaCommand(cmd *cobra.Command, args []string) error {
	if opts.Query == "" {
		return fmt.Errorf("質問文（--query）を指定してほしいのだ")
	}
	return pipeline.ExecuteQA(cmd.Context(), loadConfig())
}
