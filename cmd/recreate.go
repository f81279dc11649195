package cmd

import (
	"fmt"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// recreateCmd は、既存画像のスタイルを登録済みキャラクターで描き直すのだ。
var recreateCmd = &cobra.Command{
	Use:   "recreate",
	Short: "画像のスタイルを引き継いで自分のキャラクターで描き直すのだ！",
	Long: `元画像のアートスタイルをビジョンモデルで要約し、その雰囲気のまま
登録済みキャラクターを登場させた新しい画像を生成するのだ。
--characters を省略すると登録済みの全キャラクター（最大3人）を使うのだよ。`,
	Example: `  gandhinagar-comic recreate --image-file ./reference.png --characters "Meera Patel,Kabir Shah"
  gandhinagar-comic recreate --image-file ./reference.png --prompt "make them play cricket"`,
	RunE: recreateCommand,
}

func init() {
	recreateCmd.Flags().StringVar(&opts.ImageFile, "image-file", "", "スタイルの手本にする画像のパス")
	recreateCmd.Flags().StringSliceVar(&opts.Characters, "characters", nil, "登場させるキャラクター名（カンマ区切り）")
	recreateCmd.Flags().StringVar(&opts.Prompt, "prompt", "", "シーンへの追加指示")
}

func recreateCommand(cmd *cobra.Command, args []string) error {
	if opts.ImageFile == "" {
		return fmt.Errorf("手本の画像ファイル（--image-file）を指定してほしいのだ")
	}
	return pipeline.ExecuteRecreate(cmd.Context(), loadConfig())
}
