package cmd

import (
	"fmt"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

var designSeed int64

// designCmd は、登録済みキャラクターの設定画（デザインシート）を生成するのだ。
var designCmd = &cobra.Command{
	Use:   "design",
	Short: "キャラクターのデザインシートを生成するのだ！",
	Long: `登録済みキャラクターの参照画像と外見の説明をもとに、三面図風の
デザインシートを高品質な画像モデルで生成するのだ。
--seed を固定すると同じ構図を再現できるのだよ。`,
	Example: `  gandhinagar-comic design --characters meera_patel_0a1b2c3d --seed 42 -o ./sheets`,
	RunE:    designCommand,
}

func init() {
	designCmd.Flags().StringSliceVar(&opts.Characters, "characters", nil, "対象キャラクターのID（カンマ区切り）")
	designCmd.Flags().Int64Var(&designSeed, "seed", 0, "画像生成のシード値（0なら自動）")
}

func designCommand(cmd *cobra.Command, args []string) error {
	if len(opts.Characters) == 0 {
		return fmt.Errorf("対象キャラクターのID（--characters）を指定してほしいのだ")
	}
	return pipeline.ExecuteDesign(cmd.Context(), loadConfig(), designSeed)
}
