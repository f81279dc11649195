package cmd

import (
	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// ingestCmd は、データディレクトリを一括で検索インデックスに取り込むのだ。
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "キャラクター・家族・場所のデータをまとめてインデックスに取り込むのだ！",
	Long: `データディレクトリを走査して、キャラクターのJSONと家族・場所の
テキストファイルを検索インデックスへ一括登録するのだ。
壊れたファイルは警告してスキップするのだよ。`,
	Example: `  gandhinagar-comic ingest`,
	RunE:    ingestCommand,
}

func ingestCommand(cmd *cobra.Command, args []string) error {
	return pipeline.ExecuteIngest(cmd.Context(), loadConfig())
}
