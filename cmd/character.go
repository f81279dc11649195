package cmd

import (
	"fmt"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// characterCmd は、キャラクターの登録と削除を担当するのだ。
var characterCmd = &cobra.Command{
	Use:   "character",
	Short: "キャラクターを登録・削除するのだ！",
	Long: `参照画像（--images）を添えて登録するか、説明文だけを渡して
参照画像をその場で生成させるかの二通りで登録できるのだ。
登録したキャラクターは検索インデックスにも反映されるのだよ。`,
	Example: `  gandhinagar-comic character add --name "Meera Patel" --role student --age 12 \
      --description "Curious girl with round glasses" --personality "bookish, brave" \
      --images ./meera_front.png,./meera_side.png
  gandhinagar-comic character add --name "Principal Rao" --role teacher \
      --description "Tall man with a grey moustache and a kind smile"
  gandhinagar-comic character delete --name meera_patel_0a1b2c3d`,
}

var characterAddCmd = &cobra.Command{
	Use:   "add",
	Short: "新しいキャラクターを登録するのだ",
	RunE:  characterAddCommand,
}

var characterDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "キャラクターをストアとインデックスの両方から削除するのだ",
	RunE:  characterDeleteCommand,
}

func init() {
	flags := characterCmd.PersistentFlags()
	flags.StringVar(&opts.Name, "name", "", "キャラクター名（削除時はID）")
	flags.StringVar(&opts.Role, "role", "student", "役割（student, teacher など）")
	flags.StringVar(&opts.Age, "age", "", "年齢")
	flags.StringVar(&opts.Description, "description", "", "外見の説明")
	flags.StringVar(&opts.Personality, "personality", "", "性格の説明")
	flags.StringSliceVar(&opts.Tags, "tags", nil, "検索用タグ（カンマ区切り）")
	flags.StringSliceVar(&opts.ImagePaths, "images", nil, "参照画像のパス（カンマ区切り）")

	characterCmd.AddCommand(characterAddCmd, characterDeleteCmd)
}

func characterAddCommand(cmd *cobra.Command, args []string) error {
	if opts.Name == "" {
		return fmt.Errorf("キャラクター名（--name）は必須なのだ")
	}
	if len(opts.ImagePaths) == 0 && opts.Description == "" {
		return fmt.Errorf("参照画像（--images）か外見の説明（--description）のどちらかが必要なのだ")
	}
	return pipeline.ExecuteCharacterAdd(cmd.Context(), loadConfig())
}

func characterDeleteCommand(cmd *cobra.Command, args []string) error {
	if opts.Name == "" {
		return fmt.Errorf("削除対象のキャラクターID（--name）を指定してほしいのだ")
	}
	return pipeline.ExecuteCharacterDelete(cmd.Context(), loadConfig())
}
