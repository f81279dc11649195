package cmd

import (
	"fmt"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// imageCmd は、既存画像を解析してストーリーを起こすのだ。
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "画像からストーリーを生成するのだ！",
	Long: `渡された画像をビジョンモデルで解析し、そこから着想したストーリーを
生成するのだ。--prompt で解析の指示を差し替えられるし、--save を付ければ
生成したストーリーを保存して検索インデックスにも登録するのだよ。`,
	Example: `  gandhinagar-comic image --image-file ./playground.png --save
  gandhinagar-comic image --image-file ./sketch.jpg --prompt "Describe the mood of this scene."`,
	RunE: imageCommand,
}

func init() {
	imageCmd.Flags().StringVar(&opts.ImageFile, "image-file", "", "解析する画像のパス")
	imageCmd.Flags().StringVar(&opts.Prompt, "prompt", "", "解析に使う指示文（省略時はストーリー生成用の既定文）")
}

func imageCommand(cmd *cobra.Command, args []string) error {
	if opts.ImageFile == "" {
		return fmt.Errorf("画像ファイル（--image-file）を指定してほしいのだ")
	}
	return pipeline.ExecuteImageStory(cmd.Context(), loadConfig())
}
