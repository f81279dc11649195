package builder

import (
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/internal/config"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/index"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/render"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/store"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持するのだ。
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config        // 環境変数から読み込まれたグローバルな設定
	Options    config.RunOptions     // コマンドラインから渡された実行時の設定
	Reader     remoteio.InputReader  // 入力ファイル（ローカル or GCS）の読み込み元
	Writer     remoteio.OutputWriter // 成果物の出力先
	Characters *store.CharacterStore // キャラクターの一次ストア
	Stories    *store.StoryStore     // ストーリーの一次ストア
	Index      *index.Index          // 検索インデックス（劣化モードでは nil）
	Renderer   *render.Client        // ベストエフォートの画像生成ゲートウェイ
	Prompts    *prompts.Builder      // プロンプト組み立て器
	aiClient   gemini.GenerativeModel
	httpClient httpkit.ClientInterface
}

// Close は AppContext が保持するリソースを解放します。
func (a *AppContext) Close() error {
	if a.Index != nil {
		return a.Index.Close()
	}
	return nil
}
