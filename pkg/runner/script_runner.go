package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
)

const scriptContextK = 6

// ScriptRunner はストーリーをコマ台本（構造化JSON）へ変換する実行実体なのだ。
type ScriptRunner struct {
	gen        TextGenerator
	idx        Searcher
	prompts    *prompts.Builder
	panelCount int
}

// NewScriptRunner は依存関係を注入して初期化します。
func NewScriptRunner(gen TextGenerator, idx Searcher, pb *prompts.Builder, panelCount int) *ScriptRunner {
	return &ScriptRunner{
		gen:        gen,
		idx:        idx,
		prompts:    pb,
		panelCount: panelCount,
	}
}

// Run はストーリー本文からコマ台本を生成します。
// 各コマの画像プロンプトには安全サフィックスの付与を保証します。
func (sr *ScriptRunner) Run(ctx context.Context, storyText string) ([]domain.PanelPrompt, error) {
	contextText := searchContext(ctx, sr.idx, storyText, scriptContextK)

	slog.Info("コマ台本を生成します", "panels", sr.panelCount)
	resp, err := sr.gen.Generate(ctx, sr.prompts.PanelScript(storyText, contextText, sr.panelCount))
	if err != nil {
		return nil, fmt.Errorf("コマ台本の生成に失敗しました: %w", err)
	}

	panels, err := sr.parseResponse(resp)
	if err != nil {
		return nil, err
	}

	for i := range panels {
		if panels[i].Panel == 0 {
			panels[i].Panel = i + 1
		}
		panels[i].ImagePrompt = sr.prompts.WithSafetySuffix(panels[i].ImagePrompt)
	}
	return panels, nil
}

func (sr *ScriptRunner) parseResponse(raw string) ([]domain.PanelPrompt, error) {
	rawJSON := extractJSONArray(raw)

	var panels []domain.PanelPrompt
	if err := json.Unmarshal([]byte(rawJSON), &panels); err != nil {
		return nil, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	if len(panels) == 0 {
		return nil, fmt.Errorf("コマ台本が空でした")
	}
	return panels, nil
}
