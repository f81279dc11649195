// Package vision は画像理解（説明・スタイル抽出・画像からのストーリー起こし）を提供します。
package vision

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
)

// Analyzer はマルチモーダルモデルで画像を解析します。
type Analyzer struct {
	client *genai.Client
	model  string
}

// NewAnalyzer はビジョン解析器を構築します。APIキーが空の場合はエラーを返し、
// 呼び出し側が画像解析なしの劣化モードを選択します。
func NewAnalyzer(ctx context.Context, apiKey, model string) (*Analyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("APIキーが設定されていないため画像解析を利用できません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ビジョンクライアントの初期化に失敗しました: %w", err)
	}
	return &Analyzer{client: client, model: model}, nil
}

// Analyze は画像と指示文をモデルへ渡し、応答テキストを返します。
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("画像データが空です")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("画像解析に失敗しました: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("画像解析の応答が空でした")
	}
	return text, nil
}

// Describe は画像の詳細な説明文を返します。
func (a *Analyzer) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	return a.Analyze(ctx, image, mimeType, prompts.DescribeImage)
}

// StyleSummary は再現用にスタイルと構図の要約（2〜3文）を返します。
func (a *Analyzer) StyleSummary(ctx context.Context, image []byte, mimeType string) (string, error) {
	return a.Analyze(ctx, image, mimeType, prompts.StyleSummary)
}

// StoryFromImage は画像を題材にした短いストーリーを返します。
func (a *Analyzer) StoryFromImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	return a.Analyze(ctx, image, mimeType, prompts.StoryFromImage)
}
