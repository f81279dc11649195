package index

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Embedder はテキストを埋め込みベクトルに変換するプロバイダの抽象です。
// プロバイダが未初期化でも Index 側が空結果に切り詰めて動作を続けられるよう、
// Index はこのインターフェースにのみ依存します。
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder は Gemini API の埋め込みモデルを使う Embedder 実装です。
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder は埋め込みクライアントを初期化します。
// APIキーが空の場合はエラーを返し、呼び出し側は縮退モードを選択できます。
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("埋め込みプロバイダのAPIキーが設定されていません")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("埋め込みクライアントの初期化に失敗しました: %w", err)
	}

	return &GeminiEmbedder{client: client, model: model}, nil
}

// Embed は与えられたテキストの埋め込みベクトルを返します。
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("埋め込みの生成に失敗しました: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("埋め込みプロバイダが空のベクトルを返しました")
	}
	return resp.Embeddings[0].Values, nil
}
