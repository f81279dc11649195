// Package runner は各パイプライン段の実行実体を提供します。
//
// 各 Runner は1つの操作（ストーリー生成、台本化、コミック描画、Q&A など）を担い、
// 依存はすべてコンストラクタで注入します。画像生成と検索インデックスは
// ベストエフォートの依存であり、失敗しても Runner はエラーを返しません。
package runner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/index"
)

// TextGenerator はテキスト生成AIとの通信を抽象化する契約です。
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator は画像生成ゲートウェイの契約です。失敗は ok=false で表現します。
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, bool)
	GeneratePanel(ctx context.Context, prompt string, panelNum int) ([]byte, bool)
}

// Searcher は検索インデックスのうち Runner が使う操作だけを切り出したものです。
type Searcher interface {
	Search(ctx context.Context, query string, k int) []index.Document
}

// GeminiTextGenerator は gemini クライアントを TextGenerator に適合させます。
type GeminiTextGenerator struct {
	client gemini.GenerativeModel
	model  string
}

// NewGeminiTextGenerator はモデル名を固定したテキスト生成器を返します。
func NewGeminiTextGenerator(client gemini.GenerativeModel, model string) *GeminiTextGenerator {
	return &GeminiTextGenerator{client: client, model: model}
}

func (g *GeminiTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerateContent(ctx, prompt, g.model)
	if err != nil {
		return "", fmt.Errorf("テキスト生成に失敗しました: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// searchContext は検索インデックスから文脈テキストを組み立てます。
// インデックスが劣化している場合は空文字を返します。
func searchContext(ctx context.Context, idx Searcher, query string, k int) string {
	if idx == nil {
		return ""
	}
	docs := idx.Search(ctx, query, k)
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// extractJSONArray はAI応答からJSON配列部分を取り出します。
// コードフェンス、最も外側の括弧、応答全体の順でフォールバックします。
func extractJSONArray(raw string) string {
	raw = strings.TrimSpace(raw)

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}

	first := strings.Index(raw, "[")
	last := strings.LastIndex(raw, "]")
	if first != -1 && last != -1 && last > first {
		return raw[first : last+1]
	}

	return raw
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
