// Package render は画像生成ゲートウェイを提供します。
//
// 画像生成はパイプライン全体でベストエフォートです。失敗した画像は
// 「存在しない」ものとして扱い、エラーで処理全体を止めることはしません。
package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	cacheTTL        = 30 * time.Minute
	cacheCleanup    = 10 * time.Minute
	maxResponseSize = 20 << 20 // 20MiB
)

// Client は外部の画像生成API（プロンプトをURLに埋め込むGET型）へのクライアントです。
type Client struct {
	baseURL      string
	safetySuffix string
	httpClient   *http.Client
	cache        *cache.Cache
	limiter      *rate.Limiter
}

// NewClient は画像生成クライアントを構築します。
// safetySuffix が空でない限り、送信するプロンプト末尾への付与を保証します。
func NewClient(baseURL, safetySuffix string, timeout, rateInterval time.Duration) *Client {
	return &Client{
		baseURL:      baseURL,
		safetySuffix: safetySuffix,
		httpClient:   &http.Client{Timeout: timeout},
		cache:        cache.New(cacheTTL, cacheCleanup),
		limiter:      rate.NewLimiter(rate.Every(rateInterval), 1),
	}
}

// Generate はプロンプトから画像を1枚生成します。
//
// プロンプトは空白を単一スペースに正規化し、安全サフィックスの付与を確認した上で
// URLエンコードして送信します。失敗した場合は警告を残して ok=false を返し、
// エラーは返しません（画像は欠けてもパイプラインは進みます）。
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, bool) {
	clean := CollapseWhitespace(prompt)
	if clean == "" {
		slog.Warn("空のプロンプトをスキップします")
		return nil, false
	}
	if c.safetySuffix != "" && !strings.Contains(clean, CollapseWhitespace(c.safetySuffix)) {
		clean = clean + ". " + CollapseWhitespace(c.safetySuffix)
	}

	if data, found := c.cache.Get(clean); found {
		slog.Debug("画像キャッシュにヒットしました")
		return data.([]byte), true
	}

	if err := c.limiter.Wait(ctx); err != nil {
		slog.Warn("レート制限の待機が中断されました", "error", err)
		return nil, false
	}

	reqURL := c.baseURL + url.PathEscape(clean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		slog.Warn("画像リクエストの構築に失敗しました", "error", err)
		return nil, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("画像の生成に失敗しました", "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("画像APIがエラーを返しました", "status", resp.StatusCode)
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		slog.Warn("画像データの読み込みに失敗しました", "error", err)
		return nil, false
	}
	if len(data) == 0 {
		slog.Warn("画像APIが空のレスポンスを返しました")
		return nil, false
	}

	c.cache.Set(clean, data, cache.DefaultExpiration)
	return data, true
}

// GeneratePanel はコマ番号付きのログを残しつつ Generate を呼び出します。
func (c *Client) GeneratePanel(ctx context.Context, prompt string, panelNum int) ([]byte, bool) {
	slog.Info(fmt.Sprintf("コマ %d を生成します", panelNum))
	data, ok := c.Generate(ctx, prompt)
	if !ok {
		slog.Warn(fmt.Sprintf("コマ %d の生成に失敗したためスキップします", panelNum))
	}
	return data, ok
}

// CollapseWhitespace は改行を含む連続空白を単一スペースへ正規化します。
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
