package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/index"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/resolver"
)

const (
	qaContextK  = 4
	maxQAImages = 3
)

// 画像の提示を求める問い合わせを検出するためのキーワード群です。
var imageRequestKeywords = []string{
	"picture", "image", "photo", "show me", "give me a picture",
	"what does", "look like", "give image", "show image",
}

// Answer はQ&Aの応答です。回答文と、関連または生成された画像のパスを持ちます。
type Answer struct {
	Answer string
	Images []string
}

// QARunner はキャラクターユニバースへの問い合わせに答える実行実体なのだ。
type QARunner struct {
	gen      TextGenerator
	idx      Searcher
	renderer ImageGenerator
	prompts  *prompts.Builder
	tempDir  string
}

// NewQARunner は依存関係を注入して初期化します。renderer は nil でもよく、
// その場合はオンデマンドの画像生成をスキップします。
func NewQARunner(gen TextGenerator, idx Searcher, renderer ImageGenerator, pb *prompts.Builder) *QARunner {
	return &QARunner{
		gen:      gen,
		idx:      idx,
		renderer: renderer,
		prompts:  pb,
		tempDir:  os.TempDir(),
	}
}

// Run は問い合わせに対する回答と関連画像を返します。
//
// 検索インデックスから文脈を組み立て、ヒットしたキャラクターの参照画像を集めます。
// 問い合わせが画像を求めている場合は、キャラクターの視覚説明から画像を
// オンデマンドで生成します。返す画像は最大 maxQAImages 枚です。
func (qr *QARunner) Run(ctx context.Context, query string) (Answer, error) {
	docs := qr.search(ctx, query)

	var contextParts []string
	var characters []domain.Character
	var images []string
	seenImages := make(map[string]bool)

	for _, doc := range docs {
		contextParts = append(contextParts, doc.Content)

		char, ok := qr.characterFromDoc(doc)
		if !ok {
			continue
		}
		characters = append(characters, char)

		for _, imgPath := range char.ImagePaths {
			abs, err := filepath.Abs(imgPath)
			if err != nil {
				abs = imgPath
			}
			if seenImages[abs] {
				continue
			}
			if _, err := os.Stat(abs); err != nil {
				continue
			}
			seenImages[abs] = true
			images = append(images, abs)
		}
	}

	if qr.isImageRequest(query) && len(characters) > 0 && qr.renderer != nil {
		if generated, ok := qr.generateImage(ctx, query, characters); ok {
			images = append(images, generated)
		}
	}

	contextText := strings.Join(contextParts, "\n\n")
	if len(images) > maxQAImages {
		images = images[:maxQAImages]
	}

	answer, err := qr.gen.Generate(ctx, qr.prompts.Answer(query, contextText, len(images)))
	if err != nil {
		return Answer{}, fmt.Errorf("回答の生成に失敗しました: %w", err)
	}

	return Answer{Answer: answer, Images: images}, nil
}

func (qr *QARunner) search(ctx context.Context, query string) []index.Document {
	if qr.idx == nil {
		return nil
	}
	return qr.idx.Search(ctx, query, qaContextK)
}

// characterFromDoc は検索ヒットからキャラクターレコードを復元します。
// Full Data マーカーを優先し、旧形式のドキュメントは source のファイルを読みます。
func (qr *QARunner) characterFromDoc(doc index.Document) (domain.Character, bool) {
	if char, ok := index.ParseFullData(doc.Content); ok {
		return char, true
	}

	if doc.Metadata["type"] != "character" {
		return domain.Character{}, false
	}
	source := doc.Metadata["source"]
	if source == "" || !strings.HasSuffix(source, ".json") {
		return domain.Character{}, false
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return domain.Character{}, false
	}
	var char domain.Character
	if err := json.Unmarshal(data, &char); err != nil {
		slog.Warn("旧形式ドキュメントの復元に失敗しました", "source", source)
		return domain.Character{}, false
	}
	return char, true
}

func (qr *QARunner) isImageRequest(query string) bool {
	lower := strings.ToLower(query)
	for _, keyword := range imageRequestKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// generateImage は問い合わせに合わせてキャラクター画像を生成し、一時領域に保存します。
// 失敗しても回答処理は続行するため、ok=false を返すだけです。
func (qr *QARunner) generateImage(ctx context.Context, query string, characters []domain.Character) (string, bool) {
	if len(characters) > resolver.MaxCharactersPerImage {
		characters = characters[:resolver.MaxCharactersPerImage]
	}

	clauses := prompts.CharacterClauses(characters)
	if len(clauses) == 0 {
		return "", false
	}

	var prompt string
	if len(characters) > 1 {
		names := make([]string, 0, len(characters))
		for _, c := range characters {
			names = append(names, c.Name)
		}
		prompt = qr.prompts.GroupScene(names, clauses)
	} else {
		prompt = qr.prompts.Portrait(clauses[0])
	}

	slog.Info("問い合わせに応じて画像を生成します", "query", truncateString(query, 60))
	data, ok := qr.renderer.Generate(ctx, prompt)
	if !ok {
		return "", false
	}

	path := filepath.Join(qr.tempDir, fmt.Sprintf("qa_generated_%s.png", uuid.NewString()[:8]))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("生成画像の保存に失敗しました", "error", err)
		return "", false
	}
	return path, true
}
