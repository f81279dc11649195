package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
)

// TextIndexer は任意テキストのインデックス登録だけを切り出した契約です。
type TextIndexer interface {
	IndexCharacter(ctx context.Context, char domain.Character, source string) error
	IndexText(ctx context.Context, id, content string, metadata map[string]string) error
}

// IngestRunner はプロジェクトのデータディレクトリを検索インデックスへ一括投入する実行実体なのだ。
type IngestRunner struct {
	indexer       TextIndexer
	charactersDir string
	familiesDir   string
	locationsDir  string
}

// NewIngestRunner は依存関係を注入して初期化します。
func NewIngestRunner(indexer TextIndexer, charactersDir, familiesDir, locationsDir string) *IngestRunner {
	return &IngestRunner{
		indexer:       indexer,
		charactersDir: charactersDir,
		familiesDir:   familiesDir,
		locationsDir:  locationsDir,
	}
}

// IngestStats は投入結果の集計です。
type IngestStats struct {
	Characters int
	Texts      int
	Skipped    int
}

// Run はキャラクターJSONと家族・場所のテキストをすべてインデックスへ投入します。
// 壊れたファイルは警告を残してスキップし、投入全体は続行します。
func (ir *IngestRunner) Run(ctx context.Context) (IngestStats, error) {
	if ir.indexer == nil {
		return IngestStats{}, fmt.Errorf("検索インデックスが利用できないため投入できません")
	}

	stats := IngestStats{}

	slog.Info("キャラクターデータを投入します", "dir", ir.charactersDir)
	ir.walkFiles(ir.charactersDir, ".json", func(path string, data []byte) {
		var char domain.Character
		if err := json.Unmarshal(data, &char); err != nil {
			slog.Warn("壊れたキャラクターファイルをスキップします", "path", path)
			stats.Skipped++
			return
		}
		if char.ID == "" {
			char.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		if err := ir.indexer.IndexCharacter(ctx, char, path); err != nil {
			slog.Warn("キャラクターの投入に失敗しました", "path", path, "error", err)
			stats.Skipped++
			return
		}
		stats.Characters++
	})

	for _, dir := range []string{ir.familiesDir, ir.locationsDir} {
		slog.Info("テキストデータを投入します", "dir", dir)
		ir.walkFiles(dir, ".txt", func(path string, data []byte) {
			content := strings.TrimSpace(string(data))
			if content == "" {
				stats.Skipped++
				return
			}
			id := strings.TrimSuffix(filepath.Base(path), ".txt")
			metadata := map[string]string{"source": path, "type": "text"}
			if err := ir.indexer.IndexText(ctx, id, content, metadata); err != nil {
				slog.Warn("テキストの投入に失敗しました", "path", path, "error", err)
				stats.Skipped++
				return
			}
			stats.Texts++
		})
	}

	if stats.Characters+stats.Texts == 0 {
		return stats, fmt.Errorf("投入できるドキュメントが見つかりませんでした")
	}
	slog.Info("データ投入が完了しました",
		"characters", stats.Characters, "texts", stats.Texts, "skipped", stats.Skipped)
	return stats, nil
}

// walkFiles はディレクトリを再帰的に走査し、拡張子が一致するファイルごとに fn を呼びます。
// ディレクトリが存在しない場合は警告のみで処理を続けます。
func (ir *IngestRunner) walkFiles(dir, ext string, fn func(path string, data []byte)) {
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("ディレクトリが見つかりません", "dir", dir)
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("ファイルの読み込みに失敗しました", "path", path, "error", err)
			return nil
		}
		fn(path, data)
		return nil
	})
}
