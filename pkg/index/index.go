// Package index は類似検索プロバイダを包む二次インデックスを提供します。
//
// インデックスへの書き込み・読み出しはすべてベストエフォートであり、
// 一次ストア（ファイルシステム）の操作を決して妨げません。プロバイダが
// 未初期化（初回起動、APIキー未設定）でも、依存する操作は空結果に
// 縮退するだけで、エラーを上位に伝播させないのが設計方針です。
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"

	_ "modernc.org/sqlite"
)

const dbFileName = "documents.db"

// Index は埋め込みベクトル付きドキュメントを永続化し、コサイン類似度で検索します。
type Index struct {
	db       *sql.DB
	embedder Embedder
}

// Open は指定ディレクトリにインデックスの永続ストアを開きます。
// embedder に nil を渡すと縮退モードになり、検索は常に空を返します。
func Open(dir string, embedder Embedder) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("インデックスディレクトリの作成に失敗しました: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("インデックスDBのオープンに失敗しました: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		metadata TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("インデックススキーマの初期化に失敗しました: %w", err)
	}

	return &Index{db: db, embedder: embedder}, nil
}

// Close は永続ストアを閉じます。
func (ix *Index) Close() error {
	return ix.db.Close()
}

// IndexCharacter はキャラクターレコードを非正規化ドキュメントとして upsert します。
// 失敗は呼び出し側が警告としてログに残すだけで、キャラクター作成自体は成功扱いです。
func (ix *Index) IndexCharacter(ctx context.Context, char domain.Character, source string) error {
	doc := BuildCharacterDocument(char, source)
	return ix.upsert(ctx, doc)
}

// IndexStory はストーリー本文を、ストーリー自身のIDをキーに upsert します。
// 同じキーを後から DeleteDocument で狙えるため、削除が対称になります。
func (ix *Index) IndexStory(ctx context.Context, story domain.Story) error {
	return ix.upsert(ctx, BuildStoryDocument(story))
}

// IndexText は家族・場所などの自由テキストをドキュメントとして upsert します。
func (ix *Index) IndexText(ctx context.Context, id, content string, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	if metadata["type"] == "" {
		metadata["type"] = "text"
	}
	return ix.upsert(ctx, Document{ID: id, Content: content, Metadata: metadata})
}

func (ix *Index) upsert(ctx context.Context, doc Document) error {
	if ix.embedder == nil {
		return fmt.Errorf("埋め込みプロバイダが未初期化のためインデックス追加をスキップします")
	}

	embedding, err := ix.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return err
	}

	embJSON, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("埋め込みのエンコードに失敗しました: %w", err)
	}
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("メタデータのエンコードに失敗しました: %w", err)
	}

	_, err = ix.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (id, content, metadata, embedding)
		VALUES (?, ?, ?, ?)
	`, doc.ID, doc.Content, metaJSON, embJSON)
	if err != nil {
		return fmt.Errorf("ドキュメントの書き込みに失敗しました: %w", err)
	}
	return nil
}

// DeleteDocument はドキュメントをIDで削除します。
// インデックス削除の失敗で一次ストアの削除を巻き戻すことはないため、
// 失敗しても警告を残すだけで正常終了するのだ。
func (ix *Index) DeleteDocument(ctx context.Context, id string) {
	if _, err := ix.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		slog.Warn("インデックスからのドキュメント削除に失敗しました", "id", id, "error", err)
		return
	}
	slog.Info("インデックスからドキュメントを削除しました", "id", id)
}

// Search はクエリを埋め込み、類似度の降順で上位 k 件のドキュメントを返します。
// プロバイダ未初期化・埋め込み失敗・DB障害はすべて空結果に縮退し、
// 呼び出し元にエラーを返しません。
func (ix *Index) Search(ctx context.Context, query string, k int) []Document {
	if ix.embedder == nil {
		slog.Warn("埋め込みプロバイダが未初期化のため検索結果は空になります")
		return nil
	}

	queryEmb, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("クエリの埋め込みに失敗しました", "error", err)
		return nil
	}

	rows, err := ix.db.QueryContext(ctx, "SELECT id, content, metadata, embedding FROM documents")
	if err != nil {
		slog.Warn("インデックスの読み出しに失敗しました", "error", err)
		return nil
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		var doc Document
		var metaJSON, embJSON []byte
		if err := rows.Scan(&doc.ID, &doc.Content, &metaJSON, &embJSON); err != nil {
			slog.Warn("ドキュメント行の読み取りに失敗しました", "error", err)
			continue
		}

		var embedding []float32
		if err := json.Unmarshal(embJSON, &embedding); err != nil {
			continue
		}
		if err := json.Unmarshal(metaJSON, &doc.Metadata); err != nil {
			doc.Metadata = map[string]string{}
		}

		doc.Score = cosineSimilarity(queryEmb, embedding)
		results = append(results, doc)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// cosineSimilarity は2つのベクトルのコサイン類似度を計算します。
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
