// Package store は一次ストア（ファイルシステム）を提供します。
//
// キャラクターとストーリーのレコードはここが信頼できる唯一の情報源であり、
// 検索インデックスはあくまで派生物です。インデックスが空でも欠けていても、
// このパッケージの操作は影響を受けません。
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
)

const metadataFileName = "metadata.json"

// CharacterStore はキャラクターレコードと参照画像をディレクトリ単位で永続化します。
type CharacterStore struct {
	dir string
}

// NewCharacterStore は指定ディレクトリを一次ストアとして使うストアを返します。
func NewCharacterStore(dir string) *CharacterStore {
	return &CharacterStore{dir: dir}
}

// Create は新しいIDを割り当ててレコードと参照画像を永続化し、保存後のレコードを返します。
// 保存先が作成・書き込みできない場合はその操作ごと失敗します（一次ストアの失敗は致命的）。
func (s *CharacterStore) Create(ctx context.Context, char domain.Character, images [][]byte) (domain.Character, error) {
	if strings.TrimSpace(char.Name) == "" {
		return domain.Character{}, fmt.Errorf("キャラクター名が空です")
	}

	char.ID = domain.NewCharacterID(char.Name)
	if len(char.Tags) == 0 {
		char.Tags = domain.DefaultTags()
	}

	charDir := filepath.Join(s.dir, char.ID)
	if err := os.MkdirAll(charDir, 0o755); err != nil {
		return domain.Character{}, fmt.Errorf("キャラクターディレクトリの作成に失敗しました: %w", err)
	}

	char.ImagePaths = nil
	for i, img := range images {
		name := fmt.Sprintf("reference_%d.png", i+1)
		if char.Generated {
			name = "reference_generated.png"
		}
		imgPath := filepath.Join(charDir, name)
		if err := os.WriteFile(imgPath, img, 0o644); err != nil {
			return domain.Character{}, fmt.Errorf("参照画像の保存に失敗しました: %w", err)
		}
		char.ImagePaths = append(char.ImagePaths, imgPath)
	}

	if err := s.writeMetadata(charDir, char); err != nil {
		return domain.Character{}, err
	}

	slog.Info("キャラクターを保存しました", "id", char.ID, "name", char.Name, "images", len(char.ImagePaths))
	return char, nil
}

func (s *CharacterStore) writeMetadata(charDir string, char domain.Character) error {
	data, err := json.MarshalIndent(char, "", "  ")
	if err != nil {
		return fmt.Errorf("メタデータのエンコードに失敗しました: %w", err)
	}
	if err := os.WriteFile(filepath.Join(charDir, metadataFileName), data, 0o644); err != nil {
		return fmt.Errorf("メタデータの保存に失敗しました: %w", err)
	}
	return nil
}

// Get はIDでレコードを引きます。見つからない場合はエラーではなく ok=false を返すのだ。
func (s *CharacterStore) Get(id string) (domain.Character, bool) {
	// 新レイアウト: <dir>/<id>/metadata.json
	if char, ok := readCharacterFile(filepath.Join(s.dir, id, metadataFileName)); ok {
		return char, true
	}
	// 旧レイアウト: <dir>/<id>.json
	if char, ok := readCharacterFile(filepath.Join(s.dir, id+".json")); ok {
		return char, true
	}
	return domain.Character{}, false
}

// ListAll は2つのディスクレイアウトを透過的に走査し、単一の結果に統合します。
//   - ディレクトリ型: 1レコード = 1ディレクトリ + metadata.json
//   - フラット型:     1レコード = 1つの <id>.json ファイル（旧レイアウト）
//
// 同じIDが両方に存在する場合はディレクトリ型を優先します。壊れたレコードは
// 警告を残してスキップし、走査全体は失敗させません。結果はID昇順で返します。
func (s *CharacterStore) ListAll() []domain.Character {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("キャラクターディレクトリの走査に失敗しました", "dir", s.dir, "error", err)
		}
		return nil
	}

	merged := make(map[string]domain.Character)

	// 旧レイアウトを先に読み、後からディレクトリ型で上書きする
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		char, ok := readCharacterFile(path)
		if !ok {
			slog.Warn("壊れたキャラクターレコードをスキップします", "path", path)
			continue
		}
		if char.ID == "" {
			char.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		merged[char.ID] = char
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name(), metadataFileName)
		char, ok := readCharacterFile(path)
		if !ok {
			slog.Warn("壊れたキャラクターレコードをスキップします", "path", path)
			continue
		}
		if char.ID == "" {
			char.ID = entry.Name()
		}
		merged[char.ID] = char
	}

	chars := make([]domain.Character, 0, len(merged))
	for _, c := range merged {
		chars = append(chars, c)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i].ID < chars[j].ID })
	return chars
}

// Delete はレコードと参照画像をディスクから取り除きます。
// ストーリーと対称にするための削除経路で、インデックス側の削除は呼び出し側が担います。
func (s *CharacterStore) Delete(ctx context.Context, id string) error {
	charDir := filepath.Join(s.dir, id)
	if _, err := os.Stat(charDir); err == nil {
		if err := os.RemoveAll(charDir); err != nil {
			return fmt.Errorf("キャラクターディレクトリの削除に失敗しました: %w", err)
		}
		return nil
	}

	flat := filepath.Join(s.dir, id+".json")
	if _, err := os.Stat(flat); err == nil {
		if err := os.Remove(flat); err != nil {
			return fmt.Errorf("キャラクターファイルの削除に失敗しました: %w", err)
		}
		return nil
	}

	slog.Warn("削除対象のキャラクターが見つかりませんでした", "id", id)
	return nil
}

// MetadataPath はレコードのメタデータファイルのパスを返します（インデックスの source 用）。
func (s *CharacterStore) MetadataPath(id string) string {
	return filepath.Join(s.dir, id, metadataFileName)
}

func readCharacterFile(path string) (domain.Character, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Character{}, false
	}
	var char domain.Character
	if err := json.Unmarshal(data, &char); err != nil {
		return domain.Character{}, false
	}
	return char, true
}
