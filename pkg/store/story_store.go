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

// StoryStore はストーリーレコードを1レコード1ファイルのJSONとして永続化します。
type StoryStore struct {
	dir string
}

// NewStoryStore は指定ディレクトリを保存先とするストアを返します。
func NewStoryStore(dir string) *StoryStore {
	return &StoryStore{dir: dir}
}

// Save はレコードをディスクに書き込みます。ファイル保存の失敗は致命的です。
func (s *StoryStore) Save(ctx context.Context, story domain.Story) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ストーリーディレクトリの作成に失敗しました: %w", err)
	}
	data, err := json.MarshalIndent(story, "", "  ")
	if err != nil {
		return fmt.Errorf("ストーリーのエンコードに失敗しました: %w", err)
	}
	path := filepath.Join(s.dir, story.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ストーリーの保存に失敗しました: %w", err)
	}
	slog.Info("ストーリーを保存しました", "id", story.ID, "title", story.Title)
	return nil
}

// Get はIDでレコードを引きます。見つからない場合は ok=false を返すのだ。
func (s *StoryStore) Get(id string) (domain.Story, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		return domain.Story{}, false
	}
	var story domain.Story
	if err := json.Unmarshal(data, &story); err != nil {
		return domain.Story{}, false
	}
	return story, true
}

// ListAll は保存済みストーリーを作成日時の新しい順で返します。
// 壊れたレコードは警告を残してスキップします。
func (s *StoryStore) ListAll() []domain.Story {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("ストーリーディレクトリの走査に失敗しました", "dir", s.dir, "error", err)
		}
		return nil
	}

	var stories []domain.Story
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("ストーリーレコードの読み込みに失敗しました", "path", path, "error", err)
			continue
		}
		var story domain.Story
		if err := json.Unmarshal(data, &story); err != nil {
			slog.Warn("壊れたストーリーレコードをスキップします", "path", path)
			continue
		}
		stories = append(stories, story)
	}

	sort.Slice(stories, func(i, j int) bool { return stories[i].CreatedAt > stories[j].CreatedAt })
	return stories
}

// Delete はレコードをディスクから取り除きます。対象が存在しない場合は警告のみ残します。
func (s *StoryStore) Delete(ctx context.Context, id string) error {
	path := filepath.Join(s.dir, id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("削除対象のストーリーが見つかりませんでした", "id", id)
			return nil
		}
		return fmt.Errorf("ストーリーの削除に失敗しました: %w", err)
	}
	slog.Info("ストーリーを削除しました", "id", id)
	return nil
}
