package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/store"
)

const storyContextK = 5

// StoryIndexer はストーリーのインデックス登録だけを切り出した契約です。
type StoryIndexer interface {
	IndexStory(ctx context.Context, story domain.Story) error
}

// StoryRunner はストーリーアイデアを完全なストーリーへ展開する実行実体なのだ。
type StoryRunner struct {
	gen     TextGenerator
	idx     Searcher
	indexer StoryIndexer
	stories *store.StoryStore
	prompts *prompts.Builder
}

// NewStoryRunner は依存関係を注入して初期化します。idx と indexer は nil でも動作します。
func NewStoryRunner(gen TextGenerator, idx Searcher, indexer StoryIndexer, stories *store.StoryStore, pb *prompts.Builder) *StoryRunner {
	return &StoryRunner{
		gen:     gen,
		idx:     idx,
		indexer: indexer,
		stories: stories,
		prompts: pb,
	}
}

// Run はアイデアからストーリーを生成します。save が真の場合は永続化し、
// 検索インデックスにもベストエフォートで登録します。
func (sr *StoryRunner) Run(ctx context.Context, idea, title string, save bool) (domain.Story, error) {
	contextText := searchContext(ctx, sr.idx, idea, storyContextK)

	slog.Info("ストーリーを生成します", "idea", truncateString(idea, 60))
	text, err := sr.gen.Generate(ctx, sr.prompts.Story(idea, contextText))
	if err != nil {
		return domain.Story{}, fmt.Errorf("ストーリー生成に失敗しました: %w", err)
	}
	if text == "" {
		return domain.Story{}, fmt.Errorf("ストーリー生成の応答が空でした")
	}

	story := domain.NewStory(text, title)
	if save {
		if err := sr.Save(ctx, story); err != nil {
			return domain.Story{}, err
		}
	}
	return story, nil
}

// Save はストーリーを永続化し、インデックスにも登録します。
// ファイル保存の失敗は致命的、インデックス登録の失敗は警告のみです。
func (sr *StoryRunner) Save(ctx context.Context, story domain.Story) error {
	if err := sr.stories.Save(ctx, story); err != nil {
		return err
	}
	if sr.indexer != nil {
		if err := sr.indexer.IndexStory(ctx, story); err != nil {
			slog.Warn("ストーリーのインデックス登録に失敗しました", "id", story.ID, "error", err)
		}
	}
	return nil
}

// Delete はストーリーをディスクとインデックスの両方から取り除きます。
// インデックス側の削除は DeleteDocument の意味論に従いベストエフォートです。
func (sr *StoryRunner) Delete(ctx context.Context, id string, deleter DocumentDeleter) error {
	if err := sr.stories.Delete(ctx, id); err != nil {
		return err
	}
	if deleter != nil {
		deleter.DeleteDocument(ctx, id)
	}
	return nil
}

// DocumentDeleter はインデックスからの削除だけを切り出した契約です。
type DocumentDeleter interface {
	DeleteDocument(ctx context.Context, id string)
}
