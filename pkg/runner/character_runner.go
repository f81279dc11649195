package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/prompts"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/store"
)

// CharacterIndexer はキャラクターのインデックス登録・削除だけを切り出した契約です。
type CharacterIndexer interface {
	IndexCharacter(ctx context.Context, char domain.Character, source string) error
	DeleteDocument(ctx context.Context, id string)
}

// CharacterParams はキャラクター登録の入力項目です。
type CharacterParams struct {
	Name        string
	Role        string
	Age         string
	Description string
	Personality string
	Tags        []string
}

// CharacterRunner はキャラクターの登録・削除を担う実行実体なのだ。
type CharacterRunner struct {
	store    *store.CharacterStore
	indexer  CharacterIndexer
	renderer ImageGenerator
	prompts  *prompts.Builder
}

// NewCharacterRunner は依存関係を注入して初期化します。indexer は nil でも動作します。
func NewCharacterRunner(cs *store.CharacterStore, indexer CharacterIndexer, renderer ImageGenerator, pb *prompts.Builder) *CharacterRunner {
	return &CharacterRunner{
		store:    cs,
		indexer:  indexer,
		renderer: renderer,
		prompts:  pb,
	}
}

// AddFromImages はアップロードされた参照画像付きでキャラクターを登録します。
func (cr *CharacterRunner) AddFromImages(ctx context.Context, params CharacterParams, images [][]byte) (domain.Character, error) {
	char, err := cr.store.Create(ctx, cr.toCharacter(params), images)
	if err != nil {
		return domain.Character{}, err
	}
	cr.indexBestEffort(ctx, char)
	return char, nil
}

// AddFromDescription は視覚説明から参照画像を生成してキャラクターを登録します。
// 参照画像の生成失敗はこの操作では致命的です（画像のないレコードは作りません）。
func (cr *CharacterRunner) AddFromDescription(ctx context.Context, params CharacterParams) (domain.Character, error) {
	slog.Info("参照画像を生成します", "name", params.Name)
	prompt := cr.prompts.CharacterReference(params.Name, params.Role, params.Description, params.Age)
	image, ok := cr.renderer.Generate(ctx, prompt)
	if !ok {
		return domain.Character{}, fmt.Errorf("キャラクター画像の生成に失敗しました: %s", params.Name)
	}

	char := cr.toCharacter(params)
	char.Generated = true
	char, err := cr.store.Create(ctx, char, [][]byte{image})
	if err != nil {
		return domain.Character{}, err
	}
	cr.indexBestEffort(ctx, char)
	return char, nil
}

// Delete はキャラクターをディスクとインデックスの両方から取り除きます。
func (cr *CharacterRunner) Delete(ctx context.Context, id string) error {
	if err := cr.store.Delete(ctx, id); err != nil {
		return err
	}
	if cr.indexer != nil {
		cr.indexer.DeleteDocument(ctx, id)
	}
	return nil
}

func (cr *CharacterRunner) toCharacter(params CharacterParams) domain.Character {
	return domain.Character{
		Name:        params.Name,
		Role:        params.Role,
		Age:         params.Age,
		Description: params.Description,
		Personality: params.Personality,
		Tags:        params.Tags,
	}
}

// indexBestEffort は登録済みレコードをインデックスへ反映します。失敗は警告のみです。
func (cr *CharacterRunner) indexBestEffort(ctx context.Context, char domain.Character) {
	if cr.indexer == nil {
		return
	}
	if err := cr.indexer.IndexCharacter(ctx, char, cr.store.MetadataPath(char.ID)); err != nil {
		slog.Warn("キャラクターのインデックス登録に失敗しました", "id", char.ID, "error", err)
	}
}
