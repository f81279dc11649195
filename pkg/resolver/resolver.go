// Package resolver はストーリー中のキャラクター名を保存済みレコードへ解決します。
//
// 解決は検索インデックス優先で行いますが、インデックスは劣化し得る二次情報なので、
// 厳密な名前一致で裏取りし、外れた場合は一次ストアの全走査にフォールバックします。
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/index"
)

// MaxCharactersPerImage は1枚の画像プロンプトに含めるキャラクター数の上限です。
// これを超えると画像生成の一貫性が大きく崩れるため、先頭から切り詰めます。
const MaxCharactersPerImage = 3

// Searcher は検索インデックスのうち解決に必要な操作だけを切り出したものです。
type Searcher interface {
	Search(ctx context.Context, query string, k int) []index.Document
}

// Lister は一次ストアの全走査だけを切り出したものです。
type Lister interface {
	ListAll() []domain.Character
}

// Resolver は名前からキャラクターレコードへの解決器です。
type Resolver struct {
	index Searcher
	store Lister
}

// NewResolver は解決器を構築します。index は nil でも動作します（ストア走査のみ）。
func NewResolver(idx Searcher, store Lister) *Resolver {
	return &Resolver{index: idx, store: store}
}

// Resolve は名前のリストをレコードのリストへ解決します。
//
// names が空の場合は登場人物の指定なしとみなし、保存済みの全キャラクターを返します。
// 明示的な指定がある場合、解決結果は MaxCharactersPerImage 件に切り詰めます。
// 解決できなかった名前はエラーにせず、警告を残してスキップします。
func (r *Resolver) Resolve(ctx context.Context, names []string) []domain.Character {
	if len(names) == 0 {
		return r.store.ListAll()
	}

	var resolved []domain.Character
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		char, ok := r.resolveOne(ctx, name)
		if !ok {
			slog.Warn("キャラクターを解決できませんでした", "name", name)
			continue
		}
		if seen[char.ID] {
			continue
		}
		seen[char.ID] = true
		resolved = append(resolved, char)
	}

	if len(resolved) > MaxCharactersPerImage {
		slog.Warn("登場キャラクターが多すぎるため切り詰めます",
			"requested", len(resolved), "limit", MaxCharactersPerImage)
		resolved = resolved[:MaxCharactersPerImage]
	}
	return resolved
}

// resolveOne は単一の名前を解決します。インデックスのヒットは意味的な近傍にすぎないため、
// 名前の厳密一致（大文字小文字は無視）で裏取りしてから採用します。
func (r *Resolver) resolveOne(ctx context.Context, name string) (domain.Character, bool) {
	if r.index != nil {
		docs := r.index.Search(ctx, name, 1)
		if len(docs) > 0 {
			if char, ok := index.ParseFullData(docs[0].Content); ok && strings.EqualFold(char.Name, name) {
				return char, true
			}
		}
	}

	// インデックスが外れた・劣化している場合は一次ストアを直接走査する
	for _, char := range r.store.ListAll() {
		if strings.EqualFold(char.Name, name) {
			return char, true
		}
	}
	return domain.Character{}, false
}
