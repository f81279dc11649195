// Package prompts は各パイプライン段のプロンプト組み立てを集約します。
//
// 生成AIに渡す文章はすべてここで組み立て、画像系プロンプトには必ず
// 安全サフィックスを付与します。呼び出し側がプロンプト文面を直接組み立てる
// ことは想定していません。
package prompts

import (
	"fmt"
	"strings"

	"github.com/Krisha2000/Gandhinagar-Comic-AI/pkg/domain"
)

// DefaultContext はインデックスから文脈が得られなかった場合の代替文です。
const DefaultContext = "Use generic school characters and settings."

// Builder はプロンプト組み立て器です。安全サフィックスを保持します。
type Builder struct {
	safetySuffix string
}

// NewBuilder は安全サフィックス付きの組み立て器を返します。
func NewBuilder(safetySuffix string) *Builder {
	return &Builder{safetySuffix: safetySuffix}
}

// WithSafetySuffix は画像プロンプトの末尾に安全サフィックスを付与します。
// すでに含まれている場合は二重付与しません。
func (b *Builder) WithSafetySuffix(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if b.safetySuffix == "" || strings.Contains(prompt, b.safetySuffix) {
		return prompt
	}
	return strings.TrimSuffix(prompt, ".") + ". " + b.safetySuffix
}

// Story はストーリーアイデアを完全なストーリーへ展開するプロンプトを組み立てます。
func (b *Builder) Story(idea, context string) string {
	return fmt.Sprintf(`You are a creative storyteller for an all-ages comic strip.

CONTEXT (Characters and Settings):
%s

STORY IDEA: %s

REQUIREMENTS:
1. Write a complete story (150-250 words) suitable for a 6-panel comic strip
2. Include clear visual scenes with action and emotion
3. Use dialogue to show character personality
4. Keep it funny, heartwarming, and appropriate for all ages
5. NO violence, scary content, or inappropriate themes
6. Make it visually interesting with varied scenes

Write the story now:`, orDefault(context), idea)
}

// PanelScript はストーリーをコマ台本（厳密JSON）へ変換するプロンプトを組み立てます。
func (b *Builder) PanelScript(story, context string, panelCount int) string {
	return fmt.Sprintf(`You are an expert comic book art director.

CHARACTER/SETTING CONTEXT (use for visual consistency):
%s

STORY:
%s

TASK: Convert this story into exactly %d comic panel prompts.

For EACH panel, provide:
1. **scene**: What's happening (action, setting)
2. **characters**: Who appears + their visual details (clothing, hair, expressions, poses)
3. **dialogue**: Exact dialogue text (if any)
4. **camera_angle**: Shot type (close-up, wide, over-shoulder, etc.)
5. **emotion**: Mood/feeling of the scene
6. **image_prompt**: Detailed visual description for image generation

CRITICAL SAFETY REQUIREMENTS:
- All-ages appropriate content only
- No violence, gore, or scary imagery
- No real people or copyrighted characters
- Original characters based on descriptions only

OUTPUT FORMAT (strict JSON):
[
  {
    "panel": 1,
    "scene": "...",
    "characters": "...",
    "dialogue": "...",
    "camera_angle": "...",
    "emotion": "...",
    "image_prompt": "..."
  },
  ...
]`, orDefault(context), story, panelCount)
}

// Answer はQ&A回答用プロンプトを組み立てます。imageCount が正の場合、
// 画像が別途提示される旨のシステムノートを文脈に追記します。
func (b *Builder) Answer(query, context string, imageCount int) string {
	if strings.TrimSpace(context) == "" {
		context = "No specific context found."
	}
	imageInfo := ""
	if imageCount > 0 {
		imageInfo = fmt.Sprintf("\n\n[SYSTEM NOTE: %d image(s) have been generated and will be shown to the user below your response.]", imageCount)
	}
	return fmt.Sprintf(`You are the chronicler of the Gandhinagar School Universe.

CONTEXT FROM DATABASE:
%s%s

USER QUESTION: %s

INSTRUCTIONS:
1. Answer the question based ONLY on the context provided.
2. If the user asks for a picture/image/photo and images are being provided (see SYSTEM NOTE), acknowledge this enthusiastically (e.g., "Here is [Name]!" or "Here are your requested characters!").
3. If the answer is not in the context, say you don't know but suggest creating a character.
4. Be helpful, fun, and engaging.
5. Keep the answer concise (2-3 sentences).

ANSWER:`, context, imageInfo, query)
}

// CharacterClause はキャラクター1人分の視覚説明句「Name (role): 説明」を返します。
// 視覚説明が空のキャラクターは空文字を返し、呼び出し側でスキップします。
func CharacterClause(char domain.Character) string {
	desc := char.VisualDescription()
	if desc == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s): %s", char.Name, char.RoleOrDefault(), desc)
}

// CharacterClauses は複数キャラクターの視覚説明句をまとめて返します。
func CharacterClauses(chars []domain.Character) []string {
	var clauses []string
	for _, c := range chars {
		if clause := CharacterClause(c); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

// Portrait は単一キャラクターの肖像画プロンプトを組み立てます。
func (b *Builder) Portrait(clause string) string {
	return b.WithSafetySuffix(fmt.Sprintf(
		"Character portrait: %s. Indian school student in school uniform. Upper body shot, clear face, friendly expression", clause))
}

// GroupScene は複数キャラクターの集合シーンプロンプトを組み立てます。
func (b *Builder) GroupScene(names, clauses []string) string {
	return b.WithSafetySuffix(fmt.Sprintf(
		"Group scene with %s from Gandhinagar School. %s. Indian school setting, all wearing school uniforms",
		strings.Join(names, ", "), strings.Join(clauses, "; ")))
}

// CharacterReference は説明文からの参照画像生成プロンプトを組み立てます。
func (b *Builder) CharacterReference(name, role, description, age string) string {
	agePart := ""
	if age != "" {
		agePart = fmt.Sprintf("Age: %s. ", age)
	}
	return b.WithSafetySuffix(fmt.Sprintf(
		"Character portrait of %s, %s. %s. %sFull body or upper body shot, clear view of face and outfit",
		name, role, description, agePart))
}

// Recreation は既存画像のスタイルを自分のキャラクターで再現するプロンプトを組み立てます。
func (b *Builder) Recreation(styleDescription string, names, clauses []string, customPrompt string) string {
	custom := ""
	if strings.TrimSpace(customPrompt) != "" {
		custom = strings.TrimSpace(customPrompt) + "\n\n"
	}
	return b.WithSafetySuffix(fmt.Sprintf(`Recreate this image style with characters %s.

ORIGINAL STYLE: %s

CHARACTERS TO INCLUDE:
%s

%sIndian school setting, school uniforms`,
		strings.Join(names, ", "), styleDescription, strings.Join(clauses, "; "), custom))
}

// StoryFromImage は画像からストーリーを起こすビジョン用プロンプトです。
const StoryFromImage = `Analyze this image and create an engaging short story (6-8 sentences) based on what you see.

The story should:
- Be set in an Indian school context (Gandhinagar School)
- Include realistic dialogue
- Be fun, relatable, and appropriate for all ages
- Capture the mood and action shown in the image
- Have a beginning, middle, and end

Write the story now:`

// DescribeImage は画像の詳細説明を求めるビジョン用プロンプトです。
const DescribeImage = `Describe this image in detail. Include:
1. Main subjects/characters (age, appearance, clothing, expressions)
2. Setting/background
3. Actions/activities happening
4. Mood/atmosphere
5. Art style (if applicable)
6. Any text or speech bubbles visible

Be specific and thorough:`

// StyleSummary は再現用にスタイルと構図の要約を求めるビジョン用プロンプトです。
const StyleSummary = `Analyze this image and extract:
1. Art style (anime, cartoon, realistic, etc.)
2. Composition (close-up, group shot, full scene, etc.)
3. Mood/tone (happy, dramatic, action-packed, etc.)
4. Setting/background details
5. Pose and arrangement of subjects

Provide a concise summary in 2-3 sentences that could be used to recreate a similar image:`

func orDefault(context string) string {
	if strings.TrimSpace(context) == "" {
		return DefaultContext
	}
	return context
}
