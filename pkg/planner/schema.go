package planner

import (
	"fmt"
	"sync"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/xeipuuv/gojsonschema"
)

// 各ドメインのモデル出力に期待する JSON Schema。
// 違反は警告として記録するだけで、正規化は続行します。
var schemaSources = map[domain.Kind]string{
	domain.KindLP: `{
  "type": "object",
  "required": ["sections"],
  "properties": {
    "theme": {"type": "string"},
    "tone": {"type": "string"},
    "palette": {"type": "array", "maxItems": 5, "items": {"type": "string"}},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "prompt"],
        "properties": {
          "id": {"type": ["string", "number"]},
          "title": {"type": "string"},
          "goal": {"type": "string"},
          "visualStyle": {"type": "string"},
          "prompt": {"type": "string"},
          "copy": {"type": "string"},
          "cta": {"type": "string"}
        }
      }
    }
  }
}`,
	domain.KindSlides: `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["templateId", "title"],
    "properties": {
      "id": {"type": ["string", "number"]},
      "templateId": {"type": "string"},
      "title": {"type": "string"},
      "body": {"type": "array", "items": {"type": "string"}},
      "notes": {"type": "string"},
      "tone": {"type": "string"},
      "emphasis": {"type": "string"},
      "cta": {"type": "string"},
      "carryOver": {"type": "string"},
      "keywords": {"type": "array", "items": {"type": "string"}}
    }
  }
}`,
	domain.KindManga: `{
  "type": "object",
  "required": ["panels"],
  "properties": {
    "title": {"type": "string"},
    "theme": {"type": "string"},
    "characters": {
      "type": "object",
      "properties": {
        "protagonist": {"type": "string"},
        "style": {"type": "string"}
      }
    },
    "panels": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["templateId", "description"],
        "properties": {
          "id": {"type": ["string", "number"]},
          "templateId": {"type": "string"},
          "narrativePhase": {"enum": ["intro", "rise", "fall", "climax", "resolution"]},
          "description": {"type": "string"},
          "dialogue": {"type": "string"},
          "narration": {"type": "string"},
          "tone": {"type": "string"},
          "visualKeywords": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`,
	domain.KindDigest: `{
  "type": "object",
  "required": ["headline"],
  "properties": {
    "headline": {"type": "string"},
    "summary": {"type": "string"},
    "lessons": {"type": "array", "items": {"type": "string"}},
    "image_prompt": {"type": "string"}
  }
}`,
}

var (
	schemaOnce sync.Once
	schemas    map[domain.Kind]*gojsonschema.Schema
)

func loadSchemas() {
	schemas = make(map[domain.Kind]*gojsonschema.Schema, len(schemaSources))
	for kind, src := range schemaSources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("planner: %s のスキーマが不正です: %v", kind, err))
		}
		schemas[kind] = s
	}
}

// Validate はモデル出力の JSON をドメインのスキーマで検証し、違反内容を返します。
// スキーマを持たないドメインの場合は nil を返します。
func Validate(kind domain.Kind, block string) []string {
	schemaOnce.Do(loadSchemas)
	s, ok := schemas[kind]
	if !ok {
		return nil
	}

	result, err := s.Validate(gojsonschema.NewStringLoader(block))
	if err != nil {
		return []string{fmt.Sprintf("スキーマ検証に失敗しました: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	warnings := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		warnings = append(warnings, e.String())
	}
	return warnings
}
