package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// courseSchema is the structural contract for a course document. Semantic
// invariants (contiguous ordering, exactly-one-correct) are checked in build.
const courseSchema = `{
  "type": "object",
  "required": ["title", "modules", "lessons"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "modules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["order_index", "title"],
        "properties": {
          "order_index": {"type": "integer", "minimum": 1},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"}
        }
      }
    },
    "lessons": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["order_index", "module_order_index", "title", "quiz"],
        "properties": {
          "id": {"type": "string"},
          "order_index": {"type": "integer", "minimum": 1},
          "module_order_index": {"type": "integer", "minimum": 1},
          "title": {"type": "string", "minLength": 1},
          "time_minutes": {"type": "integer", "minimum": 0},
          "overview": {"type": "string"},
          "content": {
            "type": "object",
            "properties": {
              "bullets": {"type": "array", "items": {"type": "string"}},
              "example": {"type": "string"},
              "takeaways": {"type": "array", "items": {"type": "string"}}
            }
          },
          "quiz": {
            "type": "object",
            "required": ["pass_score", "questions"],
            "properties": {
              "pass_score": {"type": "integer", "minimum": 1, "maximum": 100},
              "questions": {
                "type": "array",
                "minItems": 1,
                "items": {
                  "type": "object",
                  "required": ["order_index", "prompt", "choices"],
                  "properties": {
                    "order_index": {"type": "integer", "minimum": 1},
                    "prompt": {"type": "string", "minLength": 1},
                    "explanation": {"type": "string"},
                    "choices": {
                      "type": "array",
                      "minItems": 2,
                      "items": {
                        "type": "object",
                        "required": ["order_index", "text", "is_correct"],
                        "properties": {
                          "order_index": {"type": "integer", "minimum": 1},
                          "text": {"type": "string", "minLength": 1},
                          "is_correct": {"type": "boolean"}
                        }
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// Load reads, validates, and indexes a course document from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading course document: %w", err)
	}
	return Parse(data)
}

// Parse validates and indexes a YAML course document.
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding course document: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(courseSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validating course document: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("course document invalid: %s", strings.Join(problems, "; "))
	}

	var course Course
	if err := yaml.Unmarshal(data, &course); err != nil {
		return nil, fmt.Errorf("decoding course document: %w", err)
	}

	cat, err := build(course)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	slog.Info("catalog loaded",
		"course", cat.title,
		"modules", len(cat.modules),
		"lessons", len(cat.lessons),
	)
	return cat, nil
}
