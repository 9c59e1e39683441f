package mcptools

import "github.com/modelcontextprotocol/go-sdk/mcp"

func pathProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Path to the PDF file",
	}
}

func caseSensitiveProperty() map[string]any {
	return map[string]any{
		"type":        "boolean",
		"description": "Match case exactly (default true)",
	}
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "1-based page number",
		"minimum":     1,
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// ToolDefinitions returns the PDF tool definitions.
func ToolDefinitions() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        "pdf_extract_text",
			Description: "Extract the text of every page of a PDF, concatenated in page order with surrounding whitespace trimmed.",
			InputSchema: objectSchema(map[string]any{"path": pathProperty()}, "path"),
		},
		{
			Name:        "pdf_page_count",
			Description: "Return the number of pages in a PDF.",
			InputSchema: objectSchema(map[string]any{"path": pathProperty()}, "path"),
		},
		{
			Name:        "pdf_page_text",
			Description: "Extract the trimmed text of one page. Fails with invalid_page_index when the page is out of range.",
			InputSchema: objectSchema(map[string]any{
				"path": pathProperty(),
				"page": pageProperty(),
			}, "path", "page"),
		},
		{
			Name:        "pdf_assert_text",
			Description: "Pass when the text occurs anywhere in the PDF. Fails with assertion_failed otherwise.",
			InputSchema: objectSchema(map[string]any{
				"path":           pathProperty(),
				"text":           map[string]any{"type": "string", "description": "Text that must appear"},
				"case_sensitive": caseSensitiveProperty(),
			}, "path", "text"),
		},
		{
			Name:        "pdf_assert_no_text",
			Description: "Pass when the text does not occur anywhere in the PDF. Fails with assertion_failed otherwise.",
			InputSchema: objectSchema(map[string]any{
				"path":           pathProperty(),
				"text":           map[string]any{"type": "string", "description": "Text that must not appear"},
				"case_sensitive": caseSensitiveProperty(),
			}, "path", "text"),
		},
		{
			Name:        "pdf_assert_regex",
			Description: "Pass when the RE2 pattern matches the PDF text at least once; returns every full match in document order.",
			InputSchema: objectSchema(map[string]any{
				"path":    pathProperty(),
				"pattern": map[string]any{"type": "string", "description": "RE2 regular expression"},
				"flags": map[string]any{
					"type":        "array",
					"description": "Optional regex flags",
					"items": map[string]any{
						"type": "string",
						"enum": []string{"ignore_case", "multiline", "dotall"},
					},
				},
			}, "path", "pattern"),
		},
		{
			Name:        "pdf_assert_page_count",
			Description: "Pass when the PDF has exactly the expected number of pages.",
			InputSchema: objectSchema(map[string]any{
				"path":     pathProperty(),
				"expected": map[string]any{"type": "integer", "description": "Expected page count", "minimum": 0},
			}, "path", "expected"),
		},
		{
			Name:        "pdf_assert_text_on_page",
			Description: "Pass when the text occurs on the given page. Fails with invalid_page_index for an out-of-range page.",
			InputSchema: objectSchema(map[string]any{
				"path":           pathProperty(),
				"page":           pageProperty(),
				"text":           map[string]any{"type": "string", "description": "Text that must appear on the page"},
				"case_sensitive": caseSensitiveProperty(),
			}, "path", "page", "text"),
		},
		{
			Name:        "pdf_metadata",
			Description: "Return the document information properties plus page_count and file_size.",
			InputSchema: objectSchema(map[string]any{"path": pathProperty()}, "path"),
		},
		{
			Name:        "pdf_search",
			Description: "Find every occurrence of text (overlaps included) with a window of surrounding context. Offsets are in characters.",
			InputSchema: objectSchema(map[string]any{
				"path": pathProperty(),
				"text": map[string]any{"type": "string", "description": "Text to find", "minLength": 1},
				"context_chars": map[string]any{
					"type":        "integer",
					"description": "Characters of context on each side (default 50)",
					"minimum":     0,
				},
				"case_sensitive": caseSensitiveProperty(),
			}, "path", "text"),
		},
	}
}
