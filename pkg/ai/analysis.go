package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemType discriminates the kinds of extracted items.
type ItemType string

const (
	TypeTask        ItemType = "TASK"
	TypeEvent       ItemType = "EVENT"
	TypeIdea        ItemType = "IDEA"
	TypeDiary       ItemType = "DIARY"
	TypeReference   ItemType = "REFERENCE"
	TypeFinance     ItemType = "FINANCE"
	TypePerson      ItemType = "PERSON"
	TypeLocation    ItemType = "LOCATION"
	TypeInspiration ItemType = "INSPIRATION"
	TypeQuote       ItemType = "QUOTE"
	TypeLearning    ItemType = "LEARNING"
	TypeWishlist    ItemType = "WISHLIST"
	TypeBooking     ItemType = "BOOKING"
	TypeRecipe      ItemType = "RECIPE"
	TypeKnowledge   ItemType = "KNOWLEDGE"
)

// InputKind distinguishes the two analysis request forms.
type InputKind int

const (
	KindImage InputKind = iota
	KindText
)

// Item is one extracted unit of information from a single input.
type Item struct {
	Type           ItemType `json:"type"`
	Content        string   `json:"content"`
	Priority       string   `json:"priority,omitempty"`
	DueDate        string   `json:"due_date,omitempty"`
	Name           string   `json:"name,omitempty"`
	Handle         string   `json:"handle,omitempty"`
	Platform       string   `json:"platform,omitempty"`
	Role           string   `json:"role,omitempty"`
	Location       string   `json:"location,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	LinkedConcepts []string `json:"linked_concepts,omitempty"`
	ProjectHint    string   `json:"project_hint,omitempty"`
	ShootType      string   `json:"shoot_type,omitempty"`
	Status         string   `json:"status,omitempty"`
	Questions      []string `json:"questions,omitempty"`
	VaultPath      string   `json:"vault_path,omitempty"`
	Ingredients    []string `json:"ingredients,omitempty"`
	Steps          []string `json:"steps,omitempty"`
	Servings       string   `json:"servings,omitempty"`
	PrepTime       string   `json:"prep_time,omitempty"`
}

// Analysis is the structured result of one Gemini analysis call.
type Analysis struct {
	Summary            string `json:"summary"`
	Language           string `json:"language"`
	Transcript         string `json:"transcript,omitempty"`
	FilenameSuggestion string `json:"filename_suggestion"`
	DailySnippet       string `json:"daily_snippet,omitempty"`
	Items              []Item `json:"items"`
}

// SchemaError reports a malformed analysis result.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "invalid analysis result: " + e.Reason
}

var imageItemTypes = map[ItemType]bool{
	TypeTask: true, TypeEvent: true, TypeIdea: true, TypeDiary: true,
	TypeReference: true, TypeFinance: true, TypePerson: true,
	TypeLocation: true, TypeInspiration: true, TypeQuote: true,
	TypeLearning: true, TypeWishlist: true, TypeBooking: true,
}

var textItemTypes = map[ItemType]bool{
	TypeTask: true, TypeEvent: true, TypeIdea: true, TypeDiary: true,
	TypeReference: true, TypeFinance: true, TypePerson: true,
	TypeLocation: true, TypeQuote: true, TypeLearning: true,
	TypeWishlist: true, TypeRecipe: true, TypeKnowledge: true,
}

// ValidateAnalysis checks that an analysis result has the shape required for
// the given input kind. Image inputs must carry a transcript; text inputs
// must not produce INSPIRATION or BOOKING items.
func ValidateAnalysis(a *Analysis, kind InputKind) error {
	if a.Summary == "" {
		return &SchemaError{Reason: "missing summary"}
	}
	if a.Language == "" {
		return &SchemaError{Reason: "missing language"}
	}
	if kind == KindImage && a.Transcript == "" {
		return &SchemaError{Reason: "missing transcript"}
	}
	if a.FilenameSuggestion == "" {
		return &SchemaError{Reason: "missing filename_suggestion"}
	}
	if a.Items == nil {
		return &SchemaError{Reason: "missing items"}
	}

	valid := imageItemTypes
	if kind == KindText {
		valid = textItemTypes
	}
	for i, item := range a.Items {
		if item.Type == "" || item.Content == "" {
			return &SchemaError{Reason: fmt.Sprintf("item %d missing type or content", i)}
		}
		if !valid[item.Type] {
			return &SchemaError{Reason: fmt.Sprintf("item %d has invalid type %q", i, item.Type)}
		}
	}
	return nil
}

// CleanJSON strips markdown code fences that the model sometimes wraps
// around its JSON payload despite instructions.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if _, rest, ok := strings.Cut(s, "\n"); ok {
			s = rest
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// ParseAnalysis decodes and validates a raw model response.
func ParseAnalysis(raw string, kind InputKind) (*Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &a); err != nil {
		return nil, &SchemaError{Reason: "malformed JSON: " + err.Error()}
	}
	if err := ValidateAnalysis(&a, kind); err != nil {
		return nil, err
	}
	return &a, nil
}
