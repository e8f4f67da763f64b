package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetshare/internal/apperror"
)

// MaxSuggestedTags caps how many tags a suggestion returns, regardless of
// what the model produces.
const MaxSuggestedTags = 5

// Analysis is the structured result of a code review by the model.
type Analysis struct {
	Issues        []Issue  `json:"issues"`
	Improvements  []string `json:"improvements"`
	OverallRating string   `json:"overall_rating"` // excellent|good|fair|needs_work
	Summary       string   `json:"summary"`
}

// Issue is one finding within an Analysis.
type Issue struct {
	Type     string `json:"type"`     // error|warning|suggestion
	Message  string `json:"message"`  // description of the issue
	Line     string `json:"line"`     // approximate line number, or "general"
	Severity string `json:"severity"` // high|medium|low
}

// Improvement is a rewritten version of the snippet with an explanation.
type Improvement struct {
	ImprovedCode string   `json:"improved_code"`
	ChangesMade  []string `json:"changes_made"`
	Explanation  string   `json:"explanation"`
}

// TitleSuggestion is a generated title/description pair for a snippet.
type TitleSuggestion struct {
	Title       string `json:"title"`       // max ~50 characters
	Description string `json:"description"` // max ~150 characters
}

// Assistant runs the AI operations against an injected Generator, spending
// from the injected Budget before every network call.
type Assistant struct {
	gen    Generator
	budget *Budget
	logger *slog.Logger
}

func NewAssistant(gen Generator, budget *Budget, logger *slog.Logger) *Assistant {
	return &Assistant{
		gen:    gen,
		budget: budget,
		logger: logger,
	}
}

// SuggestTags asks the model for up to five lowercase, hyphenated tags for
// the given code. Title and description are optional context.
func (a *Assistant) SuggestTags(ctx context.Context, code, title, description string) ([]string, error) {
	if err := a.checkCode(code); err != nil {
		return nil, err
	}
	if err := a.budget.Spend(); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze this code snippet and suggest 3-5 relevant tags that would help developers find it.

Title: %s
Description: %s
Code:
%s

Guidelines:
- Include the programming language
- Include framework/library names if used
- Include concept/pattern names (e.g., "hooks", "async", "recursion")
- Include use case tags (e.g., "authentication", "api", "database")
- Keep tags lowercase, use hyphens for spaces
- Maximum 5 tags

Respond with ONLY a JSON array of strings, no explanation:
["tag1", "tag2", "tag3"]`, title, description, fence(code, ""))

	raw, err := a.gen.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var tags []string
	if err := decodeModelJSON(raw, &tags); err != nil {
		a.logger.Warn("unparseable tag suggestion", slog.String("error", err.Error()))
		return nil, err
	}

	cleaned := make([]string, 0, MaxSuggestedTags)
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		cleaned = append(cleaned, tag)
		if len(cleaned) == MaxSuggestedTags {
			break
		}
	}
	return cleaned, nil
}

// Analyze asks the model to review the code for bugs, performance, best
// practices, and security. Missing fields in the reply get conservative
// defaults rather than failing the whole analysis.
func (a *Assistant) Analyze(ctx context.Context, code, language string) (*Analysis, error) {
	if err := a.checkCode(code); err != nil {
		return nil, err
	}
	if err := a.budget.Spend(); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze this %s code snippet for:
1. Potential bugs or errors
2. Performance improvements
3. Best practice suggestions
4. Security concerns (if any)

Code:
%s

Provide your analysis in this JSON format:
{
  "issues": [
    {
      "type": "error|warning|suggestion",
      "message": "Description of the issue",
      "line": "approximate line number or 'general'",
      "severity": "high|medium|low"
    }
  ],
  "improvements": [
    "Specific improvement suggestion 1",
    "Specific improvement suggestion 2"
  ],
  "overall_rating": "excellent|good|fair|needs_work",
  "summary": "Brief overall assessment"
}

Be constructive and helpful. If the code is good, say so!`, language, fence(code, language))

	raw, err := a.gen.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := decodeModelJSON(raw, &analysis); err != nil {
		return nil, err
	}
	if analysis.Issues == nil {
		analysis.Issues = []Issue{}
	}
	if analysis.Improvements == nil {
		analysis.Improvements = []string{}
	}
	if analysis.OverallRating == "" {
		analysis.OverallRating = "fair"
	}
	if analysis.Summary == "" {
		analysis.Summary = "Code analysis completed"
	}
	return &analysis, nil
}

// Improve asks the model for a rewritten version of the code. If the model
// returns no improved code, the original is echoed back so callers always
// have something displayable.
func (a *Assistant) Improve(ctx context.Context, code, language string) (*Improvement, error) {
	if err := a.checkCode(code); err != nil {
		return nil, err
	}
	if err := a.budget.Spend(); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Improve this %s code snippet by:
1. Fixing any bugs or errors
2. Adding better error handling
3. Improving performance where possible
4. Following best practices
5. Adding helpful comments

Original code:
%s

Respond with:
{
  "improved_code": "the improved code with comments",
  "changes_made": [
    "List of specific improvements made"
  ],
  "explanation": "Brief explanation of why these changes help"
}

Keep the core functionality the same, just make it better!`, language, fence(code, language))

	raw, err := a.gen.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var improvement Improvement
	if err := decodeModelJSON(raw, &improvement); err != nil {
		return nil, err
	}
	if improvement.ImprovedCode == "" {
		improvement.ImprovedCode = code
	}
	if improvement.ChangesMade == nil {
		improvement.ChangesMade = []string{}
	}
	if improvement.Explanation == "" {
		improvement.Explanation = "No improvements suggested"
	}
	return &improvement, nil
}

// DetectLanguage asks the model to name the snippet's programming language.
// Returns a lowercase label, or "unknown" when the model is unsure.
func (a *Assistant) DetectLanguage(ctx context.Context, code string) (string, error) {
	if err := a.checkCode(code); err != nil {
		return "", err
	}
	if err := a.budget.Spend(); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Identify the programming language of this code snippet:

%s

Respond with ONLY the language name in lowercase (e.g., "javascript", "python", "java", "css", "html").
If unsure, respond with "unknown".`, fence(code, ""))

	raw, err := a.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	lang := strings.ToLower(strings.TrimSpace(stripFences(raw)))
	if lang == "" {
		lang = "unknown"
	}
	return lang, nil
}

// Describe asks the model for a title and description for the snippet.
func (a *Assistant) Describe(ctx context.Context, code string) (*TitleSuggestion, error) {
	if err := a.checkCode(code); err != nil {
		return nil, err
	}
	if err := a.budget.Spend(); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze this code snippet and suggest:
1. A concise, descriptive title (max 50 characters)
2. A helpful description (max 150 characters)

Code:
%s

Respond with:
{
  "title": "Suggested title",
  "description": "What this code does and when to use it"
}`, fence(code, ""))

	raw, err := a.gen.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var suggestion TitleSuggestion
	if err := decodeModelJSON(raw, &suggestion); err != nil {
		return nil, err
	}
	if suggestion.Title == "" {
		suggestion.Title = "Code Snippet"
	}
	if suggestion.Description == "" {
		suggestion.Description = "Useful code snippet"
	}
	return &suggestion, nil
}

func (a *Assistant) checkCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return apperror.ValidationFailed("code", "code is required")
	}
	return nil
}

// fence wraps code in a markdown code block for the prompt.
func fence(code, language string) string {
	return "```" + language + "\n" + code + "\n```"
}
