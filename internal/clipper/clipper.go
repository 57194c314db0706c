package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutriplan/internal/llm"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/generative-ai-go/genai"
)

// Clipper imports ingredient lists from recipe web pages so they can be used
// as the available-ingredients input of a plan request.
type Clipper struct {
	textGen    llm.StructuredGenerator
	httpClient *http.Client
}

type extractedIngredients struct {
	Ingredients []string `json:"ingredients"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.StructuredGenerator) *Clipper {
	return &Clipper{
		textGen: textGen,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func ingredientsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"ingredients": {
				Type:        genai.TypeArray,
				Description: "The ingredients found on the page, one plain food item per entry, without quantities.",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"ingredients"},
	}
}

// ImportIngredients fetches the URL, extracts the ingredient list with the
// model, and returns it as a comma-separated string.
func (c *Clipper) ImportIngredients(ctx context.Context, url string) (string, error) {
	content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are an ingredient extraction expert. Extract the list of food ingredients mentioned in the following page content.
List each ingredient as a plain food item (e.g. "chicken breast", "spinach"); drop quantities, units and preparation notes.
Respond ONLY with a JSON object following the provided schema.

Page Content:
%s
`, content)

	resp, err := c.textGen.GenerateStructured(ctx, llm.Request{
		Prompt:      prompt,
		Schema:      ingredientsSchema(),
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("ai extraction failed: %w", err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("no ingredients extracted from %s", url)
	}

	var extracted extractedIngredients
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	if len(extracted.Ingredients) == 0 {
		return "", fmt.Errorf("no ingredients found on %s", url)
	}

	return strings.Join(extracted.Ingredients, ", "), nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}
