// File: internal/vision/engine.go
package vision

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
	"github.com/voidreach/screenpilot/internal/config"
)

// Engine turns a screenshot and a natural-language instruction into a
// single validated decision. It owns the prompting contract with the
// model and the parsing of its response.
type Engine struct {
	client schemas.VisionClient
	cfg    config.VisionConfig
	logger *zap.Logger
}

// NewEngine creates a decision engine backed by the given client.
func NewEngine(client schemas.VisionClient, cfg config.VisionConfig, logger *zap.Logger) *Engine {
	return &Engine{
		client: client,
		cfg:    cfg,
		logger: logger.Named("vision.engine"),
	}
}

const systemPrompt = `You are a desktop automation operator. You are shown a screenshot
of the current screen and a goal. Decide the single next input action
that makes progress toward the goal.

Respond with exactly one JSON object and nothing else:
{
  "action": "click" | "type" | "wait" | "complete" | "error",
  "coordinate": {"x": <int>, "y": <int>},   // required for "click"
  "text": "<string>",                       // required for "type"
  "reasoning": "<why this action, one or two sentences>"
}

Rules:
- "click" presses the left mouse button at coordinate, in screen pixels.
- "type" inserts text at the current focus. Click a field first if needed.
- "wait" means the screen is still changing; you will be shown a fresh screenshot.
- "complete" means the goal is visibly achieved.
- "error" means the goal cannot be achieved from this screen. Explain in reasoning.
- Never invent UI elements that are not visible in the screenshot.`

// Decide asks the model for the next action given the current screen.
// Parse and validation failures return a *ParseError so callers can
// treat them as a consumed attempt rather than a fatal fault.
func (e *Engine) Decide(ctx context.Context, instruction string, imagePNG []byte) (schemas.Decision, error) {
	userPrompt := fmt.Sprintf("Goal: %s\n\nThe attached screenshot shows the current screen. Determine the next action. Respond with a single JSON object.", instruction)

	raw, err := e.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		ImagePNG:     imagePNG,
		MaxTokens:    e.cfg.MaxTokens,
		Temperature:  e.cfg.Temperature,
	})
	if err != nil {
		return schemas.Decision{}, fmt.Errorf("vision generation failed: %w", err)
	}

	decision, err := e.parseDecision(raw)
	if err != nil {
		return schemas.Decision{}, err
	}

	e.logger.Debug("Decision parsed",
		zap.String("action", string(decision.Action)),
		zap.String("reasoning", decision.Reasoning),
	)
	return decision, nil
}

// A regex to robustly extract a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile(fmt.Sprintf("(?s)%s(?:json)?\\s*(.*?)\\s*%s", "```", "```"))

// Robustly extracts a JSON object from the model's response,
// handling markdown code blocks or raw JSON.
func (e *Engine) parseDecision(response string) (schemas.Decision, error) {
	response = strings.TrimSpace(response)
	var jsonStringToParse string

	matches := jsonBlockRegex.FindStringSubmatch(response)
	if len(matches) > 1 {
		jsonStringToParse = strings.TrimSpace(matches[1])
	} else {
		firstBracket := strings.Index(response, "{")
		lastBracket := strings.LastIndex(response, "}")
		if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
			jsonStringToParse = response[firstBracket : lastBracket+1]
		} else {
			jsonStringToParse = response
		}
	}

	if jsonStringToParse == "" {
		return schemas.Decision{}, &ParseError{Reason: "could not find any JSON in the model response", Raw: response}
	}

	var decision schemas.Decision
	if err := json.Unmarshal([]byte(jsonStringToParse), &decision); err != nil {
		e.logger.Warn("Failed to unmarshal model response",
			zap.String("raw_response", response),
			zap.String("extracted_json", jsonStringToParse),
			zap.Error(err))
		return schemas.Decision{}, &ParseError{Reason: "failed to unmarshal extracted JSON", Raw: response, Err: err}
	}

	if err := decision.Validate(); err != nil {
		return schemas.Decision{}, &ParseError{Reason: "decision failed validation", Raw: response, Err: err}
	}
	return decision, nil
}
