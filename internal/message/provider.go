// Package message produces commit messages, preferring an AI backend and
// falling back to deterministic templates. Generation never fails: any error
// on the AI path collapses into the template fallback.
package message

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/logfields"
)

// Result is a generated commit message. UsedAI is true only when the AI
// backend produced the message.
type Result struct {
	Message string
	UsedAI  bool
}

// Provider generates commit messages. Implementations are total: Generate
// always returns a usable message.
type Provider interface {
	Generate(ctx context.Context, diff string, files []string, theme string) Result
}

// AIClient is the completion backend used by the Generator. It is satisfied
// by OllamaClient and by test fakes.
type AIClient interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

const defaultSystemPrompt = "You write git commit messages. Respond with a single " +
	"conventional commit message (type: description) in imperative mood, at most " +
	"50 characters. Output only the message, nothing else."

// Generator implements Provider with an optional AI backend.
type Generator struct {
	ai           AIClient
	systemPrompt string
	pick         func(n int) int
}

// NewGenerator builds a Generator from configuration. ai may be nil, in which
// case every message comes from the template fallback.
func NewGenerator(cfg *config.Config, ai AIClient) *Generator {
	prompt := cfg.Ollama.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return &Generator{
		ai:           ai,
		systemPrompt: prompt,
		pick:         rand.IntN,
	}
}

// Generate returns a commit message for the pending changes. It never fails.
func (g *Generator) Generate(ctx context.Context, diff string, files []string, theme string) Result {
	if g.ai != nil {
		if msg, ok := g.generateAI(ctx, diff, files, theme); ok {
			return Result{Message: msg, UsedAI: true}
		}
	}

	msg := fallbackMessage(files, theme, g.pick)
	slog.Info("Using template commit message", slog.String("message", msg))
	return Result{Message: msg, UsedAI: false}
}

func (g *Generator) generateAI(ctx context.Context, diff string, files []string, theme string) (string, bool) {
	start := time.Now()
	raw, err := g.ai.Generate(ctx, buildPrompt(diff, files, theme), g.systemPrompt)
	if err != nil {
		slog.Warn("AI message generation failed, falling back to template",
			logfields.Error(err),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		return "", false
	}

	msg := sanitizeMessage(raw)
	if !validMessage(msg) {
		slog.Warn("AI produced an invalid commit message, falling back to template",
			slog.String("message", msg))
		return "", false
	}
	return msg, true
}

// promptFileLimit bounds the file listing inside the prompt.
const promptFileLimit = 10

// promptDiffLines bounds the diff excerpt inside the prompt.
const promptDiffLines = 50

func buildPrompt(diff string, files []string, theme string) string {
	var b strings.Builder

	if theme != "" {
		fmt.Fprintf(&b, "Context: This is a %s project.\n\n", theme)
	}

	b.WriteString("Files changed:\n")
	for i, f := range files {
		if i == promptFileLimit {
			fmt.Fprintf(&b, "... and %d more files\n", len(files)-promptFileLimit)
			break
		}
		fmt.Fprintf(&b, "- %s\n", f)
	}

	if diff != "" {
		b.WriteString("\nDiff summary:\n")
		lines := strings.Split(diff, "\n")
		if len(lines) > promptDiffLines {
			lines = lines[:promptDiffLines]
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nGenerate a concise conventional commit message:")
	if theme != "" {
		fmt.Fprintf(&b, "\n(Keep the %s context in mind when describing the changes)", theme)
	}
	return b.String()
}

// sanitizeMessage normalizes a raw completion into a single commit subject
// line of at most 72 characters.
func sanitizeMessage(raw string) string {
	msg := strings.TrimSpace(raw)
	msg = strings.Trim(msg, "`\"'")
	msg = strings.TrimSpace(msg)

	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = strings.TrimSpace(msg[:i])
	}

	if len(msg) > 72 {
		cut := 69
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}

var conventionalTypes = map[string]bool{
	"feat": true, "fix": true, "docs": true, "style": true,
	"refactor": true, "perf": true, "test": true, "build": true,
	"ci": true, "chore": true, "revert": true,
}

// validMessage accepts conventional commit subjects and, failing that, any
// plausibly descriptive one-liner.
func validMessage(msg string) bool {
	if len(msg) < 5 {
		return false
	}

	if typ, rest, ok := strings.Cut(msg, ":"); ok {
		typ = strings.ToLower(strings.TrimSpace(typ))
		if i := strings.IndexByte(typ, '('); i >= 0 {
			typ = typ[:i]
		}
		typ = strings.TrimSuffix(typ, "!")
		if conventionalTypes[typ] && strings.TrimSpace(rest) != "" {
			return true
		}
	}
	return len(msg) >= 10
}
